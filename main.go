package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	directoryx "github.com/signalwire-academy/telehealth-connect/agent/directory"
	gatewayx "github.com/signalwire-academy/telehealth-connect/agent/gateway"
	patientx "github.com/signalwire-academy/telehealth-connect/agent/patient"
	statex "github.com/signalwire-academy/telehealth-connect/agent/state"
	workflowx "github.com/signalwire-academy/telehealth-connect/agent/workflow"
	configx "github.com/signalwire-academy/telehealth-connect/pkg/config"
	logx "github.com/signalwire-academy/telehealth-connect/pkg/logger"
)

type AppConfig struct {
	Log logx.Config `envconfig:"LOG"`

	// FixturesFile overrides the embedded reference tables.
	FixturesFile string `envconfig:"FIXTURES_FILE" split_words:"true"`

	// PostgresDSN switches the patient directory and slot catalog from the
	// static fixtures to Postgres.
	PostgresDSN     string        `envconfig:"POSTGRES_DSN" split_words:"true"`
	PostgresTimeout time.Duration `envconfig:"POSTGRES_TIMEOUT" split_words:"true" default:"5s"`

	// UpstashURL switches session state from in-process memory to Redis.
	UpstashURL     string        `envconfig:"UPSTASH_URL" split_words:"true"`
	UpstashToken   string        `envconfig:"UPSTASH_TOKEN" split_words:"true"`
	UpstashTimeout time.Duration `envconfig:"UPSTASH_TIMEOUT" split_words:"true" default:"10s"`

	Patient patientx.Config `envconfig:"PATIENT"`
}

type app struct {
	gateway *gatewayx.Agent
	patient *patientx.Agent
}

func newApp(cfg *AppConfig) (*app, error) {
	tables, err := loadTables(cfg)
	if err != nil {
		return nil, err
	}

	var (
		patients contractx.PatientDirectory
		catalog  contractx.AppointmentCatalog
	)
	if cfg.PostgresDSN != "" {
		store, err := directoryx.NewPostgresStore(directoryx.PostgresConfig{
			DSN:     cfg.PostgresDSN,
			Timeout: cfg.PostgresTimeout,
		})
		if err != nil {
			return nil, err
		}
		patients, catalog = store, store
	} else {
		patients = directoryx.NewStaticPatientDirectory(tables.Patients)
		catalog = directoryx.NewStaticAppointmentCatalog(tables.Slots)
	}

	sessions, err := newSessionStore(cfg)
	if err != nil {
		return nil, err
	}

	gw, err := gatewayx.New(tables, sessions)
	if err != nil {
		return nil, err
	}
	pt, err := patientx.New(tables, patients, catalog, sessions, cfg.Patient)
	if err != nil {
		return nil, err
	}

	return &app{gateway: gw, patient: pt}, nil
}

func loadTables(cfg *AppConfig) (*directoryx.Tables, error) {
	if cfg.FixturesFile != "" {
		return directoryx.LoadFile(cfg.FixturesFile)
	}
	return directoryx.Load()
}

func newSessionStore(cfg *AppConfig) (statex.Store, error) {
	if cfg.UpstashURL == "" {
		return statex.NewMemoryStore(), nil
	}
	return statex.NewUpstashRedisStore(statex.UpstashRedisConfig{
		URL:     cfg.UpstashURL,
		Token:   cfg.UpstashToken,
		Timeout: cfg.UpstashTimeout,
	})
}

func main() {
	var envFile string

	root := &cobra.Command{
		Use:   "telehealth-connect",
		Short: "TeleHealth Connect call-flow agents",
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file")

	loadConfig := func() *AppConfig {
		var opts []configx.Option
		if envFile != "" {
			opts = append(opts, configx.WithEnvFile(envFile))
		}
		cfg := configx.MustNew[AppConfig]("", opts...)
		logx.Init(cfg.Log)
		return cfg
	}

	describe := &cobra.Command{
		Use:   "describe [gateway|patient]",
		Short: "Print an agent's context and function declarations as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(loadConfig())
			if err != nil {
				return err
			}
			var payload any
			switch args[0] {
			case "gateway":
				payload = a.gateway.Descriptor()
			case "patient":
				payload = struct {
					Recording patientx.RecordingParams `json:"recording"`
					Agent     any                      `json:"agent"`
				}{a.patient.RecordingParams(), a.patient.Descriptor()}
			default:
				return fmt.Errorf("unknown agent %q", args[0])
			}
			out, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	var caller string
	simulate := &cobra.Command{
		Use:   "simulate",
		Short: "Run a canned patient call through the workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(loadConfig())
			if err != nil {
				return err
			}
			return runSimulation(cmd.Context(), a, caller)
		},
	}
	simulate.Flags().StringVar(&caller, "caller", "+15550001234", "caller number for the simulated session")

	root.AddCommand(describe, simulate)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// runSimulation walks the happy path: secure input, verification, a mild
// symptom, then finding and booking a dermatology slot.
func runSimulation(ctx context.Context, a *app, caller string) error {
	turns := []contractx.FunctionCall{
		{Name: "secure_input"},
		{Name: "verify_patient", Arguments: map[string]any{"dob": "1980-01-15", "member_id": "m123456"}},
		{Name: "assess_symptoms", Arguments: map[string]any{"symptoms": "mild rash"}},
		{Name: "check_availability", Arguments: map[string]any{"specialty": "dermatology"}},
		{Name: "book_appointment", Arguments: map[string]any{"slot_id": "2024-01-17 10:00"}},
	}

	sessionID := ""
	for _, call := range turns {
		out, err := a.patient.Dispatch(ctx, workflowx.DispatchInput{
			SessionID:    sessionID,
			CallerNumber: caller,
			Call:         call,
		})
		if err != nil {
			return fmt.Errorf("dispatch %s: %w", call.Name, err)
		}
		sessionID = out.SessionID
		log.Info().
			Str("function", call.Name).
			Str("message", out.Result.Message).
			Str("context_switch", string(out.Result.ContextSwitch)).
			Int("side_effects", len(out.Result.SideEffects)).
			Msg("turn complete")
	}

	// The call is over; destroy its state the way the runtime would at hangup.
	if err := a.patient.EndSession(ctx, sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	log.Info().Str("session", sessionID).Msg("session destroyed")
	return nil
}
