package directory

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
)

// PostgresConfig wires the production member directory and slot catalog.
// The static fixture tables remain the default; Postgres is opt-in per
// deployment.
type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

type patientRow struct {
	bun.BaseModel `bun:"table:patients,alias:p"`

	MemberID string `bun:"member_id,pk"`
	Name     string `bun:"name"`
	DOB      string `bun:"dob"`
	Tier     string `bun:"tier"`
}

type slotRow struct {
	bun.BaseModel `bun:"table:appointment_slots,alias:s"`

	Specialty string `bun:"specialty"`
	SlotID    string `bun:"slot_id"`
	Position  int    `bun:"position"`
}

// PostgresStore implements PatientDirectory and AppointmentCatalog against
// Postgres via bun. The connection is lazy; construction never dials.
type PostgresStore struct {
	db      *bun.DB
	timeout time.Duration
}

var (
	_ contractx.PatientDirectory   = (*PostgresStore)(nil)
	_ contractx.AppointmentCatalog = (*PostgresStore)(nil)
)

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	return &PostgresStore{
		db:      bun.NewDB(sqldb, pgdialect.New()),
		timeout: timeout,
	}, nil
}

func (s *PostgresStore) Lookup(ctx context.Context, memberID string) (contractx.PatientRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row patientRow
	err := s.db.NewSelect().
		Model(&row).
		Where("upper(p.member_id) = ?", strings.ToUpper(strings.TrimSpace(memberID))).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.PatientRecord{}, false, nil
	}
	if err != nil {
		return contractx.PatientRecord{}, false, err
	}
	return contractx.PatientRecord{
		MemberID: row.MemberID,
		Name:     row.Name,
		DOB:      row.DOB,
		Tier:     row.Tier,
	}, true, nil
}

func (s *PostgresStore) Slots(ctx context.Context, specialty string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var ids []string
	err := s.db.NewSelect().
		Model((*slotRow)(nil)).
		Column("slot_id").
		Where("s.specialty = ?", specialty).
		Order("position ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
