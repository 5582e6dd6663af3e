package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Skufu/glucorisk/internal/dataset"
	"github.com/Skufu/glucorisk/internal/patient"
	"github.com/Skufu/glucorisk/pkg/logger"
)

// GormStore serves lookups through gorm. It works with the sqlite and postgres dialects.
type GormStore struct {
	db     *gorm.DB
	schema schemaGate
	where  string
	log    *zap.Logger
}

// NewGormStore wraps db. The schema is applied on first use.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:    db,
		where: whereClause(func(int) string { return "?" }),
		log:   logger.WithModule("cache"),
	}
}

func (s *GormStore) Lookup(ctx context.Context, rec patient.Record) (out patient.Outcome, hit bool, err error) {
	defer func() { observe(hit, err) }()

	args, err := lookupArgs(rec)
	if err != nil {
		return 0, false, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return 0, false, err
	}

	var row PatientRow
	err = s.db.WithContext(ctx).Where(s.where, args...).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug("cache miss")
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	s.log.Debug("cache hit", zap.Uint("row_id", row.ID))
	return patient.Outcome(row.Diabetes), true, nil
}

// Insert stores rows in batches. The request path never calls it; it exists for seeding.
func (s *GormStore) Insert(ctx context.Context, rows []PatientRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	return s.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

// Count returns the number of stored rows.
func (s *GormStore) Count(ctx context.Context) (int64, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&PatientRow{}).Count(&n).Error
	return n, err
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) ensureSchema(ctx context.Context) error {
	return s.schema.ensure(ctx, func(ctx context.Context) error {
		script, err := schemaScript(s.db.Dialector.Name())
		if err != nil {
			return err
		}
		for _, stmt := range splitStatements(script) {
			if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
				return err
			}
		}
		s.log.Info("schema applied", zap.String("dialect", s.db.Dialector.Name()))
		return nil
	})
}

// RowsFromTable converts dataset rows into storable rows, rounding the measurements to one
// decimal place like lookups do.
func RowsFromTable(tbl *dataset.Table) ([]PatientRow, error) {
	if len(tbl.Header) != len(columns)+1 {
		return nil, fmt.Errorf("cache: dataset has %d columns, want %d", len(tbl.Header), len(columns)+1)
	}

	rows := make([]PatientRow, 0, len(tbl.Rows))
	for i, r := range tbl.Rows {
		for j, cell := range r {
			wantText := j == 0 || j == 4
			if cell.IsNum == wantText {
				return nil, fmt.Errorf("cache: row %d: unexpected value %q in column %s", i+1, cell.String(), tbl.Header[j])
			}
		}
		rows = append(rows, PatientRow{
			Gender:            r[0].Str,
			Age:               r[1].Num,
			Hypertension:      int(r[2].Num),
			HeartDisease:      int(r[3].Num),
			SmokingHistory:    r[4].Str,
			BMI:               RoundTenth(r[5].Num),
			HbA1cLevel:        RoundTenth(r[6].Num),
			BloodGlucoseLevel: RoundTenth(r[7].Num),
			Diabetes:          int(r[8].Num),
		})
	}
	return rows, nil
}

// splitStatements breaks a DDL script on semicolons. The schema scripts hold no literals
// containing semicolons.
func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
