// Package cache answers prediction requests from previously recorded outcomes in the
// patients table. Lookups are exact matches over all eight patient fields; the table is
// read-only from the request path.
package cache

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/Skufu/glucorisk/internal/patient"
	"github.com/Skufu/glucorisk/pkg/metrics"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Store looks up recorded outcomes.
type Store interface {
	// Lookup returns the outcome of the first row matching rec. The bool is false when no
	// row matches.
	Lookup(ctx context.Context, rec patient.Record) (patient.Outcome, bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// PatientRow is one row of the patients table.
type PatientRow struct {
	ID                uint    `gorm:"column:id;primaryKey"`
	Gender            string  `gorm:"column:gender"`
	Age               float64 `gorm:"column:age"`
	Hypertension      int     `gorm:"column:hypertension"`
	HeartDisease      int     `gorm:"column:heart_disease"`
	SmokingHistory    string  `gorm:"column:smoking_history"`
	BMI               float64 `gorm:"column:bmi"`
	HbA1cLevel        float64 `gorm:"column:hba1c_level"`
	BloodGlucoseLevel float64 `gorm:"column:blood_glucose_level"`
	Diabetes          int     `gorm:"column:diabetes"`
}

func (PatientRow) TableName() string { return "patients" }

func schemaScript(dialect string) (string, error) {
	raw, err := schemaFS.ReadFile("schema/" + dialect + ".sql")
	if err != nil {
		return "", fmt.Errorf("cache: no schema for dialect %q: %w", dialect, err)
	}
	return string(raw), nil
}

// schemaGate applies the schema on first use. A failed attempt is retried on the next call.
type schemaGate struct {
	mu   sync.Mutex
	done bool
}

func (g *schemaGate) ensure(ctx context.Context, apply func(context.Context) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done {
		return nil
	}
	if err := apply(ctx); err != nil {
		return fmt.Errorf("cache: apply schema: %w", err)
	}
	g.done = true
	return nil
}

func observe(hit bool, err error) {
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
	case hit:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
}
