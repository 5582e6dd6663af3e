package cache

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/glucorisk/internal/database"
	"github.com/Skufu/glucorisk/internal/patient"
)

func TestPgxStoreQueryText(t *testing.T) {
	store := NewPgxStore(nil)

	for i := 1; i <= len(columns); i++ {
		assert.Contains(t, store.query, columns[i-1]+" = $"+strconv.Itoa(i))
	}
	assert.NotContains(t, store.query, "$9")
	assert.NotContains(t, store.query, "?")
	assert.True(t, strings.HasPrefix(store.query, "SELECT diabetes FROM patients WHERE "))
	assert.True(t, strings.HasSuffix(store.query, " LIMIT 1"))
}

// newPgxTestStore connects to DATABASE_URL and removes the rows a test inserts.
func newPgxTestStore(t *testing.T) *PgxStore {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.ConnectPostgres(ctx, url)
	require.NoError(t, err)

	store := NewPgxStore(pool)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.schema.ensure(ctx, store.applySchema))
	return store
}

func insertPgxRow(t *testing.T, store *PgxStore, rec patient.Record, outcome patient.Outcome) {
	t.Helper()

	row, err := RowFromRecord(rec, outcome)
	require.NoError(t, err)

	var id int64
	err = store.pool.QueryRow(context.Background(),
		`INSERT INTO patients (gender, age, hypertension, heart_disease, smoking_history, bmi, hba1c_level, blood_glucose_level, diabetes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		row.Gender, row.Age, row.Hypertension, row.HeartDisease, row.SmokingHistory,
		row.BMI, row.HbA1cLevel, row.BloodGlucoseLevel, row.Diabetes,
	).Scan(&id)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = store.pool.Exec(context.Background(), "DELETE FROM patients WHERE id = $1", id)
	})
}

// pgxRecord uses an age outside the dataset range so rows seeded elsewhere never match.
func pgxRecord() patient.Record {
	rec := smoker()
	rec.Age = patient.Some(131)
	return rec
}

func TestPgxStoreLookupHit(t *testing.T) {
	store := newPgxTestStore(t)
	insertPgxRow(t, store, pgxRecord(), patient.AtRisk)

	out, ok, err := store.Lookup(context.Background(), pgxRecord())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, patient.AtRisk, out)
}

func TestPgxStoreLookupMissesWhenAnyFieldDiffers(t *testing.T) {
	store := newPgxTestStore(t)
	insertPgxRow(t, store, pgxRecord(), patient.AtRisk)

	cases := map[string]func(*patient.Record){
		"gender":          func(r *patient.Record) { r.Gender = patient.Some(patient.GenderFemale) },
		"age":             func(r *patient.Record) { r.Age = patient.Some(130) },
		"hypertension":    func(r *patient.Record) { r.Hypertension = patient.Some(0) },
		"heart_disease":   func(r *patient.Record) { r.HeartDisease = patient.Some(0) },
		"smoking_history": func(r *patient.Record) { r.SmokingHistory = patient.Some(patient.SmokingNever) },
		"bmi":             func(r *patient.Record) { r.BMI = patient.Some(38.0) },
		"hba1c_level":     func(r *patient.Record) { r.HbA1cLevel = patient.Some(12.9) },
		"glucose":         func(r *patient.Record) { r.BloodGlucoseLevel = patient.Some(191.0) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rec := pgxRecord()
			mutate(&rec)

			_, ok, err := store.Lookup(context.Background(), rec)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPgxStoreLookupMissingField(t *testing.T) {
	store := newPgxTestStore(t)

	rec := pgxRecord()
	rec.BMI = patient.None[float64]()

	_, _, err := store.Lookup(context.Background(), rec)
	assert.ErrorIs(t, err, patient.ErrMissingField)
}

func TestPgxStorePing(t *testing.T) {
	store := newPgxTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
