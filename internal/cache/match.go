package cache

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skufu/glucorisk/internal/patient"
)

// ErrUnmatchable is returned for a value the matching rules cannot bind.
var ErrUnmatchable = errors.New("cache: value cannot be matched")

var categories = map[string]struct{}{
	patient.GenderMale:     {},
	patient.GenderFemale:   {},
	patient.SmokingNever:   {},
	patient.SmokingFormer:  {},
	patient.SmokingCurrent: {},
}

// columns lists the match columns in bind order.
var columns = []string{
	"gender",
	"age",
	"hypertension",
	"heart_disease",
	"smoking_history",
	"bmi",
	"hba1c_level",
	"blood_glucose_level",
}

// MatchValue normalises v before it is bound into the lookup query. Integers are compared as
// integers, category literals as text, and every other number rounded to one decimal place.
func MatchValue(v any) (any, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case string:
		if _, ok := categories[t]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("%w: %q is not a category literal", ErrUnmatchable, t)
	case float64:
		return RoundTenth(t), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrUnmatchable, v)
	}
}

// RoundTenth rounds v to one decimal place using the shortest correctly rounded decimal form.
func RoundTenth(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return r
}

// lookupArgs returns the bound values for rec in column order.
func lookupArgs(rec patient.Record) ([]any, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	raw := []any{
		rec.Gender.MustGet(),
		rec.Age.MustGet(),
		rec.Hypertension.MustGet(),
		rec.HeartDisease.MustGet(),
		rec.SmokingHistory.MustGet(),
		rec.BMI.MustGet(),
		rec.HbA1cLevel.MustGet(),
		rec.BloodGlucoseLevel.MustGet(),
	}

	args := make([]any, len(raw))
	for i, v := range raw {
		bound, err := MatchValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", columns[i], err)
		}
		args[i] = bound
	}
	return args, nil
}

// whereClause joins the equality predicates. placeholder renders the i-th (1-based) parameter.
func whereClause(placeholder func(i int) string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + " = " + placeholder(i+1)
	}
	return strings.Join(parts, " AND ")
}

// RowFromRecord builds a storable row with the same normalisation lookups apply.
func RowFromRecord(rec patient.Record, outcome patient.Outcome) (PatientRow, error) {
	if err := rec.Validate(); err != nil {
		return PatientRow{}, err
	}
	return PatientRow{
		Gender:            rec.Gender.MustGet(),
		Age:               float64(rec.Age.MustGet()),
		Hypertension:      rec.Hypertension.MustGet(),
		HeartDisease:      rec.HeartDisease.MustGet(),
		SmokingHistory:    rec.SmokingHistory.MustGet(),
		BMI:               RoundTenth(rec.BMI.MustGet()),
		HbA1cLevel:        RoundTenth(rec.HbA1cLevel.MustGet()),
		BloodGlucoseLevel: RoundTenth(rec.BloodGlucoseLevel.MustGet()),
		Diabetes:          int(outcome),
	}, nil
}
