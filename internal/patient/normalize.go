package patient

import (
	"fmt"
	"net/url"
	"strconv"
)

// Query parameter names accepted by FromQuery.
const (
	ParamAge               = "age"
	ParamWeight            = "weight"
	ParamHeight            = "height"
	ParamHbA1cLevel        = "hb1acLevel"
	ParamHeartDisease      = "heartDisease"
	ParamBloodGlucoseLevel = "bloodGlucoseLevel"
	ParamGender            = "gender"
	ParamHypertension      = "hypertension"
	ParamSmoking           = "smoking"
)

var (
	genders = []string{GenderMale, GenderFemale}
	smoking = []string{SmokingNever, SmokingFormer, SmokingCurrent}
)

// FromQuery converts raw query parameters into a Record. Fields that fail their check are left
// absent without error; only the derived BMI can fail, when weight or height is absent or the
// height is zero.
func FromQuery(q url.Values) (Record, error) {
	rec := Record{
		Gender:            parseEnum(q.Get(ParamGender), genders),
		Age:               parseDigitsInt(q.Get(ParamAge)),
		Hypertension:      parseDigitsInt(q.Get(ParamHypertension)),
		HeartDisease:      parseDigitsInt(q.Get(ParamHeartDisease)),
		SmokingHistory:    parseEnum(q.Get(ParamSmoking), smoking),
		HbA1cLevel:        parseDigitsFloat(q.Get(ParamHbA1cLevel)),
		BloodGlucoseLevel: parseDigitsFloat(q.Get(ParamBloodGlucoseLevel)),
	}

	weight, okWeight := parseDigitsFloat(q.Get(ParamWeight)).Get()
	height, okHeight := parseDigitsFloat(q.Get(ParamHeight)).Get()
	switch {
	case !okWeight && !okHeight:
		return rec, fmt.Errorf("%w: weight, height", ErrMissingField)
	case !okWeight:
		return rec, fmt.Errorf("%w: weight", ErrMissingField)
	case !okHeight:
		return rec, fmt.Errorf("%w: height", ErrMissingField)
	}

	bmi, err := BMI(weight, height)
	if err != nil {
		return rec, err
	}
	rec.BMI = Some(bmi)
	return rec, nil
}

// BMI returns weight / (height in metres)². Height is given in centimetres.
func BMI(weightKg, heightCm float64) (float64, error) {
	if heightCm == 0 {
		return 0, ErrZeroHeight
	}
	m := heightCm / 100
	return weightKg / (m * m), nil
}

// isDigits reports whether s is non-empty and made only of ASCII decimal digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseDigitsInt(raw string) Opt[int] {
	if !isDigits(raw) {
		return None[int]()
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return None[int]()
	}
	return Some(v)
}

func parseDigitsFloat(raw string) Opt[float64] {
	if !isDigits(raw) {
		return None[float64]()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return None[float64]()
	}
	return Some(v)
}

func parseEnum(raw string, allowed []string) Opt[string] {
	for _, a := range allowed {
		if raw == a {
			return Some(raw)
		}
	}
	return None[string]()
}
