package patient

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullQuery() url.Values {
	return url.Values{
		ParamGender:            {"Male"},
		ParamAge:               {"78"},
		ParamHypertension:      {"1"},
		ParamHeartDisease:      {"1"},
		ParamSmoking:           {"current"},
		ParamWeight:            {"116"},
		ParamHeight:            {"175"},
		ParamHbA1cLevel:        {"13"},
		ParamBloodGlucoseLevel: {"190"},
	}
}

func TestFromQueryParsesAllFields(t *testing.T) {
	rec, err := FromQuery(fullQuery())
	require.NoError(t, err)
	require.NoError(t, rec.Validate())

	assert.Equal(t, "Male", rec.Gender.MustGet())
	assert.Equal(t, 78, rec.Age.MustGet())
	assert.Equal(t, 1, rec.Hypertension.MustGet())
	assert.Equal(t, 1, rec.HeartDisease.MustGet())
	assert.Equal(t, "current", rec.SmokingHistory.MustGet())
	assert.InDelta(t, 37.878, rec.BMI.MustGet(), 0.001)
	assert.Equal(t, 13.0, rec.HbA1cLevel.MustGet())
	assert.Equal(t, 190.0, rec.BloodGlucoseLevel.MustGet())
}

func TestFromQueryDigitOnlyCheck(t *testing.T) {
	cases := []struct {
		raw     string
		present bool
		want    int
	}{
		{"42", true, 42},
		{"007", true, 7},
		{"0", true, 0},
		{"98.6", false, 0},
		{"-3", false, 0},
		{" 7", false, 0},
		{"", false, 0},
		{"1e3", false, 0},
		{"99999999999999999999999", false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			q := fullQuery()
			q.Set(ParamAge, tc.raw)

			rec, err := FromQuery(q)
			require.NoError(t, err)

			got, ok := rec.Age.Get()
			assert.Equal(t, tc.present, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFromQueryDecimalFloatFieldIsAbsent(t *testing.T) {
	q := fullQuery()
	q.Set(ParamHbA1cLevel, "13.0")

	rec, err := FromQuery(q)
	require.NoError(t, err)
	assert.False(t, rec.HbA1cLevel.Present())
	assert.ErrorIs(t, rec.Validate(), ErrMissingField)
}

func TestFromQueryEnumsRequireExactLiteral(t *testing.T) {
	q := fullQuery()
	q.Set(ParamGender, "male")
	q.Set(ParamSmoking, "No Info")

	rec, err := FromQuery(q)
	require.NoError(t, err)
	assert.False(t, rec.Gender.Present())
	assert.False(t, rec.SmokingHistory.Present())

	err = rec.Validate()
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "gender")
	assert.Contains(t, err.Error(), "smoking_history")
}

func TestFromQueryMissingWeightOrHeightFails(t *testing.T) {
	for _, key := range []string{ParamWeight, ParamHeight} {
		q := fullQuery()
		q.Del(key)

		_, err := FromQuery(q)
		require.ErrorIs(t, err, ErrMissingField, key)
		assert.Contains(t, err.Error(), key)
	}

	q := fullQuery()
	q.Set(ParamHeight, "0")
	_, err := FromQuery(q)
	assert.ErrorIs(t, err, ErrZeroHeight)
}

func TestBMI(t *testing.T) {
	bmi, err := BMI(70, 175)
	require.NoError(t, err)
	assert.InDelta(t, 22.86, bmi, 0.005)

	_, err = BMI(70, 0)
	assert.ErrorIs(t, err, ErrZeroHeight)
}
