package patient

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	GenderMale   = "Male"
	GenderFemale = "Female"

	SmokingNever   = "never"
	SmokingFormer  = "former"
	SmokingCurrent = "current"
)

var (
	// ErrMissingField reports a required field that is absent.
	ErrMissingField = errors.New("patient: missing required field")
	// ErrZeroHeight reports a height of zero, which makes BMI undefined.
	ErrZeroHeight = errors.New("patient: height must be greater than zero")
)

// Record is one patient observation. Field order matches the dataset's feature columns.
type Record struct {
	Gender            Opt[string]  `json:"gender" validate:"required,oneof=Male Female"`
	Age               Opt[int]     `json:"age" validate:"required"`
	Hypertension      Opt[int]     `json:"hypertension" validate:"required"`
	HeartDisease      Opt[int]     `json:"heart_disease" validate:"required"`
	SmokingHistory    Opt[string]  `json:"smoking_history" validate:"required,oneof=never former current"`
	BMI               Opt[float64] `json:"bmi" validate:"required"`
	HbA1cLevel        Opt[float64] `json:"hba1c_level" validate:"required"`
	BloodGlucoseLevel Opt[float64] `json:"blood_glucose_level" validate:"required"`
}

// Validate checks that every field is present and that enum fields hold an allowed literal.
// Absent fields are reported as ErrMissingField.
func (r Record) Validate() error {
	err := getValidator().Struct(r)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	var missing, invalid []string
	for _, fe := range ve {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fe.Field()+" failed on "+fe.Tag()+"="+fe.Param())
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return fmt.Errorf("patient: invalid record: %s", strings.Join(invalid, "; "))
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterCustomTypeFunc(optValue, Opt[int]{}, Opt[float64]{}, Opt[string]{})
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

func optValue(field reflect.Value) interface{} {
	if o, ok := field.Interface().(interface{ valuePtr() any }); ok {
		return o.valuePtr()
	}
	return nil
}
