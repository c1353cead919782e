package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	// Return periods are calendar months.
	periodPattern = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)
)

func IsGSTIN(s string) bool { return gstinPattern.MatchString(s) }

func IsPAN(s string) bool { return panPattern.MatchString(s) }

func IsPeriod(s string) bool { return periodPattern.MatchString(s) }

// PANOfGSTIN returns the PAN embedded in characters 3-12 of a GSTIN.
func PANOfGSTIN(gstin string) string {
	if len(gstin) != 15 {
		return ""
	}
	return gstin[2:12]
}

// Register adds the gstin, pan and period tags to v.
func Register(v *validator.Validate) error {
	rules := map[string]func(string) bool{
		"gstin":  IsGSTIN,
		"pan":    IsPAN,
		"period": IsPeriod,
	}
	for tag, fn := range rules {
		match := fn
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return match(fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}
