package console

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

// defaultPhoneRegion is used when a phone number has no country prefix.
const defaultPhoneRegion = "US"

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber checks the value parses as a dialable phone number.
// Empty values pass; pair with validation.Required when the field is
// mandatory.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, defaultPhoneRegion)
	if err != nil {
		return errors.New("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}

// ValidateRole checks the value is one of the known roles.
func ValidateRole(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	if _, ok := ParseRole(s); !ok {
		return errors.New("must be a known role")
	}

	return nil
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map for rendering.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
