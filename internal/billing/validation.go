package billing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator checks a bill before it is sent to the backend
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the bill validation tags
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimals are validated through their string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			return d.String()
		case decimal.NullDecimal:
			if !d.Valid {
				return "0"
			}
			return d.Decimal.String()
		}
		return nil
	}, decimal.Decimal{}, decimal.NullDecimal{})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "documentkind", func(fl validator.FieldLevel) bool {
		return entity.DocumentKind(fl.Field().String()).IsValid()
	})
	mustRegister(v, "decimal_gte0", nonNegativeDecimal)
	mustRegister(v, "nulldecimal_gte0", nonNegativeDecimal)

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register %s validation: %v", tag, err))
	}
}

func nonNegativeDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && !d.IsNegative()
}

// ValidateBill returns *port.ValidationError keyed by json field path
// (e.g. "items[0].quantity") or nil
func (v *Validator) ValidateBill(bill *entity.Bill) error {
	if bill == nil {
		return port.NewValidationError("bill", "bill is required")
	}

	err := v.v.Struct(bill)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate bill: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = message(fe)
	}
	return &port.ValidationError{Fields: fields}
}

// fieldPath drops the root struct name from a namespace
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "min":
		return fmt.Sprintf("needs at least %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "documentkind":
		return "unknown document kind"
	case "decimal_gte0", "nulldecimal_gte0":
		return "must not be negative"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
