package models

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = func() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}()

// RegisterValidators teaches a validator to compare decimal fields numerically,
// so tags like gte=0 work on money. Used for both the store hooks and gin's binding engine.
func RegisterValidators(v *validator.Validate) {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// Validate checks the struct's validate tags; called from BeforeCreate hooks
func Validate(v interface{}) error {
	return validate.Struct(v)
}
