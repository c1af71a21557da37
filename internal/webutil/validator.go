// internal/webutil/validator.go
package webutil

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is the application-wide validator instance.
var Validator *validator.Validate

func init() {
	Validator = validator.New()

	// Report field names by their JSON tag so validation errors match the
	// wire format.
	Validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
