package predictor

import (
	"predictor/internal/apperr"
	"reflect"
	"strings"

	"github.com/gookit/validate"
)

// Validate runs the struct's validate tags and returns every failing field,
// keyed by its json name, as an apperr validation error.
func Validate(form any, message string) error {
	v := validate.Struct(form)
	v.StopOnError = false
	if v.Validate() {
		return nil
	}

	names := jsonNames(form)
	fields := make(map[string]string, len(v.Errors))
	for field, messages := range v.Errors {
		key := field
		if name, ok := names[field]; ok {
			key = name
		}
		for _, msg := range messages {
			fields[key] = msg
			break
		}
	}
	return apperr.Validation(message, fields)
}

// jsonNames maps Go field names (including promoted ones) to json names.
func jsonNames(form any) map[string]string {
	names := map[string]string{}
	t := reflect.TypeOf(form)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return names
	}
	for _, f := range reflect.VisibleFields(t) {
		tag := strings.Split(f.Tag.Get("json"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		names[f.Name] = tag
	}
	return names
}
