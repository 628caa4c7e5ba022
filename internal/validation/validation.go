// Package validation turns struct tags into the {msg,param,location} error
// lists returned by the API.
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/devconnector/backend/internal/models"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("daterange", validateDateRange)
	return &Validator{v: v}
}

// Struct validates s and returns one FieldError per failing field, in
// declaration order. A nil result means s is valid.
func (val *Validator) Struct(s any) []models.FieldError {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []models.FieldError{{Msg: err.Error()}}
	}

	t := reflect.Indirect(reflect.ValueOf(s)).Type()
	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Msg:      message(t, fe),
			Param:    fe.Field(),
			Location: "body",
		})
	}
	return out
}

func message(t reflect.Type, fe validator.FieldError) string {
	if f, ok := t.FieldByName(fe.StructField()); ok {
		if msg := f.Tag.Get("msg"); msg != "" {
			return msg
		}
	}
	return fe.Field() + " failed on " + fe.Tag()
}

// validateDateRange checks that a "from" date parses and, when the sibling
// To field is set, is strictly before it.
func validateDateRange(fl validator.FieldLevel) bool {
	from, err := models.ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return true
	}
	toField := parent.FieldByName("To")
	if !toField.IsValid() || toField.Kind() != reflect.String || strings.TrimSpace(toField.String()) == "" {
		return true
	}
	to, err := models.ParseDate(toField.String())
	if err != nil {
		return false
	}
	return from.Before(to)
}
