package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// messages maps "<jsonField>.<tag>" to the text shown to API clients.
var messages = map[string]string{
	"title.required":                "Please provide an event title",
	"title.max":                     "Title cannot be more than 100 characters",
	"description.required":          "Please provide an event description",
	"date.required":                 "Please provide an event date",
	"time.required":                 "Please provide an event time",
	"time.max":                      "Time cannot be more than 32 characters",
	"location.required":             "Please provide an event location",
	"category.required":             "Please provide an event category",
	"category.event_category":       "Category must be one of technical, cultural, sports, workshop, seminar",
	"organizer.required":            "Please provide an event organizer",
	"registrationDeadline.required": "Please provide a registration deadline",
	"capacity.required":             "Please provide a capacity",
	"capacity.min":                  "Capacity must be at least 1",
	"name.required":                 "Please provide a name",
	"name.max":                      "Name cannot be more than 60 characters",
	"email.required":                "Please provide an email",
	"email.email":                   "Please provide a valid email",
	"email.max":                     "Email cannot be more than 255 characters",
	"password.required":             "Please provide a password",
	"password.min":                  "Password must be at least 6 characters long",
	"prn.required":                  "Please provide a PRN",
	"prn.max":                       "PRN cannot be more than 64 characters",
	"class.required":                "Please provide a class",
	"class.max":                     "Class cannot be more than 32 characters",
	"division.required":             "Please provide a division",
	"division.max":                  "Division cannot be more than 32 characters",
	"role.user_role":                "Role must be either student or admin",
}

var (
	eventCategories = map[string]struct{}{
		"technical": {}, "cultural": {}, "sports": {}, "workshop": {}, "seminar": {},
	}
	userRoles = map[string]struct{}{"student": {}, "admin": {}}
)

// New returns a validator that reports JSON field names and knows the domain tags.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("event_category", setMember(eventCategories))
	_ = v.RegisterValidation("user_role", setMember(userRoles))
	return v
}

func setMember(set map[string]struct{}) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

// Messages converts a validator error into human readable field messages.
// Non-validation errors yield nil.
func Messages(err error) []string {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return nil
	}
	out := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			out = append(out, msg)
			continue
		}
		out = append(out, fmt.Sprintf("%s is invalid", fe.Field()))
	}
	return out
}
