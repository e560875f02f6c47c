// Package formfield decides which form field an error message belongs to, so
// screens can attach server-side failures to the right input.
package formfield

import "strings"

// Field identifies an input on the login/signup forms.
type Field string

const (
	FieldFirstName            Field = "firstName"
	FieldLastName             Field = "lastName"
	FieldEmail                Field = "email"
	FieldPhone                Field = "phone"
	FieldPasswordConfirmation Field = "passwordConfirmation"
	FieldPassword             Field = "password"
	// FieldGeneral is the catch-all banner above the form.
	FieldGeneral Field = "general"
)

// Router maps an error message to a form field. It exists as an interface so
// the substring matching below can later be replaced by structured
// field-level error codes without touching callers.
type Router interface {
	Route(message string) Field
}

// SubstringRouter matches known keywords in the message text. The match
// order is fixed and observable behavior: "password confirmation" must be
// tried before "password", and name fields before "email", or messages land
// on the wrong input.
type SubstringRouter struct{}

func (SubstringRouter) Route(message string) Field {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "first name"):
		return FieldFirstName
	case strings.Contains(msg, "last name"):
		return FieldLastName
	case strings.Contains(msg, "email"):
		return FieldEmail
	case strings.Contains(msg, "phone"):
		return FieldPhone
	case strings.Contains(msg, "password confirmation"):
		return FieldPasswordConfirmation
	case strings.Contains(msg, "password"):
		return FieldPassword
	default:
		return FieldGeneral
	}
}
