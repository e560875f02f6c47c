package formfield

import "testing"

func TestRouteKnownFields(t *testing.T) {
	cases := []struct {
		message string
		want    Field
	}{
		{"First name can't be blank", FieldFirstName},
		{"Last name can't be blank", FieldLastName},
		{"Email has already been taken", FieldEmail},
		{"Phone is invalid", FieldPhone},
		{"Password confirmation doesn't match Password", FieldPasswordConfirmation},
		{"Password is too short (minimum is 8 characters)", FieldPassword},
		{"Something went wrong. Please try again.", FieldGeneral},
	}

	r := SubstringRouter{}
	for _, tc := range cases {
		if got := r.Route(tc.message); got != tc.want {
			t.Errorf("Route(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestRouteIsCaseInsensitive(t *testing.T) {
	r := SubstringRouter{}
	if got := r.Route("EMAIL is invalid"); got != FieldEmail {
		t.Fatalf("got %q", got)
	}
}

// "Invalid email or password." mentions both fields; email wins because it is
// matched first. Screens rely on this to highlight the email input on failed
// logins.
func TestRouteLoginFailureGoesToEmail(t *testing.T) {
	r := SubstringRouter{}
	if got := r.Route("Invalid email or password."); got != FieldEmail {
		t.Fatalf("got %q", got)
	}
}
