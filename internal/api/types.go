package api

// User is the normalized identity record the rest of the application works
// with. It is derived from the service's snake_case payloads and never built
// by callers directly.
type User struct {
	ID          int64
	Email       string
	FirstName   string
	LastName    string
	FullName    string
	Phone       string
	CountryCode string
	FullPhone   string
}

// SignupRequest carries the fields the registration form collects. All fields
// are required except CountryCode, which defaults when blank.
type SignupRequest struct {
	FirstName            string
	LastName             string
	Email                string
	Phone                string
	CountryCode          string
	Password             string
	PasswordConfirmation string
}

// AuthResult is what a successful login or registration yields.
type AuthResult struct {
	Token string
	User  User
}

// remoteUser mirrors the service's user payload field for field.
type remoteUser struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code"`
	FullPhone   string `json:"full_phone"`
}

// successEnvelope is the wrapper the service puts around auth responses.
type successEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		User  remoteUser `json:"user"`
		Token string     `json:"token"`
	} `json:"data"`
}

// normalizeUser maps the remote shape onto User. The mapping is total:
// missing optional fields stay zero-valued, never an error.
func normalizeUser(r remoteUser) User {
	return User{
		ID:          r.ID,
		Email:       r.Email,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		FullName:    r.FullName,
		Phone:       r.Phone,
		CountryCode: r.CountryCode,
		FullPhone:   r.FullPhone,
	}
}
