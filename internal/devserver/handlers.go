package devserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	invalidCredentialsMessage = "Invalid email or password."
	minPasswordLength         = 8
	defaultCountryCode        = "+1"
)

// Handler implements the auth endpoints of the remote contract.
type Handler struct {
	repo    Repository
	issuer  *TokenIssuer
	revoker Revoker
	logger  *slog.Logger
}

// NewHandler wires the auth endpoints.
func NewHandler(repo Repository, issuer *TokenIssuer, revoker Revoker, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, issuer: issuer, revoker: revoker, logger: logger}
}

type userBody struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	CountryCode          string `json:"country_code"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	CurrentPassword      string `json:"current_password"`
	NewPassword          string `json:"new_password"`
}

type authRequest struct {
	User userBody `json:"user"`
}

// Register creates an account and answers with the login envelope.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req authRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if errs := validateSignup(req.User); len(errs) > 0 {
		return validationFailed(c, errs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.User.Password), bcrypt.DefaultCost)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	countryCode := strings.TrimSpace(req.User.CountryCode)
	if countryCode == "" {
		countryCode = defaultCountryCode
	}

	user, err := h.repo.Create(c.UserContext(), User{
		Email:        strings.TrimSpace(req.User.Email),
		FirstName:    strings.TrimSpace(req.User.FirstName),
		LastName:     strings.TrimSpace(req.User.LastName),
		Phone:        strings.TrimSpace(req.User.Phone),
		CountryCode:  countryCode,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, ErrEmailTaken) {
		return validationFailed(c, []string{"Email has already been taken"})
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	h.logger.Info("account registered", "user_id", user.ID)
	return c.Status(http.StatusCreated).JSON(successEnvelope("Signed up.", user, token))
}

// Login checks credentials and answers with the login envelope. Unknown
// emails and wrong passwords are indistinguishable on the wire.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req authRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.repo.FindByEmail(c.UserContext(), strings.TrimSpace(req.User.Email))
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, invalidCredentialsMessage)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.User.Password)); err != nil {
		return fiber.NewError(http.StatusUnauthorized, invalidCredentialsMessage)
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	h.logger.Info("login", "user_id", user.ID)
	return c.Status(http.StatusOK).JSON(successEnvelope("Logged in.", user, token))
}

// Logout revokes the presented token for its remaining lifetime.
func (h *Handler) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals(localToken).(string)
	expires, _ := c.Locals(localTokenExpiry).(time.Time)

	if err := h.revoker.Revoke(c.UserContext(), token, time.Until(expires)); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Logged out.",
	})
}

// UpdatePassword verifies the current password and stores the new one. The
// presented token stays valid.
func (h *Handler) UpdatePassword(c *fiber.Ctx) error {
	var req authRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, _ := c.Locals(localUser).(User)
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.User.CurrentPassword)); err != nil {
		return validationFailed(c, []string{"Current password is incorrect"})
	}
	if len(req.User.NewPassword) < minPasswordLength {
		return validationFailed(c, []string{"Password is too short (minimum is 8 characters)"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.User.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if err := h.repo.UpdatePassword(c.UserContext(), user.ID, hash); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	h.logger.Info("password updated", "user_id", user.ID)
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Password updated.",
	})
}

func validateSignup(u userBody) []string {
	var errs []string
	if strings.TrimSpace(u.FirstName) == "" {
		errs = append(errs, "First name can't be blank")
	}
	if strings.TrimSpace(u.LastName) == "" {
		errs = append(errs, "Last name can't be blank")
	}
	email := strings.TrimSpace(u.Email)
	if email == "" {
		errs = append(errs, "Email can't be blank")
	} else if !strings.Contains(email, "@") {
		errs = append(errs, "Email is invalid")
	}
	if strings.TrimSpace(u.Phone) == "" {
		errs = append(errs, "Phone can't be blank")
	}
	if u.Password == "" {
		errs = append(errs, "Password can't be blank")
	} else if len(u.Password) < minPasswordLength {
		errs = append(errs, "Password is too short (minimum is 8 characters)")
	}
	if u.Password != u.PasswordConfirmation {
		errs = append(errs, "Password confirmation doesn't match Password")
	}
	return errs
}

// validationFailed uses the errors-list body shape; the client joins the list
// and routes individual entries to form fields.
func validationFailed(c *fiber.Ctx, errs []string) error {
	return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errs,
	})
}

func successEnvelope(message string, user User, token string) fiber.Map {
	return fiber.Map{
		"status":  "success",
		"message": message,
		"data": fiber.Map{
			"user":  userPayload(user),
			"token": token,
		},
	}
}

func userPayload(u User) fiber.Map {
	return fiber.Map{
		"id":           u.ID,
		"email":        u.Email,
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"full_name":    u.FullName(),
		"phone":        u.Phone,
		"country_code": u.CountryCode,
		"full_phone":   u.FullPhone(),
	}
}
