package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/media-catalog/internal/apperror"
	"github.com/sakif/media-catalog/internal/auth"
	"github.com/sakif/media-catalog/internal/service"
)

// AuthHandler serves registration, login and the profile reads.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, validate *validator.Validate, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		validate: validate,
		logger:   logger,
	}
}

type registerRequest struct {
	Username             string `json:"username" validate:"required,max=30"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates an account.
//
// HTTP: POST /register → 202 on success. The response deliberately carries
// no user record; the client logs in next.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, apperror.ValidationFailed("body", err.Error()))
		return
	}

	_, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:             req.Username,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Registration Successful"})
}

// HandleLogin verifies credentials and returns the bearer token.
//
// HTTP: POST /login → 200 with token, or a uniform 401.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		// Malformed credentials get the same uniform response as wrong
		// ones; login reveals nothing about what was wrong.
		writeError(w, apperror.Unauthorized())
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Welcome back, %s", result.User.Username),
		"token":   result.Token,
	})
}

// HandleProfile returns the authenticated user's own profile: the user
// record plus owned media and the media they reviewed.
//
// HTTP: GET /profile (auth required)
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}
	h.writeProfile(w, r, user.ID)
}

// HandleProfileByID returns another user's profile.
//
// HTTP: GET /profile/{id} (auth required)
func (h *AuthHandler) HandleProfileByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "user ID is required"))
		return
	}
	h.writeProfile(w, r, id)
}

func (h *AuthHandler) writeProfile(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
