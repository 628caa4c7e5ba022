package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/devconnector/backend/internal/middleware"
	"github.com/devconnector/backend/internal/models"
	"github.com/devconnector/backend/internal/services"
	"github.com/devconnector/backend/internal/validation"
)

type AuthHandler struct {
	userService   services.UserService
	validator     *validation.Validator
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthHandler(userService services.UserService, v *validation.Validator, jwtSecret string, jwtExpiration time.Duration) *AuthHandler {
	return &AuthHandler{
		userService:   userService,
		validator:     v,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w)
		return
	}
	if errs := h.validator.Struct(&req); errs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorsResponse(errs))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	user, err := h.userService.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("User already exists"))
			return
		}
		serverError(w, r, "register", err)
		return
	}

	h.respondWithToken(w, r, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w)
		return
	}
	if errs := h.validator.Struct(&req); errs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorsResponse(errs))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	user, err := h.userService.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrInvalidPassword) {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid Credentials"))
			return
		}
		serverError(w, r, "login", err)
		return
	}

	h.respondWithToken(w, r, user)
}

// Me returns the caller's user record. The password hash never serializes.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	user, err := h.userService.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewMessageResponse("User not found"))
			return
		}
		serverError(w, r, "auth_me", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := middleware.SignToken(middleware.NewClaims(user.ID, h.jwtExpiration), h.jwtSecret)
	if err != nil {
		serverError(w, r, "sign_token", err)
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{Token: token})
}
