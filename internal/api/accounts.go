package api

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/echonotes/internal/accounts"
	"github.com/starford/echonotes/internal/apperr"
)

func (h *Handler) accountError(w http.ResponseWriter, op string, err error) {
	var verr validation.Errors
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorDetails("validation failed", verr.Error()))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("User already exists!"))
	case errors.Is(err, apperr.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody("Invalid email or password"))
	case errors.Is(err, apperr.ErrNotLoggedIn):
		writeJSON(w, http.StatusUnauthorized, errorBody("not logged in"))
	default:
		h.storeError(w, op, err)
	}
}

// Register handles POST /api/users/register.
//
//	@Summary		Create an account and log in
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			body	body		accounts.Registration	true	"New account"
//	@Success		201		{object}	UserResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/users/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req accounts.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p, err := h.users.Register(req)
	if err != nil {
		h.accountError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, UserResponse{User: p})
}

// Login handles POST /api/users/login.
//
//	@Summary		Log in
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			body	body		accounts.Credentials	true	"Credentials"
//	@Success		200		{object}	UserResponse
//	@Failure		401		{object}	errResponse
//	@Router			/users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req accounts.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p, err := h.users.Login(req)
	if err != nil {
		h.accountError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: p})
}

// Logout handles POST /api/users/logout.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	if err := h.users.Logout(); err != nil {
		h.accountError(w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/users/me.
func (h *Handler) Me(w http.ResponseWriter, _ *http.Request) {
	p, err := h.users.Current()
	if err != nil {
		h.accountError(w, "current user", err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: p})
}
