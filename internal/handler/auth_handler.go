package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"orgsite-client/internal/middleware"
	"orgsite-client/internal/observability"
	"orgsite-client/internal/repository/memory"
)

// Accounts is the account store the auth endpoints need.
type Accounts interface {
	Register(ctx context.Context, reg memory.Registration) (*memory.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthHandler serves /login and /register.
type AuthHandler struct {
	accounts Accounts
}

func NewAuthHandler(accounts Accounts) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// RegisterRequest is the /register body.
type RegisterRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// MsgInvalidCredentials answers both an unknown email and a wrong password.
const MsgInvalidCredentials = "Invalid Credentials, Please Try Again"

// TokenResponse is the OAuth2 password-flow answer of /login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates a member account and answers 201 with its public profile.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	acct, err := h.accounts.Register(r.Context(), memory.Registration{
		Name:     req.Name,
		Phone:    req.PhoneNumber,
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, memory.ErrInvalidInput):
		middleware.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, memory.ErrEmailExists):
		middleware.WriteDetail(w, http.StatusBadRequest, "Email already registered")
		return
	case err != nil:
		observability.FromContext(r.Context()).Error("registration failed", slog.String("error", err.Error()))
		middleware.WriteDetail(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	observability.FromContext(r.Context()).Info("account registered", slog.String("id", acct.ID))
	middleware.WriteJSON(w, http.StatusCreated, acct.Profile())
}

// Login reads the form fields username and password and issues a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteDetail(w, http.StatusUnprocessableEntity, "Invalid form body")
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		middleware.WriteDetail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	token, err := h.accounts.Login(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, memory.ErrInvalidCredentials) {
			observability.FromContext(r.Context()).Error("login failed", slog.String("error", err.Error()))
		}
		// Bad credentials are a 404, never a 401: the client treats 401 as an expired session.
		middleware.WriteDetail(w, http.StatusNotFound, MsgInvalidCredentials)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}
