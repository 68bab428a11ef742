package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/types"
)

// RegisterUserRequest is the signup payload.
type RegisterUserRequest struct {
	Email         string `json:"email"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	WalletAddress string `json:"walletAddress"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegisterUser creates a new user with a bcrypt password hash.
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "A valid email is required", nil)
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Password must be at least 8 characters", nil)
		return
	}
	if !types.IsWalletAddress(req.WalletAddress) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Not a valid bitcoin address", nil)
		return
	}

	taken, err := s.users.ExistsByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to create user", nil)
		return
	}
	if taken {
		respondError(w, http.StatusConflict, ErrCodeConflict, "Email already registered", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to create user", nil)
		return
	}

	user := &models.User{
		Email:         req.Email,
		Username:      req.Username,
		WalletAddress: req.WalletAddress,
		PasswordHash:  string(hash),
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// handleLogin verifies credentials and returns the user record.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	user, err := s.users.GetByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		// A wrong email and a wrong password must be indistinguishable.
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid email or password", nil)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid email or password", nil)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateWalletRequest is the tracked-address change payload.
type UpdateWalletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// handleUpdateWallet changes the wallet address a user tracks. Callers
// may only change their own address.
func (s *Server) handleUpdateWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if userID != mux.Vars(r)["id"] {
		respondError(w, http.StatusForbidden, ErrCodeForbidden, "Cannot change another user's wallet", nil)
		return
	}

	var req UpdateWalletRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !types.IsWalletAddress(req.WalletAddress) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Not a valid bitcoin address", nil)
		return
	}

	if err := s.users.UpdateWalletAddress(r.Context(), userID, req.WalletAddress); err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"walletAddress": req.WalletAddress})
}

// handleGetUser returns a user by ID.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
