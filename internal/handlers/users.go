package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"gotodo/internal/models"
	"gotodo/internal/session"
	"gotodo/internal/store"
)

const minPasswordLength = 6

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *registerRequest) validate() map[string]string {
	fieldErrors := map[string]string{}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		fieldErrors["username"] = "username is required"
	}
	if !validEmail(req.Email) {
		fieldErrors["email"] = "invalid email address"
	}
	if len(req.Password) < minPasswordLength {
		fieldErrors["password"] = "password must be at least 6 characters long"
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

func validEmail(address string) bool {
	if address == "" {
		return false
	}
	parsed, err := mail.ParseAddress(address)
	return err == nil && parsed.Address == address
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fieldErrors := req.validate(); fieldErrors != nil {
		respondValidation(w, fieldErrors)
		return
	}

	user := &models.User{Username: req.Username, Email: req.Email}
	if err := s.users.Create(r.Context(), user, req.Password); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, http.StatusConflict, "user with email or username already exists")
			return
		}
		s.log.Error().Err(err).Msg("create user")
		respondError(w, http.StatusInternalServerError, "error creating the user")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"message": "user registered successfully"})
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	fieldErrors := map[string]string{}
	if identifier == "" {
		fieldErrors["username"] = "username or email is required"
	}
	if len(req.Password) < minPasswordLength {
		fieldErrors["password"] = "password must be at least 6 characters long"
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	userID, err := s.sessions.Authenticate(r.Context(), identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrUserNotFound), errors.Is(err, session.ErrInvalidCredentials):
			// One public answer for both causes so login cannot be used to
			// probe which accounts exist.
			s.log.Debug().Err(err).Str("identifier", identifier).Msg("login rejected")
			respondError(w, http.StatusUnauthorized, "invalid username or password")
		default:
			s.log.Error().Err(err).Msg("authenticate")
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	pair, err := s.sessions.Issue(r.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("issue session tokens")
		respondError(w, http.StatusInternalServerError, "error generating tokens")
		return
	}

	user, err := s.users.ByID(r.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("load user after login")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.setTokenCookies(w, pair)
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "user logged in successfully",
		"user":    user.Identity(),
		"token":   pair.AccessToken,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	if err := s.sessions.Revoke(r.Context(), identity.ID); err != nil {
		s.log.Error().Err(err).Msg("revoke session")
		respondError(w, http.StatusInternalServerError, "error logging out user")
		return
	}

	s.clearTokenCookies(w)
	respondJSON(w, http.StatusOK, map[string]any{"message": "user logged out successfully"})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		presented = cookie.Value
	}
	if presented == "" && r.Body != nil {
		var req refreshRequest
		// Body is optional; the cookie is the usual transport.
		_ = decodeJSON(r, &req)
		presented = req.RefreshToken
	}

	pair, err := s.sessions.Rotate(r.Context(), presented)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrMissingToken),
			errors.Is(err, session.ErrInvalidToken),
			errors.Is(err, session.ErrUserNotFound),
			errors.Is(err, session.ErrTokenMismatch):
			// Precise cause stays in the log; the caller only learns the
			// session is no longer usable.
			s.log.Debug().Err(err).Msg("refresh rejected")
			respondError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		default:
			s.log.Error().Err(err).Msg("rotate session tokens")
			respondError(w, http.StatusInternalServerError, "error generating tokens")
		}
		return
	}

	s.setTokenCookies(w, pair)
	respondJSON(w, http.StatusOK, map[string]any{"message": "access token refreshed successfully"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": identity})
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" && req.Email == "" {
		respondError(w, http.StatusBadRequest, "username or email is required")
		return
	}
	if req.Email != "" && !validEmail(req.Email) {
		respondValidation(w, map[string]string{"email": "invalid email address"})
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), identity.ID, req.Username, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, store.ErrDuplicate):
			respondError(w, http.StatusConflict, "username or email already in use")
		default:
			s.log.Error().Err(err).Msg("update profile")
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "user details updated successfully",
		"user":    user.Identity(),
	})
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	var req updatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fieldErrors := map[string]string{}
	if len(req.OldPassword) < minPasswordLength {
		fieldErrors["oldPassword"] = "old password must be at least 6 characters long"
	}
	if len(req.NewPassword) < minPasswordLength {
		fieldErrors["newPassword"] = "new password must be at least 6 characters long"
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	if _, err := s.sessions.Authenticate(r.Context(), identity.Username, req.OldPassword); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			respondError(w, http.StatusBadRequest, "invalid current password")
			return
		}
		if errors.Is(err, session.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		s.log.Error().Err(err).Msg("verify current password")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.users.UpdatePassword(r.Context(), identity.ID, req.NewPassword); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		s.log.Error().Err(err).Msg("update password")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"message": "password changed successfully"})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing access token")
		return
	}

	if err := s.users.Delete(r.Context(), identity.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		s.log.Error().Err(err).Msg("delete user")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.clearTokenCookies(w)
	respondJSON(w, http.StatusOK, map[string]any{"message": "user deleted successfully"})
}
