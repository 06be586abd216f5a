package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"securereport/config"
	"securereport/core/auth"
	"securereport/core/rbac"
	"securereport/core/store"
	"securereport/core/utils"
)

const (
	msgBadCredentials  = "No active account found with the given credentials"
	msgInvalidRefresh  = "Token is invalid or expired"
	msgEmailNotFound   = "Email not found"
	msgEmailFound      = "Email found. Proceed to reset password."
	msgPasswordsDiffer = "Passwords do not match"
	msgInvalidReset    = "Invalid or expired token"
	msgPasswordUpdated = "Password updated successfully"
)

type AuthHandler struct {
	cfg            *config.AppConfig
	users          store.UsersStore
	sessionManager *auth.SessionManager
	tokens         *auth.TokenManager
	policy         *rbac.Policy
	audits         store.AuditStore
	mailer         auth.Mailer
	logger         *utils.Logger
	now            func() time.Time
}

func NewAuthHandler(cfg *config.AppConfig, users store.UsersStore, sm *auth.SessionManager, tokens *auth.TokenManager, policy *rbac.Policy, audits store.AuditStore, mailer auth.Mailer, logger *utils.Logger) *AuthHandler {
	if mailer == nil {
		mailer = auth.LogMailer{Logger: logger}
	}
	return &AuthHandler{cfg: cfg, users: users, sessionManager: sm, tokens: tokens, policy: policy, audits: audits, mailer: mailer, logger: logger, now: time.Now}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeValidation(w, fields)
		return
	}
	email := utils.NormalizeEmail(req.Email)
	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		h.logger.Errorf("login lookup %s: %v", email, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		auth.DummyVerify(req.Password, h.cfg.Pepper)
		h.loginFailed(r, email, "unknown email")
		writeDetail(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	stored, err := auth.ParsePasswordHash(user.PasswordHash, user.Salt)
	ok := false
	if err == nil {
		ok, err = auth.VerifyPassword(req.Password, h.cfg.Pepper, stored)
	}
	if err != nil || !ok {
		h.loginFailed(r, email, "bad password")
		writeDetail(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	if !user.IsActive() {
		h.loginFailed(r, email, "inactive")
		writeDetail(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	sess, err := h.sessionManager.Create(r.Context(), user, remoteIP(r), r.UserAgent())
	if err != nil {
		h.logger.Errorf("create session for %s: %v", email, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	access, err := h.tokens.IssueAccess(user.ID, sess.ID, user.Role)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	refresh, err := h.tokens.IssueRefresh(user.ID, sess.ID, user.Role)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	now := h.now().UTC()
	if err := h.users.TouchLogin(r.Context(), user.ID, now); err != nil {
		h.logger.Warnf("touch login %s: %v", email, err)
	}
	user.LastLoginAt = &now
	_ = h.audits.Log(r.Context(), user.Email, "auth.login", "")
	writeJSON(w, http.StatusOK, auth.LoginResult{Access: access, Refresh: refresh, User: auth.NewUserDTO(user, h.policy)})
}

func (h *AuthHandler) loginFailed(r *http.Request, email, reason string) {
	h.logger.Printf("AUTH login failed %s from %s: %s", email, remoteIP(r), reason)
	_ = h.audits.Log(r.Context(), email, "auth.login_failed", reason)
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// Refresh trades a refresh token for a new access token while its session is
// live and its user is active.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeValidation(w, fields)
		return
	}
	claims, err := h.tokens.Parse(req.Refresh, auth.TokenTypeRefresh)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, msgInvalidRefresh)
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, msgInvalidRefresh)
		return
	}
	sess, err := h.sessionManager.Validate(r.Context(), claims.SessionID)
	if err != nil || sess.UserID != userID {
		writeDetail(w, http.StatusUnauthorized, msgInvalidRefresh)
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil || user == nil || !user.IsActive() {
		writeDetail(w, http.StatusUnauthorized, msgInvalidRefresh)
		return
	}
	access, err := h.tokens.IssueAccess(user.ID, sess.ID, user.Role)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	_ = h.sessionManager.Touch(r.Context(), sess.ID)
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.sessionManager.Revoke(r.Context(), p.SessionID, p.Email); err != nil {
		h.logger.Errorf("logout %s: %v", p.Email, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	audit(r, h.audits, "auth.logout", "")
	writeDetail(w, http.StatusOK, "Logged out")
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

func (h *AuthHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeValidation(w, fields)
		return
	}
	email := utils.NormalizeEmail(req.Email)
	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		h.logger.Errorf("password reset lookup %s: %v", email, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		writeDetail(w, http.StatusNotFound, msgEmailNotFound)
		return
	}
	token := auth.GenerateResetToken(h.cfg.JWTSecret, user.Email, user.PasswordHash, h.now())
	if err := h.mailer.SendPasswordReset(r.Context(), user.Email, token); err != nil {
		h.logger.Errorf("send password reset to %s: %v", user.Email, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	_ = h.audits.Log(r.Context(), user.Email, "auth.password_reset_requested", "")
	writeDetail(w, http.StatusOK, msgEmailFound)
}

type passwordResetConfirmRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

func (h *AuthHandler) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeValidation(w, fields)
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeDetail(w, http.StatusBadRequest, msgPasswordsDiffer)
		return
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	email, _, err := auth.ParseResetToken(req.Token)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, msgInvalidReset)
		return
	}
	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		writeDetail(w, http.StatusBadRequest, msgInvalidReset)
		return
	}
	if err := auth.VerifyResetToken(h.cfg.JWTSecret, req.Token, user.PasswordHash, h.cfg.ResetTokenTTL, h.now()); err != nil {
		if !errors.Is(err, auth.ErrInvalidResetToken) {
			h.logger.Warnf("verify reset token for %s: %v", email, err)
		}
		writeDetail(w, http.StatusBadRequest, msgInvalidReset)
		return
	}
	ph, err := auth.HashPassword(req.NewPassword, h.cfg.Pepper)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.ID, ph.Hash, ph.Salt); err != nil {
		h.logger.Errorf("update password %s: %v", email, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.sessionManager.RevokeAll(r.Context(), user.ID, "password_reset"); err != nil {
		h.logger.Warnf("revoke sessions for %s: %v", email, err)
	}
	_ = h.audits.Log(r.Context(), user.Email, "auth.password_reset", "")
	writeDetail(w, http.StatusOK, msgPasswordUpdated)
}

// Me returns the caller with effective permissions.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	user, err := h.users.Get(r.Context(), p.UserID)
	if err != nil || user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        auth.NewUserDTO(user, h.policy),
		"roles":       []string{user.Role},
		"permissions": auth.EffectivePermissions(user, h.policy),
		"session_id":  strings.TrimSpace(p.SessionID),
	})
}
