package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"securereport/config"
	"securereport/core/auth"
	"securereport/core/rbac"
	"securereport/core/store"
	"securereport/core/utils"
)

const (
	msgEmailTaken       = "A user with this email already exists."
	msgSelfDelete       = "You cannot delete your own account."
	msgSelfDeactivate   = "You cannot deactivate your own account."
	msgUserNotFound     = "Not found."
	msgInvalidEmailAddr = "Enter a valid email address."
)

type AccountsHandler struct {
	cfg            *config.AppConfig
	users          store.UsersStore
	sessionManager *auth.SessionManager
	policy         *rbac.Policy
	audits         store.AuditStore
	logger         *utils.Logger
}

func NewAccountsHandler(cfg *config.AppConfig, users store.UsersStore, sm *auth.SessionManager, policy *rbac.Policy, audits store.AuditStore, logger *utils.Logger) *AccountsHandler {
	return &AccountsHandler{cfg: cfg, users: users, sessionManager: sm, policy: policy, audits: audits, logger: logger}
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	FullName string `json:"full_name" validate:"max=150"`
	Role     string `json:"role" validate:"required,oneof=Admin Employee Viewer"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,max=254"`
	FullName *string `json:"full_name" validate:"omitempty,max=150"`
	Role     *string `json:"role" validate:"omitempty,oneof=Admin Employee Viewer"`
	Status   *string `json:"status" validate:"omitempty,oneof=active inactive"`
	Password *string `json:"password"`
}

func (h *AccountsHandler) dtos(users []store.User) []*auth.UserDTO {
	out := make([]*auth.UserDTO, 0, len(users))
	for i := range users {
		out = append(out, auth.NewUserDTO(&users[i], h.policy))
	}
	return out
}

func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Errorf("list users: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.dtos(users))
}

func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		writeDetail(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, auth.NewUserDTO(user, h.policy))
}

func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeValidation(w, fields)
		return
	}
	email := utils.NormalizeEmail(req.Email)
	if err := utils.ValidateEmail(email); err != nil {
		writeDetail(w, http.StatusBadRequest, msgInvalidEmailAddr)
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if taken, err := h.emailTaken(r, email, 0); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	} else if taken {
		writeDetail(w, http.StatusBadRequest, msgEmailTaken)
		return
	}
	ph, err := auth.HashPassword(req.Password, h.cfg.Pepper)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	status := req.Status
	if status == "" {
		status = store.UserStatusActive
	}
	user := &store.User{
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Status:       status,
		PasswordHash: ph.Hash,
		Salt:         ph.Salt,
	}
	id, err := h.users.Create(r.Context(), user)
	if err != nil {
		h.logger.Errorf("create user %s: %v", email, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	user.ID = id
	created, err := h.users.Get(r.Context(), id)
	if err == nil && created != nil {
		user = created
	}
	audit(r, h.audits, "accounts.user_create", fmt.Sprintf("%s role=%s", email, user.Role))
	writeJSON(w, http.StatusCreated, auth.NewUserDTO(user, h.policy))
}

func (h *AccountsHandler) emailTaken(r *http.Request, email string, exceptID int64) (bool, error) {
	existing, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		return false, err
	}
	return existing != nil && existing.ID != exceptID, nil
}

// Update applies a partial change to another account. Admins cannot
// deactivate themselves; a deactivated or re-keyed account loses its sessions.
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeValidation(w, fields)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		writeDetail(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	self := principal(r)
	if self != nil && self.UserID == id && req.Status != nil && *req.Status != store.UserStatusActive {
		writeDetail(w, http.StatusBadRequest, msgSelfDeactivate)
		return
	}
	revoke := false
	if req.Email != nil {
		email := utils.NormalizeEmail(*req.Email)
		if err := utils.ValidateEmail(email); err != nil {
			writeDetail(w, http.StatusBadRequest, msgInvalidEmailAddr)
			return
		}
		taken, err := h.emailTaken(r, email, id)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if taken {
			writeDetail(w, http.StatusBadRequest, msgEmailTaken)
			return
		}
		user.Email = email
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		if *req.Status != user.Status && *req.Status == store.UserStatusInactive {
			revoke = true
		}
		user.Status = *req.Status
	}
	if req.Password != nil {
		if err := h.setPassword(r, user, *req.Password); err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		revoke = true
	}
	if err := h.users.Update(r.Context(), user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeDetail(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.logger.Errorf("update user %d: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if revoke && (self == nil || self.UserID != id) {
		if err := h.sessionManager.RevokeAll(r.Context(), id, actorName(r)); err != nil {
			h.logger.Warnf("revoke sessions of user %d: %v", id, err)
		}
	}
	audit(r, h.audits, "accounts.user_update", fmt.Sprintf("%d %s role=%s status=%s", id, user.Email, user.Role, user.Status))
	writeJSON(w, http.StatusOK, auth.NewUserDTO(user, h.policy))
}

var errPasswordPolicy = errors.New("password does not meet policy")

func (h *AccountsHandler) setPassword(r *http.Request, user *store.User, password string) error {
	if err := utils.ValidatePassword(password); err != nil {
		return err
	}
	ph, err := auth.HashPassword(password, h.cfg.Pepper)
	if err != nil {
		return errPasswordPolicy
	}
	if err := h.users.UpdatePassword(r.Context(), user.ID, ph.Hash, ph.Salt); err != nil {
		return err
	}
	user.PasswordHash, user.Salt = ph.Hash, ph.Salt
	return nil
}

func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if self := principal(r); self != nil && self.UserID == id {
		writeDetail(w, http.StatusBadRequest, msgSelfDelete)
		return
	}
	if err := h.sessionManager.RevokeAll(r.Context(), id, actorName(r)); err != nil {
		h.logger.Warnf("revoke sessions of user %d: %v", id, err)
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeDetail(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.logger.Errorf("delete user %d: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	audit(r, h.audits, "accounts.user_delete", fmt.Sprintf("%d", id))
	w.WriteHeader(http.StatusNoContent)
}

type updateAccountRequest struct {
	Email    *string `json:"email" validate:"omitempty,max=254"`
	FullName *string `json:"full_name" validate:"omitempty,max=150"`
	Password *string `json:"password"`
}

func (h *AccountsHandler) Account(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, auth.NewUserDTO(user, h.policy))
}

// UpdateAccount is self-service: role and status in the body are ignored.
func (h *AccountsHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeValidation(w, fields)
		return
	}
	user, err := h.users.Get(r.Context(), p.UserID)
	if err != nil || user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if req.Email != nil {
		email := utils.NormalizeEmail(*req.Email)
		if err := utils.ValidateEmail(email); err != nil {
			writeDetail(w, http.StatusBadRequest, msgInvalidEmailAddr)
			return
		}
		taken, err := h.emailTaken(r, email, user.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if taken {
			writeDetail(w, http.StatusBadRequest, msgEmailTaken)
			return
		}
		user.Email = email
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Password != nil {
		if err := h.setPassword(r, user, *req.Password); err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := h.users.Update(r.Context(), user); err != nil {
		h.logger.Errorf("update account %d: %v", user.ID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	audit(r, h.audits, "accounts.self_update", user.Email)
	writeJSON(w, http.StatusOK, auth.NewUserDTO(user, h.policy))
}
