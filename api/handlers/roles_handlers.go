package handlers

import (
	"net/http"

	"securereport/core/store"
)

type RolesHandler struct {
	roles store.RolesStore
}

func NewRolesHandler(roles store.RolesStore) *RolesHandler {
	return &RolesHandler{roles: roles}
}

func (h *RolesHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.roles.List(r.Context())
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []store.Role{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": items})
}
