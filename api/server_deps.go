package api

import (
	"database/sql"

	"securereport/core/auth"
	"securereport/core/rbac"
	"securereport/core/reports"
	"securereport/core/store"
	"securereport/core/utils"
)

// ServerDeps lets callers swap collaborators. Zero fields are built from db.
type ServerDeps struct {
	Users        store.UsersStore
	Sessions     store.SessionStore
	Roles        store.RolesStore
	Audits       store.AuditStore
	ReportsStore store.ReportsStore
	Policy       *rbac.Policy
	Mailer       auth.Mailer
	Classifier   reports.SeverityClassifier
}

func (d ServerDeps) withDefaults(db *sql.DB, logger *utils.Logger) ServerDeps {
	if d.Users == nil {
		d.Users = store.NewUsersStore(db)
	}
	if d.Sessions == nil {
		d.Sessions = store.NewSessionsStore(db)
	}
	if d.Roles == nil {
		d.Roles = store.NewRolesStore(db)
	}
	if d.Audits == nil {
		d.Audits = store.NewAuditStore(db)
	}
	if d.ReportsStore == nil {
		d.ReportsStore = store.NewReportsStore(db)
	}
	if d.Policy == nil {
		d.Policy = rbac.NewPolicy(rbac.DefaultRoles())
	}
	if d.Mailer == nil {
		d.Mailer = auth.LogMailer{Logger: logger}
	}
	return d
}
