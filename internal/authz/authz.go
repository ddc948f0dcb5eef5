// Package authz holds the single role-based decision table consulted by every
// flow and route guard.
package authz

import (
	"slices"

	"library_api/internal/models"
)

type Action string

const (
	BookViewAny Action = "book.viewAny"
	BookView    Action = "book.view"
	BookCreate  Action = "book.create"
	BookUpdate  Action = "book.update"
	BookDelete  Action = "book.delete"

	UserViewAny    Action = "user.viewAny"
	UserUpdateRole Action = "user.updateRole"

	TokenViewAny Action = "token.viewAny"
	TokenCreate  Action = "token.create"
	TokenDelete  Action = "token.delete"
)

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Subject is the identity a decision is made about.
type Subject struct {
	ID   int64
	Role models.Role
}

type rule struct {
	roles []models.Role
	// cond получает actor и target, если правило зависит от идентичности
	cond func(actor Subject, target *Subject) bool
}

var (
	allRoles = []models.Role{models.RoleAdmin, models.RoleEditor, models.RoleViewer}
	writers  = []models.Role{models.RoleAdmin, models.RoleEditor}
	admins   = []models.Role{models.RoleAdmin}
)

var table = map[Action]rule{
	BookViewAny: {roles: allRoles},
	BookView:    {roles: allRoles},
	BookCreate:  {roles: writers},
	BookUpdate:  {roles: writers},
	BookDelete:  {roles: admins},

	UserViewAny: {roles: admins},
	UserUpdateRole: {
		roles: admins,
		cond: func(actor Subject, target *Subject) bool {
			return target != nil && actor.ID != target.ID
		},
	},

	TokenViewAny: {roles: admins},
	TokenCreate:  {roles: admins},
	TokenDelete:  {roles: admins},
}

// Decide evaluates action for actor against an optional target.
// Unknown actions and roles are denied.
func Decide(actor Subject, action Action, target *Subject) Decision {
	r, ok := table[action]
	if !ok || !actor.Role.IsValid() {
		return Deny
	}

	if !slices.Contains(r.roles, actor.Role) {
		return Deny
	}

	if r.cond != nil && !r.cond(actor, target) {
		return Deny
	}

	return Allow
}

func Allowed(actor Subject, action Action, target *Subject) bool {
	return Decide(actor, action, target) == Allow
}

// SubjectOf builds a Subject from a user record.
func SubjectOf(u models.User) Subject {
	return Subject{ID: u.ID, Role: u.Role}
}
