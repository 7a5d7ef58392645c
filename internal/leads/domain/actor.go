package domain

import "strings"

const roleAdmin = "admin"

// Actor is the authenticated caller a service acts on behalf of.
type Actor struct {
	Email string
	Name  string
	Roles []string
}

func (a Actor) IsAdmin() bool {
	for _, r := range a.Roles {
		if strings.EqualFold(r, roleAdmin) {
			return true
		}
	}
	return false
}

// SystemActor is used for changes made by webhooks and background jobs.
var SystemActor = Actor{Email: "system", Name: "System"}
