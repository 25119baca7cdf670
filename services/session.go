package services

import (
	"truebite-api/models"
	"truebite-api/statemachine"
)

// Session is the authenticated caller, passed explicitly to every operation
type Session struct {
	UserID string
	Name   string
	Role   models.UserRole
}

func (s Session) require(roles ...models.UserRole) error {
	for _, r := range roles {
		if s.Role == r {
			return nil
		}
	}
	return forbiddenf("role %q may not perform this action", s.Role)
}

func (s Session) requireCustomer() error {
	if !s.Role.IsCustomer() {
		return forbiddenf("role %q is not a customer", s.Role)
	}
	return nil
}

func (s Session) actor() (statemachine.Actor, error) {
	a, ok := statemachine.ActorForRole(s.Role)
	if !ok {
		return "", forbiddenf("role %q takes no part in the order workflow", s.Role)
	}
	return a, nil
}
