package statemachine

import (
	"fmt"
	"strings"

	"truebite-api/models"
)

// Actor is the party requesting a transition
type Actor string

const (
	ActorChef     Actor = "chef"
	ActorDelivery Actor = "delivery"
	ActorManager  Actor = "manager"
	ActorCustomer Actor = "customer"
)

// ActorForRole maps a user role onto the actor it plays in the order workflow
func ActorForRole(role models.UserRole) (Actor, bool) {
	switch role {
	case models.RoleChef:
		return ActorChef, true
	case models.RoleDelivery:
		return ActorDelivery, true
	case models.RoleManager:
		return ActorManager, true
	case models.RoleRegistered, models.RoleVIP:
		return ActorCustomer, true
	}
	return "", false
}

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor Actor              `json:"actor"`
}

var terminal = map[models.OrderStatus]bool{
	models.StatusDelivered:      true,
	models.StatusCancelled:      true,
	models.StatusFailedDelivery: true,
}

var nonTerminal = []models.OrderStatus{
	models.StatusCreated,
	models.StatusInKitchen,
	models.StatusReadyForDelivery,
	models.StatusAssigned,
	models.StatusOutForDelivery,
}

// validTransitions is the authoritative state machine definition
var validTransitions = func() []Transition {
	ts := []Transition{
		// Kitchen
		{From: models.StatusCreated, To: models.StatusInKitchen, Actor: ActorChef},
		{From: models.StatusInKitchen, To: models.StatusReadyForDelivery, Actor: ActorChef},
		{From: models.StatusCreated, To: models.StatusCancelled, Actor: ActorChef},
		{From: models.StatusInKitchen, To: models.StatusCancelled, Actor: ActorChef},
		// Only through bid acceptance
		{From: models.StatusReadyForDelivery, To: models.StatusAssigned, Actor: ActorManager},
		// Delivery person
		{From: models.StatusAssigned, To: models.StatusOutForDelivery, Actor: ActorDelivery},
		{From: models.StatusOutForDelivery, To: models.StatusDelivered, Actor: ActorDelivery},
		{From: models.StatusAssigned, To: models.StatusFailedDelivery, Actor: ActorDelivery},
		{From: models.StatusOutForDelivery, To: models.StatusFailedDelivery, Actor: ActorDelivery},
		// Customer may withdraw an order the kitchen has not started
		{From: models.StatusCreated, To: models.StatusCancelled, Actor: ActorCustomer},
	}
	// Manager can abort from anywhere that is not already final
	for _, s := range nonTerminal {
		ts = append(ts,
			Transition{From: s, To: models.StatusCancelled, Actor: ActorManager},
			Transition{From: s, To: models.StatusFailedDelivery, Actor: ActorManager},
		)
	}
	return ts
}()

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor Actor
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// IsTerminal reports whether no transition leaves status
func IsTerminal(status models.OrderStatus) bool {
	return terminal[status]
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// ValidTransitionsFor returns the next states the given actor may choose
func ValidTransitionsFor(status models.OrderStatus, actor Actor) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status && t.Actor == actor {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.OrderStatus, actor Actor) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("%s → %s is not allowed for actor '%s'; valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}
