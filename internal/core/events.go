package core

import "time"

// Entity names the kind of record a ChangeEvent refers to.
type Entity string

const (
	EntityExpense Entity = "expense"
	EntityBudget  Entity = "budget"
)

// Action is what happened to the record.
type Action string

const (
	ActionUpserted Action = "upserted"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
)

// ChangeEvent announces a committed write. Key is the expense id or the
// budget category. Consumers re-read current state rather than trusting the
// event payload.
type ChangeEvent struct {
	Entity    Entity    `json:"entity"`
	Action    Action    `json:"action"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeEvent stamps an event with the current UTC time.
func NewChangeEvent(entity Entity, action Action, key string) ChangeEvent {
	return ChangeEvent{Entity: entity, Action: action, Key: key, Timestamp: time.Now().UTC()}
}

// Validate reports whether the event names a known entity and action.
func (e ChangeEvent) Validate() error {
	ve := &ValidationError{}
	switch e.Entity {
	case EntityExpense, EntityBudget:
	default:
		ve.Add("entity", "must be expense or budget")
	}
	switch e.Action {
	case ActionUpserted, ActionUpdated, ActionDeleted:
	default:
		ve.Add("action", "must be upserted, updated or deleted")
	}
	if e.Key == "" {
		ve.Add("key", "is required")
	}
	return ve.OrNil()
}
