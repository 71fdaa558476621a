package enums

import "strings"

type ActionType string

const (
	ActionLike      ActionType = "like"
	ActionSuperLike ActionType = "super_like"
	ActionRewind    ActionType = "rewind"
	ActionBoost     ActionType = "boost"
)

func AllActionTypes() []ActionType {
	return []ActionType{ActionLike, ActionSuperLike, ActionRewind, ActionBoost}
}

func ParseActionType(input string) (ActionType, bool) {
	switch ActionType(strings.ToLower(strings.TrimSpace(input))) {
	case ActionLike:
		return ActionLike, true
	case ActionSuperLike:
		return ActionSuperLike, true
	case ActionRewind:
		return ActionRewind, true
	case ActionBoost:
		return ActionBoost, true
	default:
		return "", false
	}
}

func (a ActionType) Valid() bool {
	_, ok := ParseActionType(string(a))
	return ok
}

// Targeted actions point at another user and feed the like ledger.
func (a ActionType) Targeted() bool {
	return a == ActionLike || a == ActionSuperLike
}
