package indexing

import (
	"fmt"
	"strings"
)

// Action is the lifecycle event that triggers indexing.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionPublish  Action = "publish"
	ActionReindex  Action = "reindex"
	ActionDeletion Action = "deletion"
)

// ParseAction parses an action name, ignoring case. "delete" is accepted
// for ActionDeletion.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionCreate, ActionUpdate, ActionPublish, ActionReindex, ActionDeletion:
		return a, nil
	case "delete":
		return ActionDeletion, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionPublish, ActionReindex, ActionDeletion:
		return true
	}
	return false
}

// UnmarshalText accepts any spelling ParseAction accepts.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// IsWrite reports whether the action reflects a change in the store, which
// invalidates cached variants.
func (a Action) IsWrite() bool {
	return a != ActionReindex
}
