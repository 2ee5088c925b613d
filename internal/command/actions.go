package command

import (
	"slices"

	"richtext/internal/editor"
)

// Actions tracks which named actions are enabled. Refresh recomputes every
// predicate and reports only the ones that flipped.
type Actions struct {
	names    []string
	disabled map[string]func(*editor.State) bool
	enabled  map[string]bool
}

func NewActions() *Actions {
	return &Actions{
		disabled: map[string]func(*editor.State) bool{},
		enabled:  map[string]bool{},
	}
}

// Register adds a predicate under name. Registering a name twice replaces
// the predicate.
func (a *Actions) Register(name string, disabled func(*editor.State) bool) {
	if _, ok := a.disabled[name]; !ok {
		a.names = append(a.names, name)
	}
	a.disabled[name] = disabled
	delete(a.enabled, name)
}

// RegisterCommand registers cmd under its String.
func (a *Actions) RegisterCommand(cmd Command) {
	a.Register(cmd.String(), cmd.Disabled)
}

func (a *Actions) Names() []string { return slices.Clone(a.names) }

func (a *Actions) Enabled(name string) bool { return a.enabled[name] }

// Refresh recomputes enablement and returns what changed.
func (a *Actions) Refresh(vm *editor.State) map[string]bool {
	mustVM(vm)
	changed := map[string]bool{}
	for _, name := range a.names {
		on := !a.disabled[name](vm)
		if prev, seen := a.enabled[name]; seen && prev == on {
			continue
		}
		a.enabled[name] = on
		changed[name] = on
	}
	return changed
}
