package area

import (
	"go.uber.org/zap"

	"richtext/internal/command"
	"richtext/internal/editor"
)

const (
	ActionUndo = "undo"
	ActionRedo = "redo"
)

func (a *Area) registerActions() {
	for _, c := range []command.Command{
		command.Cut{},
		command.Copy{},
		command.Paste{},
		command.SelectAll{},
		command.Delete{},
		command.Delete{Forward: true},
	} {
		a.actions.RegisterCommand(c)
	}
	a.actions.Register(ActionUndo, func(*editor.State) bool { return !a.history.CanUndo() })
	a.actions.Register(ActionRedo, func(*editor.State) bool { return !a.history.CanRedo() })
}

// OnActionsChanged is called with the actions whose enablement flipped.
func (a *Area) OnActionsChanged(fn func(map[string]bool)) {
	a.onActions = fn
}

func (a *Area) ActionEnabled(name string) bool { return a.actions.Enabled(name) }

func (a *Area) refreshActions() {
	changed := a.actions.Refresh(a.state)
	if len(changed) > 0 && a.onActions != nil {
		a.onActions(changed)
	}
}

// Execute runs cmd through the history.
func (a *Area) Execute(cmd command.Command) error {
	defer a.refreshActions()
	if err := a.history.Execute(a.state, cmd); err != nil {
		a.log.Debug("command failed", zap.Stringer("command", cmd), zap.Error(err))
		return err
	}
	return nil
}

func (a *Area) Undo() error {
	defer a.refreshActions()
	return a.history.Undo(a.state)
}

func (a *Area) Redo() error {
	defer a.refreshActions()
	return a.history.Redo(a.state)
}
