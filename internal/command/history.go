package command

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"richtext/internal/editor"
)

var (
	ErrNothingToUndo = errors.New("command: nothing to undo")
	ErrNothingToRedo = errors.New("command: nothing to redo")
)

type done struct {
	cmd  Command
	undo Undo
}

// History keeps the undo and redo stacks. Redo applies the command value
// again and keeps the fresh token.
type History struct {
	limit int
	undo  []done
	redo  []done
	log   *zap.Logger
}

// NewHistory keeps at most limit steps; zero or less keeps everything.
func NewHistory(limit int, log *zap.Logger) *History {
	if log == nil {
		log = zap.NewNop()
	}
	return &History{limit: limit, log: log}
}

// Execute applies cmd and records it when it can be reverted.
func (h *History) Execute(vm *editor.State, cmd Command) error {
	token, err := cmd.Apply(vm)
	if err != nil {
		return fmt.Errorf("apply %s: %w", cmd, err)
	}
	if token == nil {
		return nil
	}
	h.push(done{cmd: cmd, undo: token})
	h.redo = h.redo[:0]
	h.log.Debug("executed", zap.Stringer("command", cmd), zap.Int("undo", len(h.undo)))
	return nil
}

func (h *History) push(d done) {
	h.undo = append(h.undo, d)
	if h.limit > 0 && len(h.undo) > h.limit {
		h.undo = append(h.undo[:0], h.undo[len(h.undo)-h.limit:]...)
	}
}

func (h *History) Undo(vm *editor.State) error {
	mustVM(vm)
	if len(h.undo) == 0 {
		return ErrNothingToUndo
	}
	d := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	if err := d.undo.Undo(vm); err != nil {
		return fmt.Errorf("undo %s: %w", d.cmd, err)
	}
	h.redo = append(h.redo, d)
	return nil
}

func (h *History) Redo(vm *editor.State) error {
	mustVM(vm)
	if len(h.redo) == 0 {
		return ErrNothingToRedo
	}
	d := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	token, err := d.cmd.Apply(vm)
	if err != nil {
		return fmt.Errorf("redo %s: %w", d.cmd, err)
	}
	if token != nil {
		h.push(done{cmd: d.cmd, undo: token})
	}
	return nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

func (h *History) Len() int { return len(h.undo) }

func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
