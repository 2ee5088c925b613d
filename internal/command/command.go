package command

import (
	"errors"
	"fmt"

	"richtext/internal/editor"
	"richtext/pkg/richtext"
)

var ErrDisabled = errors.New("command: disabled")

// Command is a user action on the view model. Apply performs it and returns
// the token that reverts it, or nil when there is nothing to revert.
// Disabled must only read vm.
type Command interface {
	Apply(vm *editor.State) (Undo, error)
	Disabled(vm *editor.State) bool
	String() string
}

// Undo reverts exactly one Apply.
type Undo interface {
	Undo(vm *editor.State) error
}

func mustVM(vm *editor.State) {
	if vm == nil {
		panic("command: nil view model")
	}
}

func checkEnabled(c Command, vm *editor.State) error {
	mustVM(vm)
	if c.Disabled(vm) {
		return fmt.Errorf("%s: %w", c, ErrDisabled)
	}
	return nil
}

// restoreView puts the whole view model back, document included.
type restoreView struct {
	view editor.ViewSnapshot
}

func (u restoreView) Undo(vm *editor.State) error {
	mustVM(vm)
	vm.Restore(u.view)
	return nil
}

// restoreCaret puts back selection, caret and staged decoration only.
type restoreCaret struct {
	selection richtext.Selection
	caret     int
	staged    richtext.TextDecoration
	hasStaged bool
}

func captureCaret(vm *editor.State) restoreCaret {
	d, ok := vm.StagedDecoration()
	return restoreCaret{selection: vm.Selection(), caret: vm.CaretPosition(), staged: d, hasStaged: ok}
}

func (u restoreCaret) Undo(vm *editor.State) error {
	mustVM(vm)
	vm.SetSelection(u.selection)
	vm.SetCaretPosition(u.caret)
	vm.RestoreStagedDecoration(u.staged, u.hasStaged)
	return nil
}

// Decorate applies a decoration. A text decoration with nothing selected is
// staged for the next typed text instead.
type Decorate struct {
	Decoration richtext.Decoration
}

func (c Decorate) String() string { return fmt.Sprintf("decorate(%T)", c.Decoration) }

func (c Decorate) Disabled(vm *editor.State) bool {
	return !vm.Editable() || c.Decoration == nil
}

func (c Decorate) staged(vm *editor.State) bool {
	_, text := c.Decoration.(richtext.TextDecoration)
	return text && !vm.Selection().IsDefined()
}

func (c Decorate) Apply(vm *editor.State) (Undo, error) {
	if err := checkEnabled(c, vm); err != nil {
		return nil, err
	}
	if c.staged(vm) {
		prev, ok := vm.StagedDecoration()
		vm.SetDecorationAtCaret(c.Decoration.(richtext.TextDecoration))
		return stagedUndo{prev: prev, ok: ok}, nil
	}
	before := captureCaret(vm)
	doc := vm.Decorate(c.Decoration)
	return appliedUndo{before: before, doc: doc}, nil
}

type stagedUndo struct {
	prev richtext.TextDecoration
	ok   bool
}

func (u stagedUndo) Undo(vm *editor.State) error {
	mustVM(vm)
	vm.RestoreStagedDecoration(u.prev, u.ok)
	return nil
}

type appliedUndo struct {
	before restoreCaret
	doc    richtext.Snapshot
}

func (u appliedUndo) Undo(vm *editor.State) error {
	mustVM(vm)
	vm.RestoreDecoration(u.doc)
	return u.before.Undo(vm)
}

// Copy puts the selected text on the clipboard.
type Copy struct{}

func (Copy) String() string { return "copy" }

func (Copy) Disabled(vm *editor.State) bool { return !vm.Selection().IsDefined() }

func (c Copy) Apply(vm *editor.State) (Undo, error) {
	if err := checkEnabled(c, vm); err != nil {
		return nil, err
	}
	return nil, vm.ClipboardCopy(false)
}

// Cut copies the selection and deletes it as one step.
type Cut struct{}

func (Cut) String() string { return "cut" }

func (Cut) Disabled(vm *editor.State) bool {
	return !vm.Selection().IsDefined() || !vm.Editable()
}

func (c Cut) Apply(vm *editor.State) (Undo, error) {
	if err := checkEnabled(c, vm); err != nil {
		return nil, err
	}
	before := vm.Snapshot()
	if err := vm.ClipboardCopy(true); err != nil {
		return nil, err
	}
	return restoreView{view: before}, nil
}

type Paste struct{}

func (Paste) String() string { return "paste" }

func (Paste) Disabled(vm *editor.State) bool { return !vm.Editable() }

func (c Paste) Apply(vm *editor.State) (Undo, error) {
	if err := checkEnabled(c, vm); err != nil {
		return nil, err
	}
	before := vm.Snapshot()
	if err := vm.Paste(); err != nil {
		return nil, err
	}
	return restoreView{view: before}, nil
}

// InsertText types Text over the selection or at the caret.
type InsertText struct {
	Text string
}

func (c InsertText) String() string { return fmt.Sprintf("insert(%q)", c.Text) }

func (c InsertText) Disabled(vm *editor.State) bool { return !vm.Editable() || c.Text == "" }

func (c InsertText) Apply(vm *editor.State) (Undo, error) {
	if err := checkEnabled(c, vm); err != nil {
		return nil, err
	}
	before := vm.Snapshot()
	if err := vm.InsertText(c.Text); err != nil {
		return nil, err
	}
	return restoreView{view: before}, nil
}

// Delete removes the selection, or one grapheme before (or after, when
// Forward) the caret.
type Delete struct {
	Forward bool
}

func (c Delete) String() string {
	if c.Forward {
		return "delete-forward"
	}
	return "delete-backward"
}

func (c Delete) Disabled(vm *editor.State) bool {
	if !vm.Editable() {
		return true
	}
	if vm.Selection().IsDefined() {
		return false
	}
	caret := vm.CaretPosition()
	if caret < 0 {
		return true
	}
	if c.Forward {
		return caret >= vm.Len()
	}
	return caret == 0
}

func (c Delete) Apply(vm *editor.State) (Undo, error) {
	if err := checkEnabled(c, vm); err != nil {
		return nil, err
	}
	before := vm.Snapshot()
	start, end := c.span(vm)
	if _, err := vm.DeleteRange(start, end); err != nil {
		return nil, err
	}
	return restoreView{view: before}, nil
}

func (c Delete) span(vm *editor.State) (int, int) {
	if sel := vm.Selection(); sel.IsDefined() {
		return sel.Start, sel.End
	}
	caret := vm.CaretPosition()
	if c.Forward {
		return caret, vm.GraphemeOffset(caret, 1)
	}
	return vm.GraphemeOffset(caret, -1), caret
}

type SelectAll struct{}

func (SelectAll) String() string { return "select-all" }

func (SelectAll) Disabled(vm *editor.State) bool { return vm.Len() == 0 }

func (c SelectAll) Apply(vm *editor.State) (Undo, error) {
	if err := checkEnabled(c, vm); err != nil {
		return nil, err
	}
	before := captureCaret(vm)
	vm.SelectAll()
	return before, nil
}

// InsertTable adds an empty Rows x Columns table at the caret.
type InsertTable struct {
	Rows    int
	Columns int
}

func (c InsertTable) String() string { return fmt.Sprintf("insert-table(%dx%d)", c.Rows, c.Columns) }

func (c InsertTable) Disabled(vm *editor.State) bool {
	return !vm.Editable() || c.Rows <= 0 || c.Columns <= 0
}

func (c InsertTable) Apply(vm *editor.State) (Undo, error) {
	if err := checkEnabled(c, vm); err != nil {
		return nil, err
	}
	before := vm.Snapshot()
	if err := vm.InsertTable(c.Rows, c.Columns); err != nil {
		return nil, err
	}
	return restoreView{view: before}, nil
}
