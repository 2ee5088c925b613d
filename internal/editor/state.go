package editor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"richtext/pkg/richtext"
)

// NoCaret is the caret position of an unfocused or read-only area.
const NoCaret = -1

const maxPublishPasses = 8

var ErrNotEditable = errors.New("editor: area is not editable")

type Option func(*State)

func WithClipboard(c Clipboard) Option {
	return func(s *State) { s.clipboard = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *State) {
		if l != nil {
			s.log = l
		}
	}
}

func WithEditable(editable bool) Option {
	return func(s *State) { s.editable = editable }
}

// Change describes one published state transition.
type Change struct {
	PrevSelection   richtext.Selection
	Selection       richtext.Selection
	PrevCaret       int
	Caret           int
	DocumentChanged bool
	EditableChanged bool
	FocusChanged    bool
}

func (c Change) SelectionChanged() bool { return c.PrevSelection != c.Selection }

func (c Change) CaretChanged() bool { return c.PrevCaret != c.Caret }

type observed struct {
	selection richtext.Selection
	caret     int
	version   uint64
	editable  bool
	focused   bool
}

type subscriber struct {
	id int
	fn func(Change)
}

// State is the view model of the area: the document plus selection, caret,
// editability, focus and the decoration staged for the next typed text.
type State struct {
	doc       *richtext.Document
	selection richtext.Selection
	caret     int
	editable  bool
	focused   bool
	staged    *richtext.TextDecoration
	clipboard Clipboard
	log       *zap.Logger

	lastDecoration *richtext.Snapshot

	subscribers []subscriber
	nextSubID   int
	committed   observed
	publishing  bool
	pending     bool
}

func NewState(doc *richtext.Document, opts ...Option) *State {
	if doc == nil {
		doc = richtext.NewDocument()
	}
	s := &State{
		doc:       doc,
		selection: richtext.Undefined,
		caret:     0,
		editable:  true,
		clipboard: &MemoryClipboard{},
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.committed = s.observe()
	return s
}

func (s *State) Document() *richtext.Document { return s.doc }

func (s *State) Paragraphs() []richtext.Paragraph { return s.doc.Paragraphs() }

func (s *State) Len() int { return s.doc.Len() }

func (s *State) Selection() richtext.Selection { return s.selection }

func (s *State) CaretPosition() int { return s.caret }

func (s *State) Editable() bool { return s.editable }

func (s *State) Focused() bool { return s.focused }

func (s *State) Clipboard() Clipboard { return s.clipboard }

// Subscribe registers fn for every published change and returns a function
// removing it.
func (s *State) Subscribe(fn func(Change)) func() {
	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (s *State) SetEditable(editable bool) {
	s.editable = editable
	s.publish()
}

func (s *State) SetFocused(focused bool) {
	s.focused = focused
	s.publish()
}

// SetCaretPosition clamps pos to [0, Len()]. Negative values remove the caret.
// Moving the caret drops any staged decoration.
func (s *State) SetCaretPosition(pos int) {
	s.setCaret(pos)
	s.publish()
}

func (s *State) setCaret(pos int) {
	if pos < 0 {
		pos = NoCaret
	} else if pos > s.doc.Len() {
		pos = s.doc.Len()
	}
	if pos != s.caret {
		s.staged = nil
	}
	s.caret = pos
}

// SetSelection clamps sel to the document.
func (s *State) SetSelection(sel richtext.Selection) {
	s.selection = sel.Clamp(s.doc.Len())
	s.publish()
}

func (s *State) ClearSelection() {
	s.selection = richtext.Undefined
	s.publish()
}

func (s *State) SelectCurrentWord() {
	if s.caret < 0 {
		return
	}
	start, end := s.doc.WordAt(s.caret)
	s.selection = richtext.NewSelection(start, end)
	if s.selection.IsDefined() {
		s.setCaret(end)
	}
	s.publish()
}

func (s *State) SelectCurrentParagraph() {
	if s.caret < 0 {
		return
	}
	p := s.doc.ParagraphAt(s.caret)
	end := p.End
	if !s.doc.IsLast(p) {
		end--
	}
	s.selection = richtext.NewSelection(p.Start, end)
	s.setCaret(end)
	s.publish()
}

func (s *State) SelectAll() {
	s.selection = richtext.NewSelection(0, s.doc.Len())
	s.setCaret(s.doc.Len())
	s.publish()
}

// MoveCaret steps n grapheme clusters (negative is backwards) and clears the
// selection.
func (s *State) MoveCaret(n int) {
	pos := s.caret
	if pos < 0 {
		pos = 0
	}
	s.selection = richtext.Undefined
	s.setCaret(graphemeStep(s.doc, pos, n))
	s.publish()
}

// StagedDecoration returns the decoration staged for the next typed text.
func (s *State) StagedDecoration() (richtext.TextDecoration, bool) {
	if s.staged == nil {
		return richtext.TextDecoration{}, false
	}
	return *s.staged, true
}

// DecorationAtCaret is what text typed at the caret will be decorated with.
func (s *State) DecorationAtCaret() richtext.TextDecoration {
	if s.staged != nil {
		return *s.staged
	}
	return s.doc.DecorationAt(s.caret)
}

func (s *State) SetDecorationAtCaret(d richtext.TextDecoration) {
	s.staged = &d
	s.publish()
}

// RestoreStagedDecoration puts back a value read by StagedDecoration.
func (s *State) RestoreStagedDecoration(d richtext.TextDecoration, ok bool) {
	if !ok {
		s.staged = nil
	} else {
		s.staged = &d
	}
	s.publish()
}

// Decorate applies d to the document for the current selection and caret.
// It returns the prior document state; only the latest one is also kept
// for UndoDecoration.
func (s *State) Decorate(d richtext.Decoration) richtext.Snapshot {
	at := s.caret
	if s.selection.IsDefined() {
		at = s.selection.Start
	}
	before := s.doc.Len()
	snap := s.doc.Decorate(s.selection, max(at, 0), d)
	s.lastDecoration = &snap
	if grown := s.doc.Len() - before; grown > 0 {
		s.selection = richtext.Undefined
		s.setCaret(max(at, 0) + grown)
	}
	s.log.Debug("decorated", zap.String("decoration", fmt.Sprintf("%T", d)), zap.Int("caret", s.caret))
	s.publish()
	return snap
}

// UndoDecoration reverts the last Decorate. Without one it does nothing.
func (s *State) UndoDecoration() {
	if s.lastDecoration == nil {
		s.log.Debug("no decoration to undo")
		return
	}
	s.RestoreDecoration(*s.lastDecoration)
}

// RestoreDecoration puts the document back to snap, as returned by Decorate.
func (s *State) RestoreDecoration(snap richtext.Snapshot) {
	s.lastDecoration = nil
	s.doc.Restore(snap)
	s.selection = s.selection.Clamp(s.doc.Len())
	if s.caret > s.doc.Len() {
		s.caret = s.doc.Len()
	}
	s.publish()
}

// InsertText replaces the selection, or inserts at the caret, with text
// decorated by DecorationAtCaret.
func (s *State) InsertText(text string) error {
	if !s.editable {
		return ErrNotEditable
	}
	deco := s.DecorationAtCaret()
	if s.selection.IsDefined() {
		s.doc.Delete(s.selection.Start, s.selection.End)
		s.caret = s.selection.Start
		s.selection = richtext.Undefined
	}
	pos := max(s.caret, 0)
	n := s.doc.Insert(pos, text, deco)
	s.staged = nil
	s.caret = pos + n
	s.publish()
	return nil
}

// DeleteRange removes [start, end) and puts the caret at start.
func (s *State) DeleteRange(start, end int) (string, error) {
	if !s.editable {
		return "", ErrNotEditable
	}
	removed := s.doc.Delete(start, end)
	s.selection = richtext.Undefined
	s.setCaret(min(start, end))
	s.publish()
	return removed, nil
}

// ClipboardCopy puts the selected text on the clipboard and, for a cut on an
// editable area, removes it.
func (s *State) ClipboardCopy(isCut bool) error {
	sel := s.selection
	if !sel.IsDefined() {
		return nil
	}
	if err := s.clipboard.SetText(s.doc.Text(sel.Start, sel.End)); err != nil {
		return fmt.Errorf("copy selection: %w", err)
	}
	if !isCut || !s.editable {
		return nil
	}
	s.doc.Delete(sel.Start, sel.End)
	s.selection = richtext.Undefined
	s.setCaret(sel.Start)
	s.publish()
	return nil
}

// InsertTable adds an empty rows x columns table at the caret and puts the
// caret in its first cell.
func (s *State) InsertTable(rows, columns int) error {
	if !s.editable {
		return ErrNotEditable
	}
	if rows <= 0 || columns <= 0 {
		return fmt.Errorf("insert table %dx%d: %w", rows, columns, richtext.ErrOutOfRange)
	}
	p := s.doc.InsertTable(max(s.caret, 0), rows, columns)
	s.selection = richtext.Undefined
	s.setCaret(p.Start)
	s.publish()
	return nil
}

// Paste inserts the clipboard text at the caret.
func (s *State) Paste() error {
	text, err := s.clipboard.Text()
	if err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	if text == "" {
		return nil
	}
	return s.InsertText(text)
}

// ViewSnapshot captures everything a reversible command may change.
type ViewSnapshot struct {
	doc       richtext.Snapshot
	selection richtext.Selection
	caret     int
	staged    *richtext.TextDecoration
}

func (s *State) Snapshot() ViewSnapshot {
	vs := ViewSnapshot{doc: s.doc.Snapshot(), selection: s.selection, caret: s.caret}
	if s.staged != nil {
		d := *s.staged
		vs.staged = &d
	}
	return vs
}

func (s *State) Restore(vs ViewSnapshot) {
	s.doc.Restore(vs.doc)
	s.selection = vs.selection.Clamp(s.doc.Len())
	s.caret = min(vs.caret, s.doc.Len())
	s.staged = vs.staged
	s.publish()
}

func (s *State) observe() observed {
	return observed{
		selection: s.selection,
		caret:     s.caret,
		version:   s.doc.Version(),
		editable:  s.editable,
		focused:   s.focused,
	}
}

// publish diffs the observable state against the last published one and
// notifies subscribers once. Mutations made by a subscriber are folded into a
// follow-up pass instead of recursing.
func (s *State) publish() {
	if s.publishing {
		s.pending = true
		return
	}
	s.publishing = true
	defer func() { s.publishing = false }()
	for pass := 0; pass < maxPublishPasses; pass++ {
		s.pending = false
		cur := s.observe()
		prev := s.committed
		if cur == prev {
			return
		}
		s.committed = cur
		ch := Change{
			PrevSelection:   prev.selection,
			Selection:       cur.selection,
			PrevCaret:       prev.caret,
			Caret:           cur.caret,
			DocumentChanged: prev.version != cur.version,
			EditableChanged: prev.editable != cur.editable,
			FocusChanged:    prev.focused != cur.focused,
		}
		for _, sub := range append([]subscriber(nil), s.subscribers...) {
			sub.fn(ch)
		}
		if !s.pending {
			return
		}
	}
	s.log.Warn("state change loop cut short", zap.Int("passes", maxPublishPasses))
}
