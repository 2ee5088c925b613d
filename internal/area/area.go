package area

import (
	"image"
	"slices"
	"time"

	"go.uber.org/zap"

	"richtext/internal/cache"
	"richtext/internal/command"
	"richtext/internal/config"
	"richtext/internal/editor"
	"richtext/internal/platform"
	"richtext/internal/tile"
	"richtext/pkg/richtext"
)

// Area is the rich text control: the view model, one tile per paragraph,
// the shared resource cache and the command history.
type Area struct {
	state    *editor.State
	res      *cache.Manager
	history  *command.History
	actions  *command.Actions
	settings tile.Settings
	graphic  func(level int, kind richtext.GraphicType) tile.Marker
	width    int
	now      func() time.Time
	log      *zap.Logger

	tiles []*tile.Tile
	sigs  []signature
	tops  []int

	dragStart      int
	lastValidCaret int
	evictEvery     time.Duration
	lastEvict      time.Time
	historyLimit   int
	onActions      func(map[string]bool)
	unsubscribe    func()
}

type Option func(*Area)

func WithLogger(l *zap.Logger) Option {
	return func(a *Area) {
		if l != nil {
			a.log = l
		}
	}
}

// WithClock replaces time.Now, for the caret blink and eviction.
func WithClock(now func() time.Time) Option {
	return func(a *Area) { a.now = now }
}

func WithResources(m *cache.Manager) Option {
	return func(a *Area) { a.res = m }
}

func WithSettings(s tile.Settings) Option {
	return func(a *Area) { a.settings = s }
}

func WithWidth(w int) Option {
	return func(a *Area) { a.width = w }
}

func WithHistoryLimit(n int) Option {
	return func(a *Area) { a.historyLimit = n }
}

func WithEvictInterval(d time.Duration) Option {
	return func(a *Area) { a.evictEvery = d }
}

// WithGraphicFactory picks the list markers. A nil factory draws none.
func WithGraphicFactory(f func(level int, kind richtext.GraphicType) tile.Marker) Option {
	return func(a *Area) { a.graphic = f }
}

// WithConfig applies the editor, layout and cache sections of cfg.
func WithConfig(cfg config.Config) Option {
	return func(a *Area) {
		a.settings = tile.Settings{
			IndentPadding:  cfg.Layout.IndentPadding,
			CaretMinHeight: cfg.Layout.CaretMinHeight,
			CaretHeight:    cfg.Layout.CaretHeight,
			BlinkPeriod:    cfg.Editor.BlinkPeriod.D(),
		}
		a.width = cfg.Layout.Width
		a.evictEvery = cfg.Cache.EvictInterval.D()
		a.historyLimit = cfg.Editor.HistoryLimit
	}
}

// New builds an area over state and lays it out.
func New(state *editor.State, opts ...Option) *Area {
	a := &Area{
		state:          state,
		settings:       tile.DefaultSettings(),
		graphic:        tile.DefaultGraphic,
		width:          600,
		now:            time.Now,
		log:            zap.NewNop(),
		dragStart:      -1,
		lastValidCaret: -1,
		evictEvery:     30 * time.Second,
		actions:        command.NewActions(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.res == nil {
		a.res = cache.NewManager(cache.WithLogger(a.log))
	}
	a.history = command.NewHistory(a.historyLimit, a.log)
	a.lastEvict = a.now()
	a.registerActions()
	a.unsubscribe = state.Subscribe(a.stateChanged)
	a.Refresh()
	a.refreshActions()
	return a
}

// Close detaches the area from its state.
func (a *Area) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	for _, t := range a.tiles {
		t.Reset()
	}
}

func (a *Area) State() *editor.State { return a.state }

func (a *Area) Resources() *cache.Manager { return a.res }

func (a *Area) Graphic(level int, kind richtext.GraphicType) tile.Marker {
	if a.graphic == nil {
		return nil
	}
	return a.graphic(level, kind)
}

func (a *Area) TextFlowPrefWidth() int { return a.width }

func (a *Area) IsLastParagraph(p richtext.Paragraph) bool { return a.state.Document().IsLast(p) }

func (a *Area) DragStart() int { return a.dragStart }

func (a *Area) SetDragStart(pos int) { a.dragStart = pos }

func (a *Area) SetLastValidCaretPosition(pos int) { a.lastValidCaret = pos }

// LastValidCaretPosition is the last offset a caret was drawn at.
func (a *Area) LastValidCaretPosition() int { return a.lastValidCaret }

func (a *Area) RequestFocus() { a.state.SetFocused(true) }

func (a *Area) Now() time.Time { return a.now() }

func (a *Area) Settings() tile.Settings { return a.settings }

func (a *Area) Logger() *zap.Logger { return a.log }

func (a *Area) Tiles() []*tile.Tile { return a.tiles }

func (a *Area) History() *command.History { return a.history }

// SetWidth relays the area out for a new text width.
func (a *Area) SetWidth(w int) {
	if w == a.width || w <= 0 {
		return
	}
	a.width = w
	a.Refresh()
}

// Size is the laid out extent of every tile.
func (a *Area) Size() image.Point {
	if len(a.tiles) == 0 {
		return image.Pt(a.width, 0)
	}
	last := len(a.tiles) - 1
	return image.Pt(a.width, a.tops[last]+a.tiles[last].Size().Y)
}

func (a *Area) stateChanged(c editor.Change) {
	if c.DocumentChanged {
		a.Refresh()
	} else if c.CaretChanged() || c.SelectionChanged() || c.FocusChanged || c.EditableChanged {
		a.UpdateLayout()
	}
	a.refreshActions()
}

// UpdateLayout refreshes caret and selection shapes of every tile.
func (a *Area) UpdateLayout() {
	for _, t := range a.tiles {
		t.UpdateLayout()
	}
}

func (a *Area) HasCaret() bool {
	return slices.ContainsFunc(a.tiles, (*tile.Tile).HasCaret)
}

// tileAt picks the tile covering y, clamping to the first and last.
func (a *Area) tileAt(y int) int {
	if len(a.tiles) == 0 {
		return -1
	}
	i, found := slices.BinarySearch(a.tops, y)
	if !found {
		i--
	}
	return max(0, min(i, len(a.tiles)-1))
}

func (a *Area) MousePressed(ev platform.Event) {
	if i := a.tileAt(ev.Y); i >= 0 {
		a.tiles[i].MousePressed(ev.Localize(image.Pt(0, a.tops[i])))
	}
}

func (a *Area) MouseDragged(ev platform.Event) {
	if i := a.tileAt(ev.Y); i >= 0 {
		a.tiles[i].MouseDragged(ev.Localize(image.Pt(0, a.tops[i])))
	}
}

// NextRowPosition is the offset one visual row below or above the caret,
// crossing into the neighbouring paragraph at its first or last row. It is
// -1 without a caret.
func (a *Area) NextRowPosition(x int, down bool) int {
	for i, t := range a.tiles {
		pos, ok := t.NextRowPosition(x, down)
		if !ok {
			continue
		}
		if pos != a.state.CaretPosition() {
			return pos
		}
		col := x
		if col < 0 {
			col = t.CaretX()
		}
		switch {
		case down && i+1 < len(a.tiles):
			if p, ok := a.tiles[i+1].PositionAt(image.Pt(col, 0)); ok {
				return p
			}
		case !down && i > 0:
			prev := a.tiles[i-1]
			if p, ok := prev.PositionAt(image.Pt(col, prev.Size().Y-1)); ok {
				return p
			}
		}
		return pos
	}
	return -1
}

// Tick advances the caret blink and evicts unused resources when the
// interval has passed.
func (a *Area) Tick(now time.Time) {
	for _, t := range a.tiles {
		t.Tick(now)
	}
	if a.evictEvery > 0 && now.Sub(a.lastEvict) >= a.evictEvery {
		a.lastEvict = now
		a.EvictUnusedResources()
	}
}

// EvictUnusedResources drops every font and image no live layer uses.
func (a *Area) EvictUnusedResources() {
	live := cache.NewUsage()
	for _, t := range a.tiles {
		live.Merge(t.UsedResources())
	}
	a.res.Evict(live)
}
