package tile

import (
	"time"

	"go.uber.org/zap"

	"richtext/internal/cache"
	"richtext/internal/editor"
	"richtext/pkg/richtext"
)

// Host is the control a tile draws for. The area implements it.
type Host interface {
	State() *editor.State
	Resources() *cache.Manager
	Graphic(level int, kind richtext.GraphicType) Marker
	TextFlowPrefWidth() int
	IsLastParagraph(p richtext.Paragraph) bool
	DragStart() int
	SetDragStart(pos int)
	SetLastValidCaretPosition(pos int)
	RequestFocus()
	Now() time.Time
	Settings() Settings
	Logger() *zap.Logger
}

type Settings struct {
	IndentPadding int
	// Carets shorter than CaretMinHeight are stretched to CaretHeight.
	CaretMinHeight int
	CaretHeight    int
	BlinkPeriod    time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		IndentPadding:  20,
		CaretMinHeight: 5,
		CaretHeight:    16,
		BlinkPeriod:    time.Second,
	}
}

// IndexRangeColor paints [Start, End) with Color. Offsets are document
// offsets.
type IndexRangeColor struct {
	Start int
	End   int
	Color richtext.Color
}
