package app

import (
	"fmt"
	"image"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"richtext/internal/area"
	"richtext/internal/cache"
	"richtext/internal/config"
	"richtext/internal/editor"
	"richtext/internal/platform"
	"richtext/internal/render"
	"richtext/internal/ui"
	"richtext/pkg/richtext"
)

const windowTitle = "Rich text area"

type App struct {
	cfg   config.Config
	log   *zap.Logger
	theme ui.Theme

	state  *editor.State
	area   *area.Area
	images *imageClipboard

	frameBuffer *render.FrameBuffer
	page        *render.FrameBuffer
	canvas      *ebiten.Image
	uiFace      font.Face
	layout      ui.Layout

	toolbar  []toolButton
	clicks   *platform.ClickCounter
	dragging bool
	column   int

	uiScales   []float32
	uiScaleIdx int
	status     string

	scrollY float64
	maxY    float64

	screenW int
	screenH int
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := []cache.ManagerOption{cache.WithLogger(log), cache.WithScale(cfg.Layout.Scale)}
	if cfg.Cache.GoFonts {
		faces, err := cache.GoFonts()
		if err != nil {
			return nil, fmt.Errorf("load go fonts: %w", err)
		}
		opts = append(opts, cache.WithFontFactory(faces))
	}
	res := cache.NewManager(opts...)

	state := editor.NewState(welcomeDocument(),
		editor.WithClipboard(&systemClipboard{}),
		editor.WithLogger(log),
		editor.WithEditable(!cfg.Editor.ReadOnly))
	a := &App{
		cfg:      cfg,
		log:      log,
		theme:    ui.ThemeFrom(cfg.Theme),
		state:    state,
		images:   newImageClipboard(log),
		uiFace:   basicfont.Face7x13,
		clicks:   platform.NewClickCounter(),
		column:   -1,
		uiScales: []float32{1.0, 1.25, 1.5, 2.0},
		status:   "Ready",
	}
	a.area = area.New(state,
		area.WithConfig(cfg),
		area.WithResources(res),
		area.WithLogger(log.Named("area")))
	a.area.OnActionsChanged(func(changed map[string]bool) {
		log.Debug("actions changed", zap.Any("actions", changed))
	})
	state.SetFocused(true)
	state.SetCaretPosition(0)
	return a, nil
}

func (a *App) Run() error {
	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowSize(1280, 800)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(640, 480, -1, -1)
	defer a.area.Close()
	if err := ebiten.RunGame(a); err != nil {
		return fmt.Errorf("run game loop: %w", err)
	}
	return nil
}

func (a *App) Update() error {
	now := time.Now()
	if done := a.handleKeys(); done {
		return ebiten.Termination
	}
	a.handlePointer(now)
	a.handleWheel()
	a.area.Tick(now)
	a.clampScroll()
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if a.frameBuffer == nil {
		a.frameBuffer = render.NewFrameBuffer(w, h)
	}
	if a.canvas == nil || a.frameBuffer.W != w || a.frameBuffer.H != h {
		a.frameBuffer.Resize(w, h)
		a.canvas = ebiten.NewImage(w, h)
	}

	a.layout = ui.DrawShell(a.frameBuffer, a.theme, a.uiScales[a.uiScaleIdx], a.uiFace, windowTitle)
	content := a.layout.Content
	a.area.SetWidth(content.Dx())
	a.layoutToolbar()
	a.drawToolbar()

	if a.page == nil {
		a.page = render.NewFrameBuffer(content.Dx(), content.Dy())
	}
	a.page.Resize(content.Dx(), content.Dy())
	a.page.Clear(a.theme.Page)
	a.area.Paint(a.page, image.Pt(0, -int(a.scrollY)), a.theme)
	a.frameBuffer.DrawImage(a.page, content)
	ui.DrawScroll(a.frameBuffer, a.layout, a.theme, int(a.scrollY), a.area.Size().Y)

	ui.DrawStatus(a.frameBuffer, a.layout, a.theme, a.uiFace, a.statusLine())

	a.canvas.WritePixels(a.frameBuffer.Pixels)
	screen.DrawImage(a.canvas, nil)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	outsideWidth = max(outsideWidth, 640)
	outsideHeight = max(outsideHeight, 480)
	a.screenW = outsideWidth
	a.screenH = outsideHeight
	return outsideWidth, outsideHeight
}

func (a *App) statusLine() string {
	sel := a.state.Selection()
	where := fmt.Sprintf("[ Caret %d ]", a.state.CaretPosition())
	if sel.IsDefined() {
		where = fmt.Sprintf("[ Selection %d-%d ]", sel.Start, sel.End)
	}
	res := a.area.Resources()
	return fmt.Sprintf("%s [ %d paragraphs ] [ %d fonts, %d images ] [ %s ]",
		where, len(a.state.Paragraphs()), res.FontCount(), res.ImageCount(), a.status)
}

// toArea maps window coordinates into the area's.
func (a *App) toArea(x, y int) image.Point {
	c := a.layout.Content.Min
	return image.Pt(x-c.X, y-c.Y+int(a.scrollY))
}

func (a *App) inContent(x, y int) bool {
	return image.Pt(x, y).In(a.layout.Content)
}

func (a *App) clampScroll() {
	a.maxY = float64(max(a.area.Size().Y-a.layout.Content.Dy(), 0))
	a.scrollY = max(0, min(a.scrollY, a.maxY))
}

func (a *App) bumpUIScale(delta int) {
	a.uiScaleIdx = max(0, min(a.uiScaleIdx+delta, len(a.uiScales)-1))
	a.status = fmt.Sprintf("UI scale %.0f%%", a.uiScales[a.uiScaleIdx]*100)
}

func (a *App) report(what string, err error) {
	if err != nil {
		a.status = what + " failed: " + err.Error()
		a.log.Debug(what+" failed", zap.Error(err))
		return
	}
	a.status = what
}

// currentParagraph is the decoration of the paragraph holding the caret.
func (a *App) currentParagraph() richtext.ParagraphDecoration {
	return a.state.Document().ParagraphAt(max(a.state.CaretPosition(), 0)).Decoration
}
