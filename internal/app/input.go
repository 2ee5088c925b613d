package app

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sqweek/dialog"

	"richtext/internal/cache"
	"richtext/internal/command"
	"richtext/internal/platform"
	"richtext/pkg/richtext"
)

func modifiers() platform.Modifiers {
	var m platform.Modifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		m |= platform.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		m |= platform.ModControl | platform.ModShortcut
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		m |= platform.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		m |= platform.ModMeta | platform.ModShortcut
	}
	return m
}

func heldButtons() platform.Buttons {
	var b platform.Buttons
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		b |= platform.HeldPrimary
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle) {
		b |= platform.HeldMiddle
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		b |= platform.HeldSecondary
	}
	return b
}

// repeating reports a key press, repeating while the key is held.
func repeating(k ebiten.Key) bool {
	d := inpututil.KeyPressDuration(k)
	return d == 1 || (d > 30 && d%3 == 0)
}

func (a *App) handlePointer(now time.Time) {
	x, y := ebiten.CursorPosition()
	mods := modifiers()
	for _, b := range []ebiten.MouseButton{ebiten.MouseButtonLeft, ebiten.MouseButtonMiddle, ebiten.MouseButtonRight} {
		if !inpututil.IsMouseButtonJustPressed(b) {
			continue
		}
		if b == ebiten.MouseButtonLeft {
			if id, ok := a.toolAt(x, y); ok {
				a.invoke(id)
				return
			}
		}
		if !a.inContent(x, y) {
			a.state.SetFocused(false)
			continue
		}
		pt := a.toArea(x, y)
		ev := platform.Event{
			Type:      platform.EventMouseDown,
			X:         pt.X,
			Y:         pt.Y,
			Button:    pointerButton(b),
			Held:      heldButtons(),
			Modifiers: mods,
		}
		if b == ebiten.MouseButtonLeft {
			ev.ClickCount = a.clicks.Press(now, image.Pt(x, y))
			a.dragging = true
		}
		a.column = -1
		a.area.MousePressed(ev)
	}
	if a.dragging && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		pt := a.toArea(x, y)
		a.area.MouseDragged(platform.Event{
			Type:      platform.EventMouseDrag,
			X:         pt.X,
			Y:         pt.Y,
			Button:    platform.ButtonPrimary,
			Held:      heldButtons(),
			Modifiers: mods,
		})
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		a.dragging = false
	}
}

func pointerButton(b ebiten.MouseButton) platform.Button {
	switch b {
	case ebiten.MouseButtonLeft:
		return platform.ButtonPrimary
	case ebiten.MouseButtonMiddle:
		return platform.ButtonMiddle
	case ebiten.MouseButtonRight:
		return platform.ButtonSecondary
	}
	return platform.ButtonNone
}

func (a *App) handleWheel() {
	_, wy := ebiten.Wheel()
	if wy != 0 {
		a.scrollY -= wy * 42
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageDown) {
		a.scrollY += float64(a.layout.Content.Dy()) * 0.8
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageUp) {
		a.scrollY -= float64(a.layout.Content.Dy()) * 0.8
	}
}

// handleKeys maps the keyboard onto area commands. It reports true when the
// window should close.
func (a *App) handleKeys() bool {
	mods := modifiers()
	shortcut := mods.Any(platform.ModShortcut)
	shift := mods.Has(platform.ModShift)

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if a.state.Selection().IsDefined() {
			a.state.ClearSelection()
			return false
		}
		return true
	}
	if !a.state.Focused() {
		return false
	}

	if shortcut {
		bindings := []struct {
			key   ebiten.Key
			shift bool
			id    string
		}{
			{ebiten.KeyZ, false, "undo"},
			{ebiten.KeyY, false, "redo"},
			{ebiten.KeyZ, true, "redo"},
			{ebiten.KeyX, false, "cut"},
			{ebiten.KeyC, false, "copy"},
			{ebiten.KeyV, false, "paste"},
			{ebiten.KeyA, false, "select-all"},
			{ebiten.KeyB, false, "bold"},
			{ebiten.KeyI, false, "italic"},
			{ebiten.KeyU, false, "underline"},
			{ebiten.KeyK, false, "strike"},
			{ebiten.KeyH, true, "highlight"},
			{ebiten.KeyL, false, "align-left"},
			{ebiten.KeyE, false, "align-center"},
			{ebiten.KeyR, false, "align-right"},
			{ebiten.KeyDigit7, true, "numbered"},
			{ebiten.KeyDigit8, true, "bulleted"},
			{ebiten.KeyT, false, "table"},
			{ebiten.KeyI, true, "image"},
			{ebiten.KeyC, true, "copy-image"},
			{ebiten.KeyV, true, "paste-image"},
			{ebiten.KeyPeriod, false, "font-up"},
			{ebiten.KeyComma, false, "font-down"},
			{ebiten.KeyEqual, false, "scale-up"},
			{ebiten.KeyMinus, false, "scale-down"},
		}
		for _, b := range bindings {
			if b.shift == shift && inpututil.IsKeyJustPressed(b.key) {
				a.invoke(b.id)
				return false
			}
		}
	}

	switch {
	case repeating(ebiten.KeyArrowLeft):
		a.moveHorizontal(-1, shift)
	case repeating(ebiten.KeyArrowRight):
		a.moveHorizontal(1, shift)
	case repeating(ebiten.KeyArrowUp):
		a.moveVertical(false, shift)
	case repeating(ebiten.KeyArrowDown):
		a.moveVertical(true, shift)
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		a.moveTo(a.rowEdge(false), shift)
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		a.moveTo(a.rowEdge(true), shift)
	}
	if shortcut {
		return false
	}

	switch {
	case repeating(ebiten.KeyBackspace):
		a.run(command.Delete{})
	case repeating(ebiten.KeyDelete):
		a.run(command.Delete{Forward: true})
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter), inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter):
		a.run(command.InsertText{Text: "\n"})
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		a.indent(shift)
	}

	var typed []rune
	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 0x20 || !utf8.ValidRune(r) {
			continue
		}
		typed = append(typed, r)
	}
	if len(typed) > 0 {
		a.run(command.InsertText{Text: string(typed)})
	}
	return false
}

func (a *App) run(cmd command.Command) {
	if err := a.area.Execute(cmd); err != nil {
		if !errors.Is(err, command.ErrDisabled) {
			a.report(cmd.String(), err)
		}
		return
	}
	a.column = -1
}

// invoke runs a named toolbar or shortcut action.
func (a *App) invoke(id string) {
	switch id {
	case "undo":
		if err := a.area.Undo(); err != nil && !errors.Is(err, command.ErrNothingToUndo) {
			a.report("Undo", err)
		}
	case "redo":
		if err := a.area.Redo(); err != nil && !errors.Is(err, command.ErrNothingToRedo) {
			a.report("Redo", err)
		}
	case "cut":
		a.run(command.Cut{})
	case "copy":
		a.run(command.Copy{})
	case "paste":
		a.run(command.Paste{})
	case "select-all":
		a.run(command.SelectAll{})
	case "bold", "italic", "underline", "strike", "highlight", "font-up", "font-down":
		a.run(command.Decorate{Decoration: a.toggledText(id)})
	case "align-left":
		a.run(command.Decorate{Decoration: a.currentParagraph().WithAlignment(richtext.AlignLeft)})
	case "align-center":
		a.run(command.Decorate{Decoration: a.currentParagraph().WithAlignment(richtext.AlignCenter)})
	case "align-right":
		a.run(command.Decorate{Decoration: a.currentParagraph().WithAlignment(richtext.AlignRight)})
	case "numbered":
		a.toggleList(richtext.GraphicNumberedList)
	case "bulleted":
		a.toggleList(richtext.GraphicBulletedList)
	case "table":
		a.run(command.InsertTable{Rows: 2, Columns: 3})
	case "image":
		a.insertImageFromFile()
	case "copy-image":
		a.copyImage()
	case "paste-image":
		a.pasteImage()
	case "scale-up":
		a.bumpUIScale(1)
	case "scale-down":
		a.bumpUIScale(-1)
	}
}

func (a *App) toggledText(id string) richtext.TextDecoration {
	d := a.state.DecorationAtCaret()
	if sel := a.state.Selection(); sel.IsDefined() {
		d = a.state.Document().DecorationAt(sel.Start + 1)
	}
	switch id {
	case "bold":
		d.Bold = !d.Bold
	case "italic":
		d.Italic = !d.Italic
	case "underline":
		d.Underline = !d.Underline
	case "strike":
		d.Strikethrough = !d.Strikethrough
	case "highlight":
		if d.Background.IsZero() {
			d.Background = richtext.RGBA(0xFF, 0xE0, 0x82, 0xFF)
		} else {
			d.Background = 0
		}
	case "font-up":
		d.FontSize = min(d.FontSize+2, 72)
	case "font-down":
		d.FontSize = max(d.FontSize-2, 8)
	}
	return d
}

func (a *App) toggleList(kind richtext.GraphicType) {
	p := a.currentParagraph()
	if p.HasTable() {
		return
	}
	if p.GraphicType == kind {
		p.GraphicType = richtext.GraphicNone
		p.IndentationLevel = max(p.IndentationLevel-1, 0)
	} else {
		if p.GraphicType == richtext.GraphicNone {
			p.IndentationLevel++
		}
		p.GraphicType = kind
	}
	a.run(command.Decorate{Decoration: p})
}

func (a *App) indent(out bool) {
	p := a.currentParagraph()
	switch {
	case out && p.IndentationLevel > 0:
		if p.GraphicType != richtext.GraphicNone && p.IndentationLevel == 1 {
			return
		}
		p.IndentationLevel--
	case !out:
		p.IndentationLevel++
	default:
		return
	}
	a.run(command.Decorate{Decoration: p})
}

func (a *App) moveHorizontal(n int, extend bool) {
	caret := a.state.CaretPosition()
	if sel := a.state.Selection(); sel.IsDefined() && !extend {
		if n < 0 {
			a.state.SetCaretPosition(sel.Start)
		} else {
			a.state.SetCaretPosition(sel.End)
		}
		a.state.ClearSelection()
		return
	}
	a.moveTo(a.state.GraphemeOffset(max(caret, 0), n), extend)
	a.column = -1
}

func (a *App) moveVertical(down, extend bool) {
	pos := a.area.NextRowPosition(a.column, down)
	if pos < 0 {
		return
	}
	col := a.column
	a.moveTo(pos, extend)
	a.column = col
}

// rowEdge is the start or end of the caret's visual row.
func (a *App) rowEdge(end bool) int {
	p := a.state.Document().ParagraphAt(max(a.state.CaretPosition(), 0))
	if !end {
		return p.Start
	}
	if a.state.Document().IsLast(p) {
		return p.End
	}
	return p.End - 1
}

// moveTo places the caret at pos, growing the selection from its anchor
// when extend is set.
func (a *App) moveTo(pos int, extend bool) {
	caret := a.state.CaretPosition()
	if !extend {
		a.state.ClearSelection()
		a.state.SetCaretPosition(pos)
		return
	}
	anchor := caret
	if sel := a.state.Selection(); sel.IsDefined() {
		anchor = sel.Start
		if caret == sel.Start {
			anchor = sel.End
		}
	}
	a.state.SetSelection(richtext.NewSelection(anchor, pos))
	a.state.SetCaretPosition(pos)
}

func (a *App) insertImageFromFile() {
	path, err := dialog.File().
		Filter("Images", "png", "jpg", "jpeg", "gif", "bmp", "webp", "tif", "tiff").
		Title("Insert image").
		Load()
	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			a.report("Insert image", err)
		}
		return
	}
	img, err := cache.LoadImage(path)
	if err != nil {
		a.report("Insert image", err)
		return
	}
	size := fitImage(img.Bounds().Size(), a.layout.Content.Dx()-8)
	a.run(command.Decorate{Decoration: richtext.ImageDecoration{Source: path, Width: size.X, Height: size.Y}})
	a.status = "Inserted " + filepath.Base(path)
}

func (a *App) pasteImage() {
	src, size, err := a.images.PasteSource()
	if err != nil {
		a.report("Paste image", err)
		return
	}
	size = fitImage(size, a.layout.Content.Dx()-8)
	a.run(command.Decorate{Decoration: richtext.ImageDecoration{Source: src, Width: size.X, Height: size.Y}})
}

// copyImage puts the first image inside the selection on the clipboard.
func (a *App) copyImage() {
	sel := a.state.Selection()
	if !sel.IsDefined() {
		return
	}
	doc := a.state.Document()
	for _, p := range doc.Paragraphs() {
		for _, f := range doc.Fragments(p) {
			img, ok := f.Decoration.(richtext.ImageDecoration)
			if !ok || f.Start < sel.Start || f.Start >= sel.End {
				continue
			}
			_, pixels := a.area.Resources().Image(img)
			a.report(fmt.Sprintf("Copied image %dx%d", img.Width, img.Height), a.images.Copy(pixels))
			return
		}
	}
	a.status = "No image selected"
}

// fitImage scales size down to at most width, keeping its aspect ratio.
func fitImage(size image.Point, width int) image.Point {
	if width <= 0 || size.X <= width || size.X == 0 {
		return size
	}
	return image.Pt(width, max(size.Y*width/size.X, 1))
}
