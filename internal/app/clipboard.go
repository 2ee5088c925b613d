package app

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
	designclip "golang.design/x/clipboard"

	"richtext/internal/editor"
)

var errNoImage = errors.New("app: clipboard holds no image")

// systemClipboard is the OS text clipboard. Where none is available the
// text stays inside the process.
type systemClipboard struct {
	fallback editor.MemoryClipboard
}

func (c *systemClipboard) SetText(text string) error {
	if clipboard.Unsupported {
		return c.fallback.SetText(text)
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

func (c *systemClipboard) Text() (string, error) {
	if clipboard.Unsupported {
		return c.fallback.Text()
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

// imageClipboard moves PNG images through the OS clipboard.
type imageClipboard struct {
	ok bool
}

func newImageClipboard(log *zap.Logger) *imageClipboard {
	if err := designclip.Init(); err != nil {
		log.Warn("image clipboard unavailable", zap.Error(err))
		return &imageClipboard{}
	}
	return &imageClipboard{ok: true}
}

func (c *imageClipboard) Copy(img image.Image) error {
	if !c.ok {
		return errNoImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode clipboard image: %w", err)
	}
	designclip.Write(designclip.FmtImage, buf.Bytes())
	return nil
}

// PasteSource returns the clipboard image as an inline data URI together
// with its size.
func (c *imageClipboard) PasteSource() (string, image.Point, error) {
	if !c.ok {
		return "", image.Point{}, errNoImage
	}
	raw := designclip.Read(designclip.FmtImage)
	if len(raw) == 0 {
		return "", image.Point{}, errNoImage
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", image.Point{}, fmt.Errorf("decode clipboard image: %w", err)
	}
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	return src, image.Pt(cfg.Width, cfg.Height), nil
}
