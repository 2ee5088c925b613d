package cache

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnsupportedSource = errors.New("cache: unsupported image source")

// ImageKey identifies an image source. Inline data URIs are keyed by digest
// so the key stays small.
type ImageKey string

func ImageKeyFor(source string) ImageKey {
	if strings.HasPrefix(source, "data:") {
		sum := blake2b.Sum256([]byte(source))
		return ImageKey("blake2b:" + hex.EncodeToString(sum[:]))
	}
	return ImageKey(source)
}

// ImageLoader decodes the image behind a source string.
type ImageLoader func(source string) (image.Image, error)

// LoadImage understands file paths, file:// URLs and base64 data URIs.
func LoadImage(source string) (image.Image, error) {
	switch {
	case strings.HasPrefix(source, "data:"):
		comma := strings.IndexByte(source, ',')
		if comma < 0 || !strings.HasSuffix(source[:comma], ";base64") {
			return nil, fmt.Errorf("%w: %.32s", ErrUnsupportedSource, source)
		}
		raw, err := base64.StdEncoding.DecodeString(source[comma+1:])
		if err != nil {
			return nil, fmt.Errorf("decode data uri: %w", err)
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decode inline image: %w", err)
		}
		return img, nil
	case strings.HasPrefix(source, "file://"):
		u, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("parse image url: %w", err)
		}
		return loadFile(u.Path)
	case strings.Contains(source, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	default:
		return loadFile(source)
	}
}

func loadFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Placeholder stands in for images that failed to load.
func Placeholder(w, h int) image.Image {
	if w <= 0 {
		w = 16
	}
	if h <= 0 {
		h = 16
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	frame := color.NRGBA{R: 0xB2, G: 0xBF, B: 0xD0, A: 0xFF}
	for x := 0; x < w; x++ {
		img.SetNRGBA(x, 0, frame)
		img.SetNRGBA(x, h-1, frame)
	}
	for y := 0; y < h; y++ {
		img.SetNRGBA(0, y, frame)
		img.SetNRGBA(w-1, y, frame)
	}
	return img
}
