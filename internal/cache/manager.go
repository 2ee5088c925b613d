package cache

import (
	"image"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"richtext/pkg/richtext"
)

// Usage is the set of shared resources one layer draws with.
type Usage struct {
	Fonts  map[FontKey]struct{}
	Images map[ImageKey]struct{}
}

func NewUsage() Usage {
	return Usage{Fonts: map[FontKey]struct{}{}, Images: map[ImageKey]struct{}{}}
}

// Merge adds o into u.
func (u Usage) Merge(o Usage) {
	for k := range o.Fonts {
		u.Fonts[k] = struct{}{}
	}
	for k := range o.Images {
		u.Images[k] = struct{}{}
	}
}

// Manager owns the font and image caches shared by every tile.
type Manager struct {
	fonts  *Store[FontKey, font.Face]
	images *Store[ImageKey, image.Image]

	newFace   FontFactory
	loadImage ImageLoader
	scale     float64
	log       *zap.Logger
}

type ManagerOption func(*Manager)

func WithFontFactory(f FontFactory) ManagerOption {
	return func(m *Manager) { m.newFace = f }
}

func WithImageLoader(l ImageLoader) ManagerOption {
	return func(m *Manager) { m.loadImage = l }
}

func WithScale(scale float64) ManagerOption {
	return func(m *Manager) {
		if scale > 0 {
			m.scale = scale
		}
	}
}

func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		fonts:     NewStore[FontKey, font.Face](),
		images:    NewStore[ImageKey, image.Image](),
		newFace:   FixedFont(),
		loadImage: LoadImage,
		scale:     1,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Face returns the shared face for a text decoration. Failures fall back to
// the bitmap face so layout can go on.
func (m *Manager) Face(d richtext.TextDecoration) (FontKey, font.Face) {
	key := FontKeyFor(d, m.scale)
	face, err := m.fonts.Get(key, m.newFace)
	if err != nil {
		m.log.Warn("font unavailable", zap.Stringer("font", key), zap.Error(err))
		return key, basicfont.Face7x13
	}
	return key, face
}

// Image returns the shared image for a decoration. A source that cannot be
// loaded is replaced by a placeholder of the requested size and cached, so
// it is not retried on every layout.
func (m *Manager) Image(d richtext.ImageDecoration) (ImageKey, image.Image) {
	key := ImageKeyFor(d.Source)
	img, _ := m.images.Get(key, func(ImageKey) (image.Image, error) {
		img, err := m.loadImage(d.Source)
		if err != nil {
			m.log.Warn("image unavailable", zap.String("key", string(key)), zap.Error(err))
			return Placeholder(d.Width, d.Height), nil
		}
		return img, nil
	})
	return key, img
}

func (m *Manager) FontCount() int { return m.fonts.Len() }

func (m *Manager) ImageCount() int { return m.images.Len() }

func (m *Manager) HasFont(k FontKey) bool {
	_, ok := m.fonts.Lookup(k)
	return ok
}

func (m *Manager) HasImage(k ImageKey) bool {
	_, ok := m.images.Lookup(k)
	return ok
}

// Evict removes every cached resource missing from live, the union of what
// all live layers use.
func (m *Manager) Evict(live Usage) {
	fonts := m.fonts.Sweep(live.Fonts)
	images := m.images.Sweep(live.Images)
	if len(fonts)+len(images) > 0 {
		m.log.Debug("evicted unused resources",
			zap.Int("fonts", len(fonts)),
			zap.Int("images", len(images)),
			zap.Uint64("generation", m.fonts.Generation()))
	}
}
