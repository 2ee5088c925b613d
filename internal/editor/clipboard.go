package editor

// Clipboard is the text clipboard the area copies to and pastes from.
type Clipboard interface {
	SetText(text string) error
	Text() (string, error)
}

// MemoryClipboard keeps the clipboard inside the process.
type MemoryClipboard struct {
	text string
}

func (c *MemoryClipboard) SetText(text string) error {
	c.text = text
	return nil
}

func (c *MemoryClipboard) Text() (string, error) { return c.text, nil }
