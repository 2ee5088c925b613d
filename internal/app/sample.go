package app

import (
	"richtext/pkg/richtext"
)

// welcomeDocument is shown on start: a few styled paragraphs, a numbered
// and a bulleted list and a small table.
func welcomeDocument() *richtext.Document {
	plain := richtext.DefaultTextDecoration()
	doc := richtext.NewDocument()

	title := plain
	title.FontSize = 22
	title.Bold = true
	at := doc.Insert(0, "Rich text area\n", title)
	doc.Decorate(richtext.Undefined, 0, richtext.ParagraphDecoration{Alignment: richtext.AlignCenter, BottomInset: 6})

	body := "Click to place the caret, double click for a word, triple click for the paragraph. " +
		"Shift click extends the selection.\n"
	at += doc.Insert(at, body, plain)
	marked := plain
	marked.Background = richtext.RGBA(0xFF, 0xE0, 0x82, 0xFF)
	start := at
	at += doc.Insert(at, "Highlighted runs", marked)
	at += doc.Insert(at, " merge with their neighbours into one region.\n", plain)
	doc.Decorate(richtext.NewSelection(start, at), start, richtext.ParagraphDecoration{TopInset: 4, BottomInset: 4})

	for _, item := range []string{"Numbered item", "Another one", "And a third"} {
		p := at
		at += doc.Insert(at, item+"\n", plain)
		doc.Decorate(richtext.Undefined, p, richtext.ParagraphDecoration{IndentationLevel: 1, GraphicType: richtext.GraphicNumberedList})
	}
	for _, item := range []string{"Bulleted item", "Nested"} {
		p := at
		at += doc.Insert(at, item+"\n", plain)
		level := 1
		if item == "Nested" {
			level = 2
		}
		doc.Decorate(richtext.Undefined, p, richtext.ParagraphDecoration{IndentationLevel: level, GraphicType: richtext.GraphicBulletedList})
	}

	table := doc.InsertTable(at, 2, 2)
	cells := []string{"Cell one", "Cell two", "Cell three", "Cell four"}
	for i := len(cells) - 1; i >= 0; i-- {
		doc.Insert(doc.CellPositions(table)[i], cells[i], plain)
	}
	tail := doc.Len()
	doc.Insert(tail, "Ctrl+B, Ctrl+I and Ctrl+U style the selection. Ctrl+T adds a table, Ctrl+Shift+I an image.", plain)
	return doc
}
