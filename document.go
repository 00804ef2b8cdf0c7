package touringbot

import "iter"

// PageDocument is a parsed page of OCR markup.
type PageDocument interface {
	// Date returns the publication date as YYYY.MM.DD when the document's
	// source filename carries one.
	Date() (string, bool)

	// Passages yields one text window per keyword hit. Each window holds the
	// matched block plus up to window sibling blocks on either side.
	// Every call rescans the document.
	Passages(keyword string, window int) iter.Seq[string]
}

// PageParser parses raw page markup.
type PageParser interface {
	// Parse returns EMALFORMED if data is not a page document.
	Parse(data []byte) (PageDocument, error)
}
