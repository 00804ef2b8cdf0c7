package mock

import (
	"iter"

	"github.com/Brandonf2022/touringbot"
)

var _ touringbot.PageParser = (*PageParser)(nil)

// PageParser is a mock implementation of touringbot.PageParser.
type PageParser struct {
	ParseFn func(data []byte) (touringbot.PageDocument, error)
}

func (p *PageParser) Parse(data []byte) (touringbot.PageDocument, error) {
	return p.ParseFn(data)
}

var _ touringbot.PageDocument = (*PageDocument)(nil)

// PageDocument is a mock implementation of touringbot.PageDocument.
type PageDocument struct {
	DateFn     func() (string, bool)
	PassagesFn func(keyword string, window int) iter.Seq[string]
}

func (d *PageDocument) Date() (string, bool) {
	return d.DateFn()
}

func (d *PageDocument) Passages(keyword string, window int) iter.Seq[string] {
	return d.PassagesFn(keyword, window)
}
