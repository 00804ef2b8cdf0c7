package etree

import (
	"strings"

	"github.com/Brandonf2022/touringbot"
	"github.com/beevik/etree"
)

// Ensure Parser implements touringbot.PageParser at compile time.
var _ touringbot.PageParser = (*Parser)(nil)

// Parser parses ALTO XML into Documents.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse builds a Document from ALTO markup. Returns EMALFORMED if data is
// not well-formed XML or its root element is not alto.
func (p *Parser) Parse(data []byte) (touringbot.PageDocument, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, touringbot.WrapError(touringbot.EMALFORMED, err, "parsing ALTO XML")
	}

	root := doc.Root()
	if root == nil {
		return nil, touringbot.Errorf(touringbot.EMALFORMED, "empty ALTO XML")
	}
	if !strings.EqualFold(root.Tag, "alto") {
		return nil, touringbot.Errorf(touringbot.EMALFORMED, "unexpected root element %q", root.Tag)
	}

	d := &Document{}
	if el := root.FindElement(".//fileName"); el != nil {
		d.fileName = strings.TrimSpace(el.Text())
	}
	d.add(root, -1)
	return d, nil
}

// add appends el and its descendants in document order.
func (d *Document) add(el *etree.Element, parent int) {
	i := len(d.nodes)
	d.nodes = append(d.nodes, node{
		kind:   kindOf(el.Tag),
		parent: parent,
	})
	if d.nodes[i].kind == kindString {
		d.nodes[i].content = strings.TrimSpace(el.SelectAttrValue("CONTENT", ""))
	}
	if parent >= 0 {
		d.nodes[parent].children = append(d.nodes[parent].children, i)
	}
	for _, child := range el.ChildElements() {
		d.add(child, i)
	}
}
