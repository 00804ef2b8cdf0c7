// Package etree parses ALTO page markup with beevik/etree and extracts
// keyword-anchored text windows from it.
package etree

import (
	"iter"
	"regexp"
	"strings"

	"github.com/Brandonf2022/touringbot"
)

// Ensure Document implements touringbot.PageDocument at compile time.
var _ touringbot.PageDocument = (*Document)(nil)

type kind int

const (
	kindOther kind = iota
	kindPrintSpace
	kindComposedBlock
	kindTextBlock
	kindTextLine
	kindString
)

func kindOf(tag string) kind {
	switch tag {
	case "PrintSpace":
		return kindPrintSpace
	case "ComposedBlock":
		return kindComposedBlock
	case "TextBlock":
		return kindTextBlock
	case "TextLine":
		return kindTextLine
	case "String":
		return kindString
	}
	return kindOther
}

// node is one element of the page tree. Nodes refer to each other by index
// into Document.nodes; the root has parent -1.
type node struct {
	kind     kind
	parent   int
	children []int
	content  string
}

// Document is a parsed ALTO page. Nodes are stored in document order.
type Document struct {
	nodes    []node
	fileName string
}

var dateRe = regexp.MustCompile(`_(\d{8})_`)

// Date returns the publication date encoded in the source image filename,
// formatted as YYYY.MM.DD.
func (d *Document) Date() (string, bool) {
	m := dateRe.FindStringSubmatch(d.fileName)
	if m == nil {
		return "", false
	}
	digits := m[1]
	return digits[0:4] + "." + digits[4:6] + "." + digits[6:8], true
}

// Passages yields the window text around every String whose content
// contains one of the keyword's words as a whole word, in document order.
// A String matching more than once still yields a single passage.
func (d *Document) Passages(keyword string, window int) iter.Seq[string] {
	return func(yield func(string) bool) {
		re := keywordPattern(keyword)
		if re == nil {
			return
		}
		if window < 0 {
			window = 0
		}
		for i := range d.nodes {
			n := &d.nodes[i]
			if n.kind != kindString || !re.MatchString(n.content) {
				continue
			}
			block := d.enclosingBlock(i)
			if block < 0 {
				continue
			}
			if !yield(d.windowText(block, window)) {
				return
			}
		}
	}
}

// keywordPattern compiles a case-insensitive alternation of the keyword's
// words. Word boundaries are Unicode aware, unlike \b, so "Malmö" matches
// in "Malmö," but not in "Malmöhus".
func keywordPattern(keyword string) *regexp.Regexp {
	words := strings.Fields(keyword)
	if len(words) == 0 {
		return nil
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(?:` + strings.Join(words, "|") + `)(?:[^\p{L}\p{N}_]|$)`)
}

// enclosingBlock returns the nearest ComposedBlock ancestor of i, or the
// nearest TextBlock when there is none. Returns -1 if neither exists.
func (d *Document) enclosingBlock(i int) int {
	textBlock := -1
	for p := d.nodes[i].parent; p >= 0; p = d.nodes[p].parent {
		switch d.nodes[p].kind {
		case kindComposedBlock:
			return p
		case kindTextBlock:
			if textBlock < 0 {
				textBlock = p
			}
		}
	}
	return textBlock
}

// windowText joins the text of block and up to window block-level siblings
// on each side.
func (d *Document) windowText(block, window int) string {
	siblings := []int{block}
	pos := 0
	if parent := d.nodes[block].parent; parent >= 0 {
		siblings = siblings[:0]
		for _, c := range d.nodes[parent].children {
			if k := d.nodes[c].kind; k != kindComposedBlock && k != kindTextBlock {
				continue
			}
			if c == block {
				pos = len(siblings)
			}
			siblings = append(siblings, c)
		}
	}

	lo := max(0, pos-window)
	hi := min(len(siblings)-1, pos+window)

	var parts []string
	for _, s := range siblings[lo : hi+1] {
		if text := d.blockText(s); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// blockText reconstructs a block: Strings joined by spaces, lines by
// newlines, text blocks by blank lines.
func (d *Document) blockText(i int) string {
	n := &d.nodes[i]
	switch n.kind {
	case kindTextBlock:
		var lines []string
		for _, c := range n.children {
			if d.nodes[c].kind != kindTextLine {
				continue
			}
			if line := d.lineText(c); line != "" {
				lines = append(lines, line)
			}
		}
		return strings.Join(lines, "\n")
	case kindTextLine:
		return d.lineText(i)
	}

	var blocks []string
	for _, c := range n.children {
		if text := d.blockText(c); text != "" {
			blocks = append(blocks, text)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (d *Document) lineText(i int) string {
	var words []string
	for _, c := range d.nodes[i].children {
		if d.nodes[c].kind == kindString && d.nodes[c].content != "" {
			words = append(words, d.nodes[c].content)
		}
	}
	return strings.Join(words, " ")
}
