package etree_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/Brandonf2022/touringbot"
	"github.com/Brandonf2022/touringbot/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// page renders an ALTO document whose print space holds the given blocks.
func page(fileName string, blocks ...string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<alto xmlns="http://www.loc.gov/standards/alto/ns-v2#">`)
	b.WriteString(`<Description><sourceImageInformation><fileName>` + fileName + `</fileName></sourceImageInformation></Description>`)
	b.WriteString(`<Layout><Page><PrintSpace>`)
	for _, block := range blocks {
		b.WriteString(block)
	}
	b.WriteString(`</PrintSpace></Page></Layout></alto>`)
	return []byte(b.String())
}

// composed renders a ComposedBlock with one TextBlock per line group.
func composed(textBlocks ...string) string {
	return `<ComposedBlock>` + strings.Join(textBlocks, "") + `</ComposedBlock>`
}

// textBlock renders a TextBlock with one TextLine per line; words are split
// on spaces into String elements.
func textBlock(lines ...string) string {
	var b strings.Builder
	b.WriteString(`<TextBlock>`)
	for _, line := range lines {
		b.WriteString(`<TextLine>`)
		for _, w := range strings.Fields(line) {
			b.WriteString(`<String CONTENT="` + w + `"/><SP/>`)
		}
		b.WriteString(`</TextLine>`)
	}
	b.WriteString(`</TextBlock>`)
	return b.String()
}

func parse(t *testing.T, data []byte) touringbot.PageDocument {
	t.Helper()
	doc, err := etree.NewParser().Parse(data)
	require.NoError(t, err)
	return doc
}

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("rejects malformed XML", func(t *testing.T) {
		t.Parallel()

		_, err := etree.NewParser().Parse([]byte(`<alto><Layout>`))

		require.Error(t, err)
		assert.Equal(t, touringbot.EMALFORMED, touringbot.ErrorCode(err))
	})

	t.Run("rejects non-ALTO root", func(t *testing.T) {
		t.Parallel()

		_, err := etree.NewParser().Parse([]byte(`<html><body/></html>`))

		require.Error(t, err)
		assert.Equal(t, touringbot.EMALFORMED, touringbot.ErrorCode(err))
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := etree.NewParser().Parse(nil)

		require.Error(t, err)
		assert.Equal(t, touringbot.EMALFORMED, touringbot.ErrorCode(err))
	})
}

func TestDocument_Date(t *testing.T) {
	t.Parallel()

	t.Run("extracts date from filename", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, page("bib13991099_19081015_0_7_0001.jp2"))

		date, ok := doc.Date()
		assert.True(t, ok)
		assert.Equal(t, "1908.10.15", date)
	})

	t.Run("reports missing date", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, page("scan-0001.jp2"))

		date, ok := doc.Date()
		assert.False(t, ok)
		assert.Empty(t, date)
	})

	t.Run("reports missing filename", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, []byte(`<alto><Layout/></alto>`))

		_, ok := doc.Date()
		assert.False(t, ok)
	})
}

func TestDocument_Passages(t *testing.T) {
	t.Parallel()

	fourBlocks := page("x_19080101_0",
		composed(textBlock("first block")),
		composed(textBlock("second block Cirkus")),
		composed(textBlock("third block")),
		composed(textBlock("fourth block")),
	)

	t.Run("includes neighbours within the window", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, fourBlocks)

		got := slices.Collect(doc.Passages("Cirkus", 1))

		assert.Equal(t, []string{"first block\nsecond block Cirkus\nthird block"}, got)
	})

	t.Run("zero window yields the matched block only", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, fourBlocks)

		got := slices.Collect(doc.Passages("Cirkus", 0))

		assert.Equal(t, []string{"second block Cirkus"}, got)
	})

	t.Run("stops at the edges", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, page("x",
			composed(textBlock("Cirkus opens")),
			composed(textBlock("middle")),
			composed(textBlock("last")),
		))

		got := slices.Collect(doc.Passages("cirkus", 5))

		assert.Equal(t, []string{"Cirkus opens\nmiddle\nlast"}, got)
	})

	t.Run("matches case-insensitively on whole words", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, page("x",
			composed(textBlock("CIRKUS tonight")),
			composed(textBlock("Cirkusbyggnaden closed")),
		))

		got := slices.Collect(doc.Passages("cirkus", 0))

		assert.Equal(t, []string{"CIRKUS tonight"}, got)
	})

	t.Run("matches non-ASCII words", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, page("x",
			composed(textBlock("konsert i Malmö,")),
			composed(textBlock("Malmöhus slott")),
		))

		got := slices.Collect(doc.Passages("malmö", 0))

		assert.Equal(t, []string{"konsert i Malmö,"}, got)
	})

	t.Run("matches any word of a multi-word keyword", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, page("x",
			composed(textBlock("Grand opens")),
			composed(textBlock("nothing here")),
			composed(textBlock("Hotel bar")),
		))

		got := slices.Collect(doc.Passages("Grand Hotel", 0))

		assert.Equal(t, []string{"Grand opens", "Hotel bar"}, got)
	})

	t.Run("yields one passage per matching string", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, page("x",
			composed(textBlock("Cirkus and Cirkus")),
		))

		got := slices.Collect(doc.Passages("Cirkus", 0))

		assert.Len(t, got, 2)
		assert.Equal(t, got[0], got[1])
	})

	t.Run("reconstructs lines and text blocks", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, page("x",
			composed(
				textBlock("Cirkus presents", "a concert"),
				textBlock("tickets at door"),
			),
		))

		got := slices.Collect(doc.Passages("Cirkus", 0))

		assert.Equal(t, []string{"Cirkus presents\na concert\n\ntickets at door"}, got)
	})

	t.Run("falls back to text blocks outside composed blocks", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, page("x",
			textBlock("before"),
			textBlock("Cirkus here"),
			textBlock("after"),
			textBlock("far away"),
		))

		got := slices.Collect(doc.Passages("Cirkus", 1))

		assert.Equal(t, []string{"before\nCirkus here\nafter"}, got)
	})

	t.Run("skips empty neighbour blocks", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, page("x",
			composed(`<Illustration/>`),
			composed(textBlock("Cirkus")),
		))

		got := slices.Collect(doc.Passages("Cirkus", 1))

		assert.Equal(t, []string{"Cirkus"}, got)
	})

	t.Run("empty keyword yields nothing", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, fourBlocks)

		assert.Empty(t, slices.Collect(doc.Passages("   ", 1)))
	})

	t.Run("rescans on every call", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, fourBlocks)
		seq := doc.Passages("Cirkus", 0)

		assert.Len(t, slices.Collect(seq), 1)
		assert.Len(t, slices.Collect(seq), 1)
	})

	t.Run("stops when the consumer stops", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, page("x",
			composed(textBlock("Cirkus one")),
			composed(textBlock("Cirkus two")),
		))

		var got []string
		for p := range doc.Passages("Cirkus", 0) {
			got = append(got, p)
			break
		}

		assert.Equal(t, []string{"Cirkus one"}, got)
	})
}
