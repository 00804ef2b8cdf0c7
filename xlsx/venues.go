// Package xlsx loads venue lists from spreadsheets.
package xlsx

import (
	"errors"
	"os"
	"strings"

	"github.com/Brandonf2022/touringbot"
	"github.com/tealeg/xlsx/v2"
)

// DefaultColumn is the header of the venue column when none is configured.
const DefaultColumn = "Lokal"

// LoadVenues reads venues from the column whose header equals column in the
// first sheet of the workbook at path. Header matching ignores case and
// surrounding whitespace. Empty cells are skipped and repeated venues kept
// once, in row order.
func LoadVenues(path, column string) ([]string, error) {
	if column == "" {
		column = DefaultColumn
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, touringbot.Errorf(touringbot.ENOTFOUND, "venue list %s not found", path)
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, touringbot.WrapError(touringbot.EMALFORMED, err, "opening venue workbook %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, touringbot.Errorf(touringbot.EMALFORMED, "venue workbook %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, touringbot.Errorf(touringbot.EMALFORMED, "venue workbook %s is empty", path)
	}

	col := headerIndex(sheet.Rows[0], column)
	if col < 0 {
		return nil, touringbot.Errorf(touringbot.ECONFIG, "venue column %q not found in %s", column, path)
	}

	var venues []string
	seen := make(map[string]bool)
	for _, row := range sheet.Rows[1:] {
		if row == nil || col >= len(row.Cells) {
			continue
		}
		venue := strings.TrimSpace(row.Cells[col].String())
		if venue == "" || seen[venue] {
			continue
		}
		seen[venue] = true
		venues = append(venues, venue)
	}
	return venues, nil
}

func headerIndex(row *xlsx.Row, column string) int {
	if row == nil {
		return -1
	}
	for i, cell := range row.Cells {
		if strings.EqualFold(strings.TrimSpace(cell.String()), column) {
			return i
		}
	}
	return -1
}
