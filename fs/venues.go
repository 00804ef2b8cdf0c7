package fs

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"github.com/Brandonf2022/touringbot"
)

// LoadVenues reads a plain-text venue list: one venue per line, blank lines
// and lines starting with # ignored. Repeated venues are kept once, in the
// order first seen.
func LoadVenues(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, touringbot.Errorf(touringbot.ENOTFOUND, "venue list %s not found", path)
	}
	if err != nil {
		return nil, touringbot.WrapError(touringbot.EINTERNAL, err, "opening venue list %s", path)
	}
	defer f.Close()

	var venues []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true
		venues = append(venues, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, touringbot.WrapError(touringbot.EINTERNAL, err, "reading venue list %s", path)
	}
	return venues, nil
}
