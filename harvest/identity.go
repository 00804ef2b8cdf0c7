package harvest

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// PassageID returns the content-addressed identity of a passage. It depends
// only on where the passage was found and its exact text, so re-harvesting
// the same page always yields the same identity.
func PassageID(packageID, part string, page int, text string) string {
	return fmt.Sprintf("%s-%s-%d-%016x", packageID, part, page, xxhash.Sum64String(text))
}
