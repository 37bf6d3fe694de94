package state

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeKey produces the canonical form used for case-insensitive
// uniqueness checks (employee IDs, template names). Input is trimmed,
// NFC-normalized, and lowercased. NFC matters because guard and template
// names routinely carry combining marks (the seeded roster is Lao script),
// where byte equality over unnormalized text is unreliable.
func NormalizeKey(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}
