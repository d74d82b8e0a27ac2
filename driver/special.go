package driver

import "strings"

// Sentinel literals recognized by handleSpecialStrings. The original
// Elektra TOML plugin's isNullString/isBase64String helpers live in a
// source file that was not part of the retrieved corpus; these
// literals are this module's own resolution of that open question (see
// DESIGN.md) — chosen to stay unambiguous against ordinary TOML string
// content while matching Elektra's own "!!elektra/..." metadata-tag
// convention used elsewhere in the project for out-of-band markers.
const (
	nullIndicator = "!!elektra/null"
	base64Prefix  = "!!elektra/base64 "
)

// handleSpecialStrings recognizes the null-indicator and base64-payload
// sentinel forms of a translated string scalar, per spec.md §4.I. It
// returns true ("handled") if the string was a sentinel; the null
// indicator additionally mutates key to hold an empty binary value.
func handleSpecialStrings(translated string, key interface{ SetBinary() }) bool {
	if translated == nullIndicator {
		key.SetBinary()
		return true
	}
	if strings.HasPrefix(translated, base64Prefix) {
		return true
	}
	return false
}
