package lookup

import "unicode/utf8"

// IsTargetScript reports whether r is hiragana, katakana (full or half
// width) or a common CJK ideograph.
func IsTargetScript(r rune) bool {
	switch {
	case r >= 0x3040 && r <= 0x309F: // hiragana
		return true
	case r >= 0x30A0 && r <= 0x30FF: // katakana
		return true
	case r >= 0x4E00 && r <= 0x9FAF: // CJK unified ideographs
		return true
	case r >= 0xFF66 && r <= 0xFF9F: // half-width katakana
		return true
	case r == 0x3005: // 々
		return true
	}
	return false
}

// StartsWithTargetScript reports whether the first rune of s is in the
// target script.
func StartsWithTargetScript(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && r != utf8.RuneError && IsTargetScript(r)
}

// ContainsTargetScript reports whether any rune of s is in the target
// script.
func ContainsTargetScript(s string) bool {
	for _, r := range s {
		if IsTargetScript(r) {
			return true
		}
	}
	return false
}
