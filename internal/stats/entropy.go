package stats

import "unicode"

// Character categories contributing to a record's entropy class. A record's
// class is the number of distinct categories present in it, so it ranges from
// 0 (empty record) to 6.
const (
	catUpper = 1 << iota
	catLower
	catDigit
	catCommonSymbol
	catOtherSymbol
	catOther
)

// commonSymbols is the shifted-number-row symbol set treated as its own
// category, matching what password strength meters usually single out.
const commonSymbols = "!@#$%^&*"

// EntropyClass classifies a record by which character categories it contains:
// uppercase, lowercase, digits, common symbols, other punctuation/symbols,
// anything else. The class is the count of distinct categories present.
func EntropyClass(record string) int {
	var mask int
	for _, r := range record {
		switch {
		case unicode.IsUpper(r):
			mask |= catUpper
		case unicode.IsLower(r):
			mask |= catLower
		case unicode.IsDigit(r):
			mask |= catDigit
		case isCommonSymbol(r):
			mask |= catCommonSymbol
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			mask |= catOtherSymbol
		default:
			mask |= catOther
		}
	}

	class := 0
	for mask != 0 {
		class += mask & 1
		mask >>= 1
	}
	return class
}

func isCommonSymbol(r rune) bool {
	for _, s := range commonSymbols {
		if r == s {
			return true
		}
	}
	return false
}
