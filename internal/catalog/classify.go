package catalog

import "strings"

// Classify maps a raw challenge type string to a fixed Category. Unknown,
// empty, or garbage input lands in misc; the function never fails.
func Classify(raw string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case CatPwn, CatWeb, CatRev, CatCrypto:
		return c
	default:
		return CatMisc
	}
}
