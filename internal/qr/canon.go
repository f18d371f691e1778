package qr

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// newStripAccents builds the NFKD-decompose + combining-mark-removal
// transform chain. A transform.Chain keeps buffer state between calls
// and is not safe for concurrent use, so every Canon call builds its own.
func newStripAccents() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// leadingTokens are stripped, in order and repeatedly, from the front
// of a canonicalized id. "LOAI" is checked before "LO" since "LOAI"
// also starts with "LO"; the longer token must win.
var leadingTokens = []string{"LOAI", "LO"}

// Canon canonicalizes a raw QR payload into the key used for all lane
// lookups: Unicode-decomposed, accent-stripped, upper-cased, with
// every non-alphanumeric removed, then any leading repetitions of the
// "LOAI"/"LO" tokens stripped. Canon is idempotent: Canon(Canon(x)) ==
// Canon(x) for all x, since the output already satisfies every
// condition the function enforces.
func Canon(raw string) string {
	decomposed, _, err := transform.String(newStripAccents(), raw)
	if err != nil {
		decomposed = raw
	}

	upper := strings.ToUpper(decomposed)

	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	alnum := b.String()

	return stripLeadingTokens(alnum)
}

func stripLeadingTokens(s string) string {
	for {
		stripped := false
		for _, tok := range leadingTokens {
			if strings.HasPrefix(s, tok) && len(s) > len(tok) {
				s = s[len(tok):]
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}
