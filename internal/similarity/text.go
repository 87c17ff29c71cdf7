package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"
)

// Jaro-Winkler parameters for landform codes.
const (
	winklerBoostThreshold = 0.7
	winklerPrefixSize     = 4
)

// Soil returns the normalized Indel ratio of two soil strings:
// 1 - d/(n(a)+n(b)) where d is the edit distance with substitutions costing
// two and n counts code points. Identical strings score 1, disjoint strings 0.
func Soil(a, b string) float64 {
	ka, kb := codePoints(a, b)
	total := len(ka) + len(kb)
	if total == 0 {
		return 1.0
	}
	d := smetrics.WagnerFischer(ka, kb, 1, 1, 2)
	return 1 - float64(d)/float64(total)
}

// Landform returns the Jaro-Winkler similarity of two landform codes over
// code points. Codes share a prefix and differ by suffix, so matching
// prefixes are boosted.
func Landform(a, b string) float64 {
	ka, kb := codePoints(a, b)
	return smetrics.JaroWinkler(ka, kb, winklerBoostThreshold, winklerPrefixSize)
}

// codePoints re-encodes a and b over a shared one-byte alphabet, one byte per
// code point, so the bytewise smetrics algorithms see characters instead of
// UTF-8 sequences. Both metrics only test positions for equality, which the
// mapping preserves. A pair with more than 256 distinct code points cannot be
// mapped and is compared as UTF-8 bytes.
func codePoints(a, b string) (string, string) {
	if isASCII(a) && isASCII(b) {
		return a, b
	}
	alphabet := make(map[rune]byte)
	encode := func(s string) ([]byte, bool) {
		out := make([]byte, 0, len(s))
		for _, r := range s {
			c, ok := alphabet[r]
			if !ok {
				if len(alphabet) == 256 {
					return nil, false
				}
				c = byte(len(alphabet))
				alphabet[r] = c
			}
			out = append(out, c)
		}
		return out, true
	}
	ea, ok := encode(a)
	if !ok {
		return a, b
	}
	eb, ok := encode(b)
	if !ok {
		return a, b
	}
	return string(ea), string(eb)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// SoilText joins the six soil sub-fields with single spaces. Absent fields are
// rendered as missing.
func SoilText(fields []*string, missing string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		if f == nil {
			parts[i] = missing
			continue
		}
		parts[i] = *f
	}
	return strings.Join(parts, " ")
}
