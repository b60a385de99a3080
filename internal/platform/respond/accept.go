package respond

import (
	"strconv"
	"strings"
)

type mediaRange struct {
	typ     string
	subtype string
	q       float64
}

// parseAccept splits an Accept header into media ranges. Missing subtypes become "*";
// malformed or out-of-range q values count as 1.
func parseAccept(header string) []mediaRange {
	var ranges []mediaRange
	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		params := strings.Split(part, ";")
		mr := mediaRange{q: 1}
		typ, sub, ok := strings.Cut(strings.TrimSpace(params[0]), "/")
		mr.typ = strings.ToLower(strings.TrimSpace(typ))
		mr.subtype = "*"
		if ok {
			mr.subtype = strings.ToLower(strings.TrimSpace(sub))
		}
		for _, p := range params[1:] {
			k, v, found := strings.Cut(strings.TrimSpace(p), "=")
			if !found || !strings.EqualFold(strings.TrimSpace(k), "q") {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && q >= 0 && q <= 1 {
				mr.q = q
			}
		}
		ranges = append(ranges, mr)
	}
	return ranges
}

// specificity reports how precisely mr names the given format suffix ("json" or "cbor"),
// or -1 when it does not match at all.
func (mr mediaRange) specificity(format string) int {
	switch {
	case mr.typ == "*" && mr.subtype == "*":
		return 0
	case mr.typ != "application":
		return -1
	case mr.subtype == "*":
		return 1
	case mr.subtype == "*+"+format:
		return 2
	case mr.subtype == format, mr.subtype == "problem+"+format:
		return 3
	default:
		return -1
	}
}

// preference returns the q of the most specific range matching format, or 0.
func preference(ranges []mediaRange, format string) float64 {
	best, q := -1, 0.0
	for _, mr := range ranges {
		if s := mr.specificity(format); s > best {
			best, q = s, mr.q
		}
	}
	return q
}

// selectFormat reports whether CBOR should be used. JSON wins ties and is the default.
func selectFormat(accept string) bool {
	if strings.TrimSpace(accept) == "" {
		return false
	}
	ranges := parseAccept(accept)
	cborQ := preference(ranges, "cbor")
	return cborQ > 0 && cborQ > preference(ranges, "json")
}
