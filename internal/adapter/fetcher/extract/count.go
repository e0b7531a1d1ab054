// Package extract holds the scraping heuristics shared by the platform
// fetchers: count parsing, JSON-LD interaction statistics, generic page
// patterns and a walk over JSON embedded in <script> tags.
package extract

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonDigits = regexp.MustCompile(`[^\d]`)
	// abbreviated matches counters such as "1.2K", "15,3 тыс." or "2 млн".
	abbreviated = regexp.MustCompile(`(?i)^([\d]+(?:[.,]\d+)?)\s*(k|m|b|тыс\.?|млн\.?|млрд\.?)(?:\s.*)?$`)
)

var multipliers = map[string]float64{
	"k":    1e3,
	"тыс":  1e3,
	"m":    1e6,
	"млн":  1e6,
	"b":    1e9,
	"млрд": 1e9,
}

// ParseCount turns a human formatted counter into a number. Separators
// (spaces, NBSP, commas, dots) are dropped; K/M/B and тыс./млн/млрд
// suffixes are expanded.
func ParseCount(s string) (int64, bool) {
	s = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\u2009", " ").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if m := abbreviated.FindStringSubmatch(s); m != nil {
		num, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			return 0, false
		}
		suffix := strings.TrimSuffix(strings.ToLower(m[2]), ".")
		v := math.Round(num * multipliers[suffix])
		if v >= math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	}

	digits := nonDigits.ReplaceAllString(s, "")
	if digits == "" {
		return 0, false
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}

// countFromAny reads a count out of a decoded JSON value. Strings go
// through ParseCount; fractional numbers are rejected.
func countFromAny(v any) (int64, bool) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int64(val), true
	case string:
		return ParseCount(val)
	default:
		return 0, false
	}
}
