package extract

import "regexp"

var (
	viewCountPattern = regexp.MustCompile(`"viewCount"\s*:\s*"?([\d\s,\.]+)"?`)
	viewsPattern     = regexp.MustCompile(`"views"\s*:\s*"?([\d\s,\.]+)"?`)
	russianPattern   = regexp.MustCompile(`(?:Просмотров|просмотров|ПРОСМОТРОВ)[^\d]{0,10}([\d\s\x{00A0},\.]+)`)
)

// Generic tries the JSON key patterns "viewCount" and "views" and then the
// Russian "Просмотров N" label.
func Generic(html string) (int64, bool) {
	for _, re := range []*regexp.Regexp{viewCountPattern, viewsPattern} {
		if n, ok := FirstMatch(re, html); ok {
			return n, true
		}
	}
	return RussianLabel(html)
}

// RussianLabel matches the "Просмотров N" text found in rendered pages.
func RussianLabel(html string) (int64, bool) {
	return FirstMatch(russianPattern, html)
}

// FirstMatch parses the first capture group of re's first match.
func FirstMatch(re *regexp.Regexp, s string) (int64, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0, false
	}
	return ParseCount(m[1])
}
