package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func parseDocument(html string) (*goquery.Document, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}
	return doc, true
}

func decodeJSON(text string) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	return v, true
}

// asList wraps a single value into a list and passes lists through.
func asList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// JSONLD returns the first watch count found in the page's
// application/ld+json blocks (schema.org InteractionCounter).
func JSONLD(html string) (int64, bool) {
	doc, ok := parseDocument(html)
	if !ok {
		return 0, false
	}

	var (
		count int64
		found bool
	)

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		data, ok := decodeJSON(s.Text())
		if !ok {
			return true
		}

		for _, item := range asList(data) {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if count, found = interactionCount(obj); found {
				return false
			}
		}

		return true
	})

	return count, found
}

// statistics returns the first non-empty of interactionStatistic and
// interactionStatistics.
func statistics(obj map[string]any) []any {
	for _, key := range []string{"interactionStatistic", "interactionStatistics"} {
		switch v := obj[key].(type) {
		case nil:
		case []any:
			if len(v) > 0 {
				return v
			}
		case map[string]any:
			if len(v) > 0 {
				return []any{v}
			}
		default:
			return []any{v}
		}
	}
	return nil
}

func interactionCount(obj map[string]any) (int64, bool) {
	for _, item := range statistics(obj) {
		st, ok := item.(map[string]any)
		if !ok {
			continue
		}

		interactionType := st["interactionType"]
		if typed, ok := interactionType.(map[string]any); ok {
			interactionType = typed["@type"]
		}

		name, _ := interactionType.(string)
		if strings.Contains(name, "WatchAction") || st["@type"] == "InteractionCounter" {
			if n, ok := countFromAny(st["userInteractionCount"]); ok {
				return n, true
			}
		}
	}

	return 0, false
}
