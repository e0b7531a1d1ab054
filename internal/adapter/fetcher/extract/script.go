package extract

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var embeddedJSON = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)

var (
	flatKeys   = []string{"viewsCount", "viewCount", "views", "watchCount"}
	nestedKeys = []string{"statistics", "stats", "meta", "counters"}
	innerKeys  = []string{"views", "viewCount", "viewsCount", "watchCount"}
)

var errBadKey = errors.New("object key is not a string")

// object is a decoded JSON object that remembers the order its keys
// appeared in. A repeated key keeps its first position and its last value.
type object struct {
	keys   []string
	fields map[string]any
}

// ScriptJSON decodes the JSON carried by every <script> on the page
// (whole text, or the outermost object/array inside it) and walks each
// tree breadth first, siblings in document order, until an object
// exposes a view counter.
func ScriptJSON(html string) (int64, bool) {
	doc, ok := parseDocument(html)
	if !ok {
		return 0, false
	}

	var (
		count int64
		found bool
	)

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}

		tree, ok := decodeOrdered(text)
		if !ok {
			m := embeddedJSON.FindString(text)
			if m == "" {
				return true
			}
			if tree, ok = decodeOrdered(m); !ok {
				return true
			}
		}

		count, found = walk(tree)
		return !found
	})

	return count, found
}

// decodeOrdered accepts text only when it is exactly one JSON value.
func decodeOrdered(text string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	v, err := readValue(dec)
	if err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	return v, true
}

func readValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := &object{fields: make(map[string]any)}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, errBadKey
			}
			val, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			if _, seen := obj.fields[key]; !seen {
				obj.keys = append(obj.keys, key)
			}
			obj.fields[key] = val
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		list := []any{}
		for dec.More() {
			val, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	}
}

func walk(root any) (int64, bool) {
	queue := []any{root}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		switch node := cur.(type) {
		case *object:
			if n, ok := pickCount(node); ok {
				return n, true
			}
			for _, k := range node.keys {
				queue = appendContainer(queue, node.fields[k])
			}
		case []any:
			for _, v := range node {
				queue = appendContainer(queue, v)
			}
		}
	}

	return 0, false
}

func appendContainer(queue []any, v any) []any {
	switch v.(type) {
	case *object, []any:
		return append(queue, v)
	}
	return queue
}

func pickCount(obj *object) (int64, bool) {
	if counter, ok := obj.fields["viewCounter"].(*object); ok {
		if n, ok := countFromAny(counter.fields["count"]); ok {
			return n, true
		}
	}

	for _, k := range flatKeys {
		if n, ok := countFromAny(obj.fields[k]); ok {
			return n, true
		}
	}

	for _, k1 := range nestedKeys {
		inner, ok := obj.fields[k1].(*object)
		if !ok {
			continue
		}
		for _, k2 := range innerKeys {
			if n, ok := countFromAny(inner.fields[k2]); ok {
				return n, true
			}
		}
	}

	return 0, false
}
