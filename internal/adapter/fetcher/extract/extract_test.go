package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"12345", 12345, true},
		{"12 345", 12345, true},
		{"12 345 678", 12345678, true},
		{"1,234,567", 1234567, true},
		{"1.234", 1234, true},
		{"1.2K", 1200, true},
		{"15.3k", 15300, true},
		{"2M", 2000000, true},
		{"1,5 млн просмотров", 1500000, true},
		{"15,3 тыс.", 15300, true},
		{"99999999999999999999K", 0, false},
		{"9999999999999999999", 0, false},
		{"  ", 0, false},
		{"no digits", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCount(tt.in)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONLD(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   int64
		wantOK bool
	}{
		{
			name: "watch action as string",
			html: `<html><head><script type="application/ld+json">
{"@type":"VideoObject","interactionStatistic":{"@type":"InteractionCounter","interactionType":"https://schema.org/WatchAction","userInteractionCount":"4 521"}}
</script></head></html>`,
			want:   4521,
			wantOK: true,
		},
		{
			name: "watch action as object inside a list",
			html: `<script type="application/ld+json">[{"@type":"Organization"},
{"@type":"VideoObject","interactionStatistics":[
  {"interactionType":{"@type":"LikeAction"},"userInteractionCount":7},
  {"interactionType":{"@type":"http://schema.org/WatchAction"},"userInteractionCount":987654}
]}]</script>`,
			want:   987654,
			wantOK: true,
		},
		{
			name: "broken block is skipped",
			html: `<script type="application/ld+json">{oops</script>
<script type="application/ld+json">{"interactionStatistic":{"@type":"InteractionCounter","userInteractionCount":42}}</script>`,
			want:   42,
			wantOK: true,
		},
		{
			name: "empty singular falls back to plural",
			html: `<script type="application/ld+json">{"@type":"VideoObject","interactionStatistic":[],
"interactionStatistics":{"@type":"InteractionCounter","userInteractionCount":"1 024"}}</script>`,
			want:   1024,
			wantOK: true,
		},
		{
			name: "trailing text after block is rejected",
			html: `<script type="application/ld+json">{"interactionStatistic":{"@type":"InteractionCounter","userInteractionCount":3}} junk</script>`,
			wantOK: false,
		},
		{
			name:   "no statistics",
			html:   `<script type="application/ld+json">{"@type":"VideoObject","name":"x"}</script>`,
			wantOK: false,
		},
		{
			name:   "not ld+json",
			html:   `<script>{"interactionStatistic":{"@type":"InteractionCounter","userInteractionCount":42}}</script>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := JSONLD(tt.html)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeneric(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   int64
		wantOK bool
	}{
		{"viewCount number", `{"title":"x","viewCount": 1234,"likes":3}`, 1234, true},
		{"viewCount string", `"viewCount":"56 789"`, 56789, true},
		{"views", `{"views":321}`, 321, true},
		{"russian label", `<span>Просмотров: 12 345</span>`, 12345, true},
		{"upper case label", `ПРОСМОТРОВ 77`, 77, true},
		{"nothing", `<p>hello</p>`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Generic(tt.html)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScriptJSON(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   int64
		wantOK bool
	}{
		{
			name:   "view counter object",
			html:   `<script>{"data":{"item":{"viewCounter":{"count":9001}}}}</script>`,
			want:   9001,
			wantOK: true,
		},
		{
			name:   "assignment wrapped state",
			html:   `<script>window.__STATE__ = {"feed":[{"id":1,"stats":{"viewCount":"2 500"}}]};</script>`,
			want:   2500,
			wantOK: true,
		},
		{
			name:   "flat key in nested list",
			html:   `<script>[[{"watchCount":17}]]</script>`,
			want:   17,
			wantOK: true,
		},
		{
			name:   "shallow match wins",
			html:   `<script>{"views":5,"deep":{"views":6}}</script>`,
			want:   5,
			wantOK: true,
		},
		{
			name:   "later script",
			html:   `<script>var a = 1;</script><script>{"counters":{"views":88}}</script>`,
			want:   88,
			wantOK: true,
		},
		{
			name:   "directive before state",
			html:   `<script>"use strict"; window.__STATE__ = {"views":5};</script>`,
			want:   5,
			wantOK: true,
		},
		{
			name:   "number before state",
			html:   `<script>1; var s = {"views":5};</script>`,
			want:   5,
			wantOK: true,
		},
		{
			name:   "siblings in document order",
			html:   `<script>{"b":{"views":1},"a":{"views":2}}</script>`,
			want:   1,
			wantOK: true,
		},
		{
			name:   "repeated key keeps first position",
			html:   `<script>{"z":{"x":1},"m":{"views":7},"z":{"views":3}}</script>`,
			want:   3,
			wantOK: true,
		},
		{
			name:   "no counters",
			html:   `<script>{"title":"hello"}</script>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ScriptJSON(tt.html)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
