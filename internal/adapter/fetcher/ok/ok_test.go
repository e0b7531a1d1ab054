package ok

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/httpclient"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

func TestMobileMirror(t *testing.T) {
	assert.Equal(t, "https://m.ok.ru/video/123", MobileMirror("https://ok.ru/video/123"))
	assert.Equal(t, "https://m.ok.ru/video/123", MobileMirror("https://m.ok.ru/video/123"))
	assert.Equal(t, "https://example.com/video/1", MobileMirror("https://example.com/video/1"))
}

// newSite serves the desktop page under /desktop and the mobile one under /mobile.
func newSite(t *testing.T, desktop, mobile string, desktopStatus int) (*Client, string) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/mobile") {
			fmt.Fprint(w, mobile)
			return
		}
		w.WriteHeader(desktopStatus)
		fmt.Fprint(w, desktop)
	}))
	t.Cleanup(srv.Close)

	c := New(httpclient.New(), WithMirror(func(u string) string {
		return strings.Replace(u, "/desktop", "/mobile", 1)
	}))

	return c, srv.URL + "/desktop/video/123"
}

func TestClient_Fetch(t *testing.T) {
	tests := []struct {
		name          string
		desktop       string
		desktopStatus int
		mobile        string
		want          int64
	}{
		{
			name:          "desktop json-ld",
			desktop:       `<script type="application/ld+json">{"interactionStatistic":{"@type":"InteractionCounter","userInteractionCount":"1 234"}}</script>`,
			desktopStatus: http.StatusOK,
			want:          1234,
		},
		{
			name:          "desktop generic",
			desktop:       `<div data-options='{"viewCount":555}'></div>`,
			desktopStatus: http.StatusOK,
			want:          555,
		},
		{
			name:          "mobile viewsCount",
			desktop:       `<html>login required</html>`,
			desktopStatus: http.StatusOK,
			mobile:        `{"movie":{"viewsCount":98765}}`,
			want:          98765,
		},
		{
			name:          "desktop error, mobile label",
			desktopStatus: http.StatusForbidden,
			mobile:        `<span>Просмотров&nbsp;: 4 321</span>`,
			want:          4321,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, u := newSite(t, tt.desktop, tt.mobile, tt.desktopStatus)

			got, err := c.Fetch(context.Background(), u)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Fetch_NotFound(t *testing.T) {
	c, u := newSite(t, `<html></html>`, `<html></html>`, http.StatusOK)

	_, err := c.Fetch(context.Background(), u)

	assert.ErrorIs(t, err, entity.ErrNoViews)
}
