package device

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	desktopUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

func TestSameDevice(t *testing.T) {
	tests := []struct {
		name  string
		query string
		ua    string
		want  bool
	}{
		{name: "mobile browser", ua: iphoneUA, want: true},
		{name: "desktop browser", ua: desktopUA, want: false},
		{name: "no user agent", want: false},
		{name: "query forces same device", query: "?same_device=true", ua: desktopUA, want: true},
		{name: "query forces cross device", query: "?same_device=false", ua: iphoneUA, want: false},
		{name: "unparseable query falls back to user agent", query: "?same_device=maybe", ua: iphoneUA, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/applications/app-1/verification"+tt.query, nil)
			if tt.ua != "" {
				req.Header.Set("User-Agent", tt.ua)
			}
			assert.Equal(t, tt.want, SameDevice(req))
		})
	}
}
