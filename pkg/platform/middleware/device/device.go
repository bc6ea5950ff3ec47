// Package device decides whether a wallet flow runs on the same device as the
// browser (redirect back after presentation) or across devices (QR code).
package device

import (
	"net/http"
	"strconv"

	"github.com/mssola/useragent"
)

// QueryParamSameDevice overrides user-agent detection when present.
const QueryParamSameDevice = "same_device"

// IsMobile reports whether the user agent belongs to a phone or tablet, where
// the wallet app lives next to the browser.
func IsMobile(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	ua := useragent.New(userAgent)
	return ua.Mobile() && !ua.Bot()
}

// SameDevice resolves the flow for a request: an explicit same_device query
// parameter wins, otherwise the user agent decides.
func SameDevice(r *http.Request) bool {
	if raw := r.URL.Query().Get(QueryParamSameDevice); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	}
	return IsMobile(r.Header.Get("User-Agent"))
}
