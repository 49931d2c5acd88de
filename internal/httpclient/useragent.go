package httpclient

import (
	"fmt"
	"net/http"

	"github.com/tfve/tfve/version"
)

const userAgentFormat = "tfve/%s"

// UserAgentString returns the User-Agent header value sent with every
// API request.
func UserAgentString() string {
	return fmt.Sprintf(userAgentFormat, version.String())
}

type userAgentRoundTripper struct {
	inner     http.RoundTripper
	userAgent string
}

// NewUserAgentRoundTripper wraps inner so that requests without an explicit
// User-Agent header get the default one.
func NewUserAgentRoundTripper(inner http.RoundTripper) http.RoundTripper {
	return &userAgentRoundTripper{inner: inner, userAgent: UserAgentString()}
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if _, ok := req.Header["User-Agent"]; !ok {
		req.Header.Set("User-Agent", rt.userAgent)
	}
	return rt.inner.RoundTrip(req)
}
