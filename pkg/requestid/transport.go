package requestid

import "net/http"

// Transport sets the X-Request-ID header on outgoing requests from the
// request context, generating an id when the context has none. A request
// that already carries the header is left alone.
type Transport struct {
	// Base is the underlying RoundTripper; nil means http.DefaultTransport.
	Base http.RoundTripper
}

func (t Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get(Header) != "" {
		return base.RoundTrip(req)
	}

	id := FromContext(req.Context())
	if id == "" {
		id = New()
	}
	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())
	req.Header.Set(Header, id)
	return base.RoundTrip(req)
}
