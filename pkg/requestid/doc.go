// Package requestid correlates HTTP requests across the notification client
// and the development server.
//
// Middleware accepts a well-formed X-Request-ID header or generates a UUID,
// stores it in the request context and echoes it in the response. Transport
// does the reverse for outgoing calls: it forwards the id found in the
// request context, generating one when absent, so REST calls made by the
// client show up under the same id in server logs.
//
//	handler := requestid.Middleware(mux)
//	client := &http.Client{Transport: requestid.Transport{}}
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
