package testutil

import (
	"net/http"

	"landlocked/pkg/requestcontext"
)

// WithRequestID tags the request context the way the request-id middleware does.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
