package httpclient

import (
	"net/http"

	"github.com/elidorascodex/tecflow/internal/utils/requestctx"
)

type requestIDDoer struct {
	next Doer
}

// WithRequestID forwards the request id found in the request context to upstream APIs.
// An explicit header on the request wins.
func WithRequestID(next Doer) Doer {
	return requestIDDoer{next: next}
}

func (d requestIDDoer) Do(req *http.Request) (*http.Response, error) {
	if id := requestctx.RequestID(req.Context()); id != "" && req.Header.Get(requestctx.Header) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(requestctx.Header, id)
	}
	return d.next.Do(req)
}
