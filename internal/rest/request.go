package rest

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/accordhq/accord/internal/rest/route"
)

// BodyKind selects how a request body is encoded on the wire.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyJSON
	BodyMultipart
)

// File is one binary attachment on a multipart request. Exactly one of Data
// or Reader must be set; Reader sources stream without buffering but cannot
// be replayed, so a request carrying one fails instead of retrying.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Reader      io.Reader
}

// Request describes one API call before it enters the dispatcher. Resource
// builders construct it from typed arguments; the dispatcher treats path and
// body as opaque beyond bucket keying.
type Request struct {
	Method   string
	Template string
	Params   route.Params
	BodyKind BodyKind
	Body     any
	Files    []File
	Query    url.Values
	Header   http.Header
	NoRetry  bool
	Deadline time.Duration

	// ID correlates log lines and errors for one submission across retries.
	ID string

	// seq is the submission order stamped by the client, logged so
	// interleaved bucket queues can be read back in order.
	seq     uint64
	attempt int
}

// NewRequest builds a request descriptor for a path template.
func NewRequest(method, template string, params route.Params) *Request {
	return &Request{
		Method:   method,
		Template: template,
		Params:   params,
		Header:   make(http.Header),
		ID:       uuid.New().String(),
	}
}

// RequestOpt mutates a request before it is enqueued.
type RequestOpt func(*Request)

// WithJSONBody sets a JSON-encoded body.
func WithJSONBody(body any) RequestOpt {
	return func(r *Request) {
		r.BodyKind = BodyJSON
		r.Body = body
	}
}

// WithFiles attaches binary files, switching the request to multipart
// encoding. body, when non-nil, becomes the structured metadata part.
func WithFiles(body any, files ...File) RequestOpt {
	return func(r *Request) {
		r.BodyKind = BodyMultipart
		r.Body = body
		r.Files = files
	}
}

// WithReason attaches an audit log reason header.
func WithReason(reason string) RequestOpt {
	return func(r *Request) {
		if reason != "" {
			r.Header.Set("X-Audit-Log-Reason", url.PathEscape(reason))
		}
	}
}

// WithQuery appends query parameters. Keys with no values produce no query
// fragment at all.
func WithQuery(values url.Values) RequestOpt {
	return func(r *Request) {
		if len(values) == 0 {
			return
		}
		if r.Query == nil {
			r.Query = url.Values{}
		}
		for key, vals := range values {
			for _, v := range vals {
				r.Query.Add(key, v)
			}
		}
	}
}

// WithQueryValue appends a single query parameter.
func WithQueryValue(key, value string) RequestOpt {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = url.Values{}
		}
		r.Query.Add(key, value)
	}
}

// WithHeader sets an extra request header.
func WithHeader(key, value string) RequestOpt {
	return func(r *Request) {
		r.Header.Set(key, value)
	}
}

// WithNoRetry disables transparent retries: 429 and 5xx surface on the first
// attempt.
func WithNoRetry() RequestOpt {
	return func(r *Request) {
		r.NoRetry = true
	}
}

// WithDeadline bounds the whole call, queue wait and retries included.
func WithDeadline(d time.Duration) RequestOpt {
	return func(r *Request) {
		r.Deadline = d
	}
}

// Response is the dispatcher's result: status, headers, and the raw body.
// The dispatcher does not interpret the body; callers decode it.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}
