package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
)

// encodedBody produces the wire body for a request. open is called once per
// attempt so that JSON and buffered multipart bodies replay cleanly on retry;
// single-shot (streaming) bodies return errSingleShot on the second call.
type encodedBody struct {
	contentType string
	open        func() (io.ReadCloser, error)
}

var errSingleShot = errors.New("streaming body cannot be replayed")

// encodeBody prepares the request body according to its kind.
func encodeBody(r *Request) (*encodedBody, error) {
	switch r.BodyKind {
	case BodyNone:
		return nil, nil
	case BodyJSON:
		return encodeJSON(r.Body)
	case BodyMultipart:
		return encodeMultipart(r.Body, r.Files)
	default:
		return nil, fmt.Errorf("unknown body kind %d", r.BodyKind)
	}
}

func encodeJSON(body any) (*encodedBody, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json body: %w", err)
	}
	return &encodedBody{
		contentType: "application/json",
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(raw)), nil
		},
	}, nil
}

// encodeMultipart builds a multipart/form-data body with a structured
// "payload_json" metadata part followed by one "files[i]" part per
// attachment, preserving exact byte content and declared names.
//
// When every attachment is byte-backed the body is buffered once and
// replayable. Any Reader-backed attachment switches to a streamed pipe so
// large uploads avoid full buffering; such bodies are single-shot.
func encodeMultipart(body any, files []File) (*encodedBody, error) {
	if len(files) == 0 {
		return nil, errors.New("multipart request has no attachments")
	}

	var metadata []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode multipart metadata: %w", err)
		}
		metadata = raw
	}

	streaming := false
	for i, f := range files {
		if f.Name == "" {
			return nil, fmt.Errorf("attachment %d has no name", i)
		}
		if f.Reader != nil && f.Data != nil {
			return nil, fmt.Errorf("attachment %q sets both Data and Reader", f.Name)
		}
		if f.Reader == nil && f.Data == nil {
			return nil, fmt.Errorf("attachment %q has no content", f.Name)
		}
		if f.Reader != nil {
			streaming = true
		}
	}

	if !streaming {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		if err := writeParts(writer, metadata, files); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("finalize multipart body: %w", err)
		}
		raw := buf.Bytes()
		return &encodedBody{
			contentType: writer.FormDataContentType(),
			open: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(raw)), nil
			},
		}, nil
	}

	used := false
	writerForType := multipart.NewWriter(io.Discard)
	boundary := writerForType.Boundary()
	return &encodedBody{
		contentType: writerForType.FormDataContentType(),
		open: func() (io.ReadCloser, error) {
			if used {
				return nil, errSingleShot
			}
			used = true

			pr, pw := io.Pipe()
			writer := multipart.NewWriter(pw)
			if err := writer.SetBoundary(boundary); err != nil {
				return nil, err
			}
			go func() {
				err := writeParts(writer, metadata, files)
				if err == nil {
					err = writer.Close()
				}
				pw.CloseWithError(err) // nolint:errcheck // pipe close carries the error
			}()
			return pr, nil
		},
	}, nil
}

func writeParts(writer *multipart.Writer, metadata []byte, files []File) error {
	if metadata != nil {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="payload_json"`}
		header["Content-Type"] = []string{"application/json"}
		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create metadata part: %w", err)
		}
		if _, err := part.Write(metadata); err != nil {
			return fmt.Errorf("write metadata part: %w", err)
		}
	}

	for i, f := range files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="files[%d]"; filename=%q`, i, f.Name)}
		header["Content-Type"] = []string{contentType}
		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create part for %q: %w", f.Name, err)
		}
		if f.Data != nil {
			if _, err := part.Write(f.Data); err != nil {
				return fmt.Errorf("write attachment %q: %w", f.Name, err)
			}
			continue
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return fmt.Errorf("stream attachment %q: %w", f.Name, err)
		}
	}
	return nil
}
