// Package route maps concrete API paths onto rate limit bucket keys.
//
// The remote service buckets routes by template plus a small set of "major"
// path parameters (a specific channel, guild, or webhook). Which parameters
// count as major is a fact about the service, not a universal rule, so the
// policy lives in a versioned data table (see Table) rather than in code.
package route

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Params holds concrete values for the placeholders in a path template.
type Params map[string]string

// Key identifies a rate limit bucket for a method+path pair.
//
// Value is the full bucket key. Major is the joined major parameter values,
// kept separately so the bucket store can re-key routes when the service
// reports its canonical bucket identifier.
type Key struct {
	Value string
	Major string
}

// Resolver resolves method+template+params into bucket keys.
type Resolver struct {
	Table *Table
}

// NewResolver returns a resolver backed by the given major-parameter table.
// A nil table falls back to the embedded default table.
func NewResolver(table *Table) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	return &Resolver{Table: table}
}

// Resolve computes the bucket key for a request. Major parameter values are
// retained verbatim; minor parameter placeholders stay as placeholders so
// different instances of the same minor resource share one bucket.
func (r *Resolver) Resolve(method, template string, params Params) (Key, error) {
	if strings.TrimSpace(method) == "" {
		return Key{}, errors.New("method is required")
	}
	template = strings.TrimSpace(template)
	if template == "" || !strings.HasPrefix(template, "/") {
		return Key{}, fmt.Errorf("invalid path template: %q", template)
	}

	major := r.table().MajorFor(template)

	segments := strings.Split(template, "/")
	majorValues := make([]string, 0, 2)
	for i, segment := range segments {
		name, ok := placeholderName(segment)
		if !ok {
			continue
		}
		if !major[name] {
			continue
		}
		value, ok := params[name]
		if !ok || value == "" {
			return Key{}, fmt.Errorf("missing major parameter %q for %s", name, template)
		}
		segments[i] = value
		majorValues = append(majorValues, value)
	}

	return Key{
		Value: method + " " + strings.Join(segments, "/"),
		Major: strings.Join(majorValues, "/"),
	}, nil
}

// Expand substitutes every placeholder in template with its escaped value,
// producing the concrete request path.
func Expand(template string, params Params) (string, error) {
	segments := strings.Split(template, "/")
	for i, segment := range segments {
		name, ok := placeholderName(segment)
		if !ok {
			continue
		}
		value, ok := params[name]
		if !ok || value == "" {
			return "", fmt.Errorf("missing path parameter %q for %s", name, template)
		}
		segments[i] = url.PathEscape(value)
	}
	return strings.Join(segments, "/"), nil
}

func (r *Resolver) table() *Table {
	if r != nil && r.Table != nil {
		return r.Table
	}
	return DefaultTable()
}

func placeholderName(segment string) (string, bool) {
	if len(segment) < 3 || segment[0] != '{' || segment[len(segment)-1] != '}' {
		return "", false
	}
	return segment[1 : len(segment)-1], true
}
