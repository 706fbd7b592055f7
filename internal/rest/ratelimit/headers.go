package ratelimit

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Rate limit headers emitted by the Accord REST API. Parsing is centralized
// here so the scheduler never touches header names directly.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderResetAfter = "X-RateLimit-Reset-After"
	HeaderBucket     = "X-RateLimit-Bucket"
	HeaderGlobal     = "X-RateLimit-Global"
	HeaderScope      = "X-RateLimit-Scope"
	HeaderRetryAfter = "Retry-After"
)

// ScopeGlobal marks a 429 that exhausts the account-wide quota.
const ScopeGlobal = "global"

// Headers is the parsed rate limit state carried by one response.
type Headers struct {
	Limit      int
	Remaining  int
	Reset      time.Time
	ResetAfter time.Duration
	Bucket     string
	Global     bool
	Scope      string
	RetryAfter time.Duration

	// HasState reports whether the quota triple (limit/remaining/reset) was
	// present and parseable. Responses without it degrade the bucket to
	// unknown rather than failing the call.
	HasState bool
}

// ParseHeaders extracts rate limit state from response headers.
//
// Reset-After is preferred over the absolute Reset timestamp when both are
// present, keeping the computed reset time immune to wall clock skew between
// client and service.
func ParseHeaders(h http.Header, now time.Time) (Headers, error) {
	parsed := Headers{
		Bucket: strings.TrimSpace(h.Get(HeaderBucket)),
		Scope:  strings.TrimSpace(h.Get(HeaderScope)),
		Global: strings.EqualFold(strings.TrimSpace(h.Get(HeaderGlobal)), "true"),
	}

	if retry := strings.TrimSpace(h.Get(HeaderRetryAfter)); retry != "" {
		seconds, err := strconv.ParseFloat(retry, 64)
		if err != nil {
			if at, perr := http.ParseTime(retry); perr == nil {
				parsed.RetryAfter = at.Sub(now)
			} else {
				return parsed, fmt.Errorf("unparseable %s header: %q", HeaderRetryAfter, retry)
			}
		} else {
			parsed.RetryAfter = secondsToDuration(seconds)
		}
	}

	limitRaw := strings.TrimSpace(h.Get(HeaderLimit))
	remainingRaw := strings.TrimSpace(h.Get(HeaderRemaining))
	if limitRaw == "" && remainingRaw == "" {
		return parsed, nil
	}

	limit, err := strconv.Atoi(limitRaw)
	if err != nil {
		return parsed, fmt.Errorf("unparseable %s header: %q", HeaderLimit, limitRaw)
	}
	remaining, err := strconv.Atoi(remainingRaw)
	if err != nil {
		return parsed, fmt.Errorf("unparseable %s header: %q", HeaderRemaining, remainingRaw)
	}
	if remaining < 0 {
		remaining = 0
	}

	reset, err := parseReset(h, now)
	if err != nil {
		return parsed, err
	}

	parsed.Limit = limit
	parsed.Remaining = remaining
	parsed.Reset = reset
	parsed.ResetAfter = reset.Sub(now)
	parsed.HasState = true
	return parsed, nil
}

func parseReset(h http.Header, now time.Time) (time.Time, error) {
	if after := strings.TrimSpace(h.Get(HeaderResetAfter)); after != "" {
		seconds, err := strconv.ParseFloat(after, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable %s header: %q", HeaderResetAfter, after)
		}
		return now.Add(secondsToDuration(seconds)), nil
	}

	raw := strings.TrimSpace(h.Get(HeaderReset))
	if raw == "" {
		return time.Time{}, fmt.Errorf("response has quota headers but no %s or %s", HeaderResetAfter, HeaderReset)
	}
	epoch, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable %s header: %q", HeaderReset, raw)
	}
	sec, frac := math.Modf(epoch)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))), nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
