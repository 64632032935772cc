package scraper

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoTeachers is returned when the directory page yields no teacher
	// links.
	ErrNoTeachers = errors.New("scraper: no teachers found in directory")
	// ErrRetriesExhausted marks a teacher abandoned after the retry cap.
	ErrRetriesExhausted = errors.New("scraper: retries exhausted")
	// ErrSessionExpired matches every PortalError of kind KindExpiredSession.
	// The cookie must be renewed before another run can succeed.
	ErrSessionExpired = errors.New("scraper: portal session expired")
)

// ErrorKind labels a failed portal request in logs, the run summary and the
// errors metric.
type ErrorKind string

const (
	KindTimeout        ErrorKind = "timeout"
	KindConnection     ErrorKind = "connection"
	KindExpiredSession ErrorKind = "expired_session"
	KindForbidden      ErrorKind = "forbidden"
	KindNotFound       ErrorKind = "not_found"
	KindRateLimited    ErrorKind = "rate_limited"
	KindServer         ErrorKind = "server"
	KindOther          ErrorKind = "other"
)

// PortalError is a classified failure of a single portal request.
type PortalError struct {
	Kind   ErrorKind
	URL    string
	Status int
	Err    error
}

func (e *PortalError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (http %d)", e.Status)
	}
	if e.URL != "" {
		b.WriteString(" ")
		b.WriteString(e.URL)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *PortalError) Unwrap() error {
	return e.Err
}

func (e *PortalError) Is(target error) bool {
	return target == ErrSessionExpired && e.Kind == KindExpiredSession
}

// Retryable reports whether repeating the request with the same cookie can
// succeed.
func (e *PortalError) Retryable() bool {
	return e.Kind != KindExpiredSession
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var pe *PortalError
	if errors.As(err, &pe) {
		return string(pe.Kind)
	}
	return string(KindOther)
}

// isLoginPath reports whether the portal bounced a request to its sign-in
// page, which it does for every URL once the session cookie is stale.
func isLoginPath(path string) bool {
	return strings.Contains(strings.ToLower(path), "login")
}
