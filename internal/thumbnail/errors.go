package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/gvasconcelos/thumbsvc/internal/extractor"
)

// Kind classifies a thumbnail failure for retry and reporting decisions
type Kind string

const (
	// KindNetwork covers connectivity failures reaching a source or
	// candidate URL. Retryable.
	KindNetwork Kind = "network"
	// KindFormat covers unsupported or corrupt source media. Not
	// retryable.
	KindFormat Kind = "format"
	// KindGeneration covers frame extraction and encoding failures.
	KindGeneration Kind = "generation"
	// KindTimeout covers deadline expiry at any stage. Retryable.
	KindTimeout Kind = "timeout"
	// KindQuota is reserved for upstream rate limiting.
	KindQuota Kind = "quota"
)

// Retryable reports whether a failure of this kind is worth retrying
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindTimeout
}

// Error is a classified thumbnail failure
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("thumbnail %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind. A nil err returns nil.
func NewError(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Classify assigns a Kind to an arbitrary resolution or extraction
// error. Already-classified errors pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var extractionErr *extractor.ExtractionError
	if errors.As(err, &extractionErr) {
		switch extractionErr.Stage {
		case extractor.StageTimeout:
			return &Error{Kind: KindTimeout, Err: err}
		case extractor.StageProbe:
			return &Error{Kind: KindFormat, Err: err}
		default:
			return &Error{Kind: KindGeneration, Err: err}
		}
	}
	if errors.Is(err, extractor.ErrZeroDuration) {
		return &Error{Kind: KindFormat, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Error{Kind: KindTimeout, Err: err}
		}
		return &Error{Kind: KindNetwork, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Kind: KindNetwork, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return &Error{Kind: KindNetwork, Err: err}
	case strings.Contains(msg, "invalid data"), strings.Contains(msg, "unsupported"):
		return &Error{Kind: KindFormat, Err: err}
	case strings.Contains(msg, "too many requests"), strings.Contains(msg, "rate limit"):
		return &Error{Kind: KindQuota, Err: err}
	}

	return &Error{Kind: KindGeneration, Err: err}
}
