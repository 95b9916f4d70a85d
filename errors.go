package scorecache

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Failure classes. Every error returned by a lookup matches exactly one of
// them with errors.Is.
var (
	ErrNetwork  = errors.New("scorecache: network failure")
	ErrParse    = errors.New("scorecache: parse failure")
	ErrAborted  = errors.New("scorecache: aborted")
	ErrNotFound = errors.New("scorecache: not found")
)

// FetchError describes a failed backend lookup.
type FetchError struct {
	Kind   error  // one of ErrNetwork, ErrParse, ErrAborted, ErrNotFound
	Op     string // e.g. "profile", "players"
	Key    string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString("scorecache: ")
	b.WriteString(e.Op)
	if e.Key != "" {
		fmt.Fprintf(&b, " %q", e.Key)
	}
	b.WriteString(": ")
	b.WriteString(strings.TrimPrefix(kindOf(e.Kind).Error(), "scorecache: "))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FetchError) Unwrap() []error {
	errs := []error{kindOf(e.Kind)}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func kindOf(k error) error {
	if k == nil {
		return ErrNetwork
	}
	return k
}

// Classify maps err to its failure class. A FetchError keeps its Kind; bare
// context cancellation and deadline expiry are aborts; anything unrecognized
// is a network failure.
func Classify(err error) error {
	var fe *FetchError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &fe):
		return kindOf(fe.Kind)
	case errors.Is(err, ErrAborted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return ErrAborted
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrParse):
		return ErrParse
	default:
		return ErrNetwork
	}
}

// IsAborted reports whether err is the result of a cancelled epoch.
// Aborts are expected on navigation and are never shown to the user.
func IsAborted(err error) bool { return err != nil && Classify(err) == ErrAborted }

// abortError wraps the cancellation cause of ctx (e.g. a navigation) as an abort.
func abortError(ctx context.Context, op, key string) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}
	return &FetchError{Kind: ErrAborted, Op: op, Key: key, Err: cause}
}

// PutError reports which tier failed to store a value. A durable failure alone
// never surfaces here; it is logged and reported through Hooks instead.
type PutError struct {
	Key         string
	EncodeErr   error
	VolatileErr error
}

func (e *PutError) Error() string {
	switch {
	case e.EncodeErr != nil:
		return fmt.Sprintf("scorecache: put %q: encode: %v", e.Key, e.EncodeErr)
	case e.VolatileErr != nil:
		return fmt.Sprintf("scorecache: put %q: volatile tier: %v", e.Key, e.VolatileErr)
	default:
		return fmt.Sprintf("scorecache: put %q: unknown error", e.Key)
	}
}

func (e *PutError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.EncodeErr != nil {
		errs = append(errs, e.EncodeErr)
	}
	if e.VolatileErr != nil {
		errs = append(errs, e.VolatileErr)
	}
	return errs
}
