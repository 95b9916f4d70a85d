package scorecache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{nil, nil},
		{context.Canceled, ErrAborted},
		{fmt.Errorf("get: %w", context.DeadlineExceeded), ErrAborted},
		{&FetchError{Kind: ErrParse, Op: "squad"}, ErrParse},
		{&FetchError{Kind: ErrNotFound, Op: "profile", Key: "9"}, ErrNotFound},
		{&FetchError{Op: "profile"}, ErrNetwork},
		{errors.New("connection reset"), ErrNetwork},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestFetchErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("team not found")
	err := &FetchError{Kind: ErrNetwork, Op: "squad", Key: "10:2024", Status: 404, Err: cause}
	msg := err.Error()
	for _, part := range []string{"squad", `"10:2024"`, "network failure", "status 404", "team not found"} {
		if !strings.Contains(msg, part) {
			t.Fatalf("message %q lacks %q", msg, part)
		}
	}
	if !errors.Is(err, ErrNetwork) || !errors.Is(err, cause) {
		t.Fatalf("unwrap chain broken")
	}
	if errors.Is(err, ErrParse) {
		t.Fatalf("network failure matched ErrParse")
	}
}

func TestAbortErrorCarriesCause(t *testing.T) {
	navigatedAway := errors.New("navigated away")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(navigatedAway)
	err := abortError(ctx, "nat", "nat:10:2024:1:v1")
	if !IsAborted(err) || !errors.Is(err, navigatedAway) {
		t.Fatalf("abortError = %v", err)
	}
}

func TestPutErrorUnwrap(t *testing.T) {
	vol := errors.New("oom")
	err := &PutError{Key: "k", VolatileErr: vol}
	if !errors.Is(err, vol) || !strings.Contains(err.Error(), "volatile") {
		t.Fatalf("PutError = %v", err)
	}
	if IsAborted(err) {
		t.Fatalf("PutError classified as abort")
	}
}

func TestClassifyKeepsFetchErrorKind(t *testing.T) {
	// a client timeout wraps DeadlineExceeded but is not a navigation abort
	err := &FetchError{Kind: ErrNetwork, Op: "squad", Err: fmt.Errorf("Get: %w", context.DeadlineExceeded)}
	if Classify(err) != ErrNetwork || IsAborted(err) {
		t.Fatalf("Classify = %v", Classify(err))
	}
}
