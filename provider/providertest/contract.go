// Package providertest holds a behavioural check every provider must pass.
package providertest

import (
	"bytes"
	"context"
	"testing"
	"time"

	pr "github.com/ktevet1983-hub/scorecache/provider"
)

// Run exercises the provider contract: miss, set/get byte transparency,
// overwrite, delete and delete-of-missing.
func Run(t *testing.T, p pr.Provider) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := p.Get(ctx, "nat:10:2024:v1"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}

	val := []byte{'S', 'C', 'C', 'E', 0, 1, 2, 0xFF}
	ok, err := p.Set(ctx, "nat:10:2024:v1", val, 0, time.Hour)
	if err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	got, ok, err := p.Get(ctx, "nat:10:2024:v1")
	if err != nil || !ok {
		t.Fatalf("Get after Set: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, val) {
		t.Fatalf("provider is not byte transparent: got %x want %x", got, val)
	}

	if ok, err := p.Set(ctx, "nat:10:2024:v1", []byte("second"), 0, time.Hour); err != nil || !ok {
		t.Fatalf("overwrite: ok=%v err=%v", ok, err)
	}
	got, _, _ = p.Get(ctx, "nat:10:2024:v1")
	if string(got) != "second" {
		t.Fatalf("overwrite not visible: %q", got)
	}

	if err := p.Del(ctx, "nat:10:2024:v1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "nat:10:2024:v1"); ok {
		t.Fatalf("expected miss after Del")
	}
	if err := p.Del(ctx, "never-written"); err != nil {
		t.Fatalf("Del of missing key should not fail: %v", err)
	}
}
