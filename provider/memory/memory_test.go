package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ktevet1983-hub/scorecache/provider/providertest"
)

func TestContract(t *testing.T) {
	p := New(Config{})
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	providertest.Run(t, p)
}

func TestQuotaRejectsWrite(t *testing.T) {
	ctx := context.Background()
	p := New(Config{MaxBytes: 8})
	t.Cleanup(func() { _ = p.Close(ctx) })

	if ok, err := p.Set(ctx, "a", []byte("12345"), 0, 0); err != nil || !ok {
		t.Fatalf("first set: ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "b", []byte("12345"), 0, 0); err != nil || ok {
		t.Fatalf("expected quota rejection, ok=%v err=%v", ok, err)
	}
	// overwriting in place only counts the delta
	if ok, _ := p.Set(ctx, "a", []byte("12345678"), 0, 0); !ok {
		t.Fatalf("overwrite within quota rejected")
	}
	_ = p.Del(ctx, "a")
	if ok, _ := p.Set(ctx, "b", []byte("12345"), 0, 0); !ok {
		t.Fatalf("set after delete rejected")
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	p := New(Config{SweepInterval: 10 * time.Millisecond})
	t.Cleanup(func() { _ = p.Close(ctx) })

	_, _ = p.Set(ctx, "short", []byte("x"), 0, 20*time.Millisecond)
	_, _ = p.Set(ctx, "forever", []byte("y"), 0, 0)

	time.Sleep(80 * time.Millisecond)
	if _, ok, _ := p.Get(ctx, "short"); ok {
		t.Fatalf("expired entry still visible")
	}
	if _, ok, _ := p.Get(ctx, "forever"); !ok {
		t.Fatalf("entry without TTL disappeared")
	}
	if n := p.Len(); n != 1 {
		t.Fatalf("sweep should leave one key, got %d", n)
	}
}
