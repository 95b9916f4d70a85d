// Package memory is an in-process provider. It is the default for both cache
// tiers and the store used throughout the tests.
package memory

import (
	"context"
	"sync"
	"time"

	pr "github.com/ktevet1983-hub/scorecache/provider"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

// Provider keeps bytes in a map guarded by a RWMutex. Expired entries are
// dropped lazily on read and by an optional sweep loop.
type Provider struct {
	mu       sync.RWMutex
	m        map[string]entry
	maxBytes int
	size     int

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	// MaxBytes caps the summed value size; a Set that would exceed it is
	// rejected with ok=false like a full storage quota. 0 = unlimited.
	MaxBytes int
	// SweepInterval enables a background expiry sweep. 0 = lazy only.
	SweepInterval time.Duration
}

func New(cfg Config) *Provider {
	p := &Provider{m: make(map[string]entry), maxBytes: cfg.MaxBytes}
	if cfg.SweepInterval > 0 {
		p.ticker = time.NewTicker(cfg.SweepInterval)
		p.stopCh = make(chan struct{})
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-p.ticker.C:
					p.sweep(time.Now())
				case <-p.stopCh:
					return
				}
			}
		}()
	}
	return p
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	e, ok := p.m[key]
	p.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		p.mu.Lock()
		if cur, ok := p.m[key]; ok && cur.exp.Equal(e.exp) {
			p.size -= len(cur.v)
			delete(p.m, key)
		}
		p.mu.Unlock()
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := len(p.m[key].v)
	if p.maxBytes > 0 && p.size-prev+len(value) > p.maxBytes {
		return false, nil
	}
	p.size += len(value) - prev
	p.m[key] = entry{v: value, exp: exp}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	if e, ok := p.m[key]; ok {
		p.size -= len(e.v)
		delete(p.m, key)
	}
	p.mu.Unlock()
	return nil
}

// Len reports the number of resident keys (expired ones included until swept).
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.m)
}

// Keys returns a snapshot of resident keys.
func (p *Provider) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.m))
	for k := range p.m {
		out = append(out, k)
	}
	return out
}

func (p *Provider) Close(_ context.Context) error {
	p.closeOnce.Do(func() {
		if p.stopCh != nil {
			close(p.stopCh)
			p.ticker.Stop()
			p.wg.Wait()
		}
	})
	return nil
}

func (p *Provider) sweep(now time.Time) {
	p.mu.Lock()
	for k, e := range p.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			p.size -= len(e.v)
			delete(p.m, k)
		}
	}
	p.mu.Unlock()
}
