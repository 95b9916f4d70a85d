package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	pr "github.com/ktevet1983-hub/scorecache/provider"
)

// Provider is a durable-tier store on an embedded badger database. Entries
// carry the session TTL and disappear with it; a page reload inside the
// session reopens the same directory and finds them again.
type Provider struct {
	db     *badgerdb.DB
	ownsDB bool
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	// Dir is the on-disk location. Empty with InMemory=true keeps everything in RAM.
	Dir      string
	InMemory bool

	MemTableSize int64 // per memtable; 0 => 16 MiB
}

func New(cfg Config) (*Provider, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, errors.New("badger provider: Dir is required unless InMemory")
	}
	opts := badgerdb.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil).WithMemTableSize(coalesce(cfg.MemTableSize, 16<<20))
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger provider: open: %w", err)
	}
	return &Provider{db: db, ownsDB: true}, nil
}

// NewWithDB wraps an already opened database; Close leaves it open.
func NewWithDB(db *badgerdb.DB) *Provider { return &Provider{db: db} }

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out []byte
	err := p.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := p.db.Update(func(txn *badgerdb.Txn) error {
		e := badgerdb.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if errors.Is(err, badgerdb.ErrTxnTooBig) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.db.Update(func(txn *badgerdb.Txn) error {
		err := txn.Delete([]byte(key))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (p *Provider) Close(_ context.Context) error {
	if !p.ownsDB {
		return nil
	}
	return p.db.Close()
}

func coalesce(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}
