package console

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// LocalState is one persisted key-value row of device-local state. It stands
// in for the browser's local storage: a small table in the device database
// that survives restarts.
type LocalState struct {
	bun.BaseModel `bun:"table:local_state,alias:lst"`
	Key           string     `bun:"key,pk" json:"key"`
	Value         string     `bun:"value,notnull" json:"value"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// BunKV persists credential-store values through bun. Operations are
// synchronous with a short internal deadline so a wedged database cannot
// stall the login path; the credential store treats any error as "storage
// unavailable" and falls back to memory.
type BunKV struct {
	db      *bun.DB
	timeout time.Duration
}

type BunKVOption func(*BunKV)

func WithBunKVTimeout(d time.Duration) BunKVOption {
	return func(kv *BunKV) {
		if d > 0 {
			kv.timeout = d
		}
	}
}

func NewBunKV(db *bun.DB, opts ...BunKVOption) *BunKV {
	kv := &BunKV{
		db:      db,
		timeout: 2 * time.Second,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}

	return kv
}

func (kv *BunKV) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), kv.timeout)
	defer cancel()

	record := &LocalState{}
	err := kv.db.NewSelect().
		Model(record).
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return "", false
	}

	return record.Value, true
}

func (kv *BunKV) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), kv.timeout)
	defer cancel()

	now := time.Now()
	record := &LocalState{Key: key, Value: value, UpdatedAt: &now}

	_, err := kv.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	return err
}

func (kv *BunKV) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), kv.timeout)
	defer cancel()

	_, err := kv.db.NewDelete().
		Model((*LocalState)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return nil
	}

	return err
}

var _ KV = (*BunKV)(nil)
