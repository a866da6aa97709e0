package console

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type LoginLogs interface {
	repository.Repository[*LoginLog]

	Append(ctx context.Context, entry *LoginLog) (*LoginLog, error)
	AppendTx(ctx context.Context, tx bun.IDB, entry *LoginLog) (*LoginLog, error)
	Close(ctx context.Context, id uuid.UUID, at time.Time) error
	CloseTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error
	OpenForDevice(ctx context.Context, deviceID string) ([]*LoginLog, error)
}

type loginLogs struct {
	repository.Repository[*LoginLog]
	db *bun.DB
}

var (
	_ LoginLogs                        = (*loginLogs)(nil)
	_ repository.Repository[*LoginLog] = (*loginLogs)(nil)
)

func NewLoginLogsRepository(db *bun.DB) LoginLogs {
	repo := repository.NewRepository[*LoginLog](db, repository.ModelHandlers[*LoginLog]{
		NewRecord: func() *LoginLog { return &LoginLog{} },
		GetID: func(l *LoginLog) uuid.UUID {
			if l == nil {
				return uuid.Nil
			}
			return l.ID
		},
		SetID: func(l *LoginLog, id uuid.UUID) {
			if l != nil {
				l.ID = id
			}
		},
	})

	return &loginLogs{
		Repository: repo,
		db:         db,
	}
}

// Append inserts a new open entry. The login timestamp defaults to now and
// the id is assigned here so the caller can reference the entry locally.
func (r *loginLogs) Append(ctx context.Context, entry *LoginLog) (*LoginLog, error) {
	return r.AppendTx(ctx, r.db, entry)
}

func (r *loginLogs) AppendTx(ctx context.Context, tx bun.IDB, entry *LoginLog) (*LoginLog, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.LoginAt == nil {
		now := time.Now()
		entry.LoginAt = &now
	}
	entry.LogoutAt = nil

	return r.Repository.CreateTx(ctx, tx, entry)
}

// Close fills the logout timestamp. Entries are never deleted; a second
// close simply overwrites the timestamp, which keeps logout idempotent.
func (r *loginLogs) Close(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.CloseTx(ctx, r.db, id, at)
}

func (r *loginLogs) CloseTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	res, err := tx.NewUpdate().
		Model((*LoginLog)(nil)).
		Set("logout_timestamp = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

// OpenForDevice lists the entries on a device that never got a logout
// timestamp, oldest first. Useful for reconciling crashed sessions.
func (r *loginLogs) OpenForDevice(ctx context.Context, deviceID string) ([]*LoginLog, error) {
	var records []*LoginLog
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.device_id = ?", deviceID).
		Where("?TableAlias.logout_timestamp IS NULL").
		Order("login_timestamp ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}
