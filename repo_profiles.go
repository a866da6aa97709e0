package console

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Profiles interface {
	repository.Repository[*Profile]

	GetByUsername(ctx context.Context, username string) (*Profile, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Profile, error)
	Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)
	UpdateSessionID(ctx context.Context, id uuid.UUID, token string) error
	UpdateSessionIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error
	UpdateField(ctx context.Context, id uuid.UUID, column string, value any) error
	UpdateFieldTx(ctx context.Context, tx bun.IDB, id uuid.UUID, column string, value any) error
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

func (r *profiles) Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *profiles) CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	prepareProfileDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *profiles) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	return r.GetByUsernameTx(ctx, r.db, username)
}

func (r *profiles) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", strings.TrimSpace(username)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrProfileNotFound.WithMetadata(map[string]any{
				"username": username,
			})
		}
		return nil, err
	}

	return record, nil
}

func (r *profiles) UpdateSessionID(ctx context.Context, id uuid.UUID, token string) error {
	return r.UpdateSessionIDTx(ctx, r.db, id, token)
}

func (r *profiles) UpdateSessionIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	return r.UpdateFieldTx(ctx, tx, id, ProfileFieldSessionID, token)
}

func (r *profiles) UpdateField(ctx context.Context, id uuid.UUID, column string, value any) error {
	return r.UpdateFieldTx(ctx, r.db, id, column, value)
}

func (r *profiles) UpdateFieldTx(ctx context.Context, tx bun.IDB, id uuid.UUID, column string, value any) error {
	res, err := tx.NewUpdate().
		Model((*Profile)(nil)).
		Set("? = ?", bun.Ident(column), value).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrProfileNotFound.WithMetadata(map[string]any{
			"id":     id.String(),
			"column": column,
		})
	}

	return nil
}

func prepareProfileDefaults(record *Profile) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleStaff
	}

	if record.Status == "" {
		record.Status = "active"
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
