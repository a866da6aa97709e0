package console

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// CreateSchema creates every table the session core persists to. Intended
// for tests and for fresh sqlite files; production deployments migrate out
// of band.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*Profile)(nil),
		(*LoginLog)(nil),
		(*Notification)(nil),
		(*LocalState)(nil),
	}

	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create table").
				WithMetadata(map[string]any{"model": model})
		}
	}

	return nil
}
