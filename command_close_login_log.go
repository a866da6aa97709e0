package console

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CloseLoginLogMessage stamps the logout timestamp on an audit entry. A
// missing entry is not an error: logout must stay best effort even when the
// local log id points at a record another process already cleaned up.
type CloseLoginLogMessage struct {
	LogID      uuid.UUID
	At         time.Time
	OnResponse func(closed bool)
}

func (m CloseLoginLogMessage) Type() string { return "session.close_login_log" }

type CloseLoginLogHandler struct {
	repo RepositoryManager
}

func NewCloseLoginLogHandler(repo RepositoryManager) *CloseLoginLogHandler {
	return &CloseLoginLogHandler{repo: repo}
}

func (h *CloseLoginLogHandler) Execute(ctx context.Context, event CloseLoginLogMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled while closing login log",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CloseLoginLogHandler) execute(ctx context.Context, event CloseLoginLogMessage) error {
	if event.LogID == uuid.Nil {
		return goerrors.New("close login log requires an entry id", goerrors.CategoryBadInput)
	}

	at := event.At
	if at.IsZero() {
		at = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	closed := true
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.LoginLogs().CloseTx(ctx, tx, event.LogID, at); err != nil {
			if repository.IsRecordNotFound(err) {
				closed = false
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to close login log entry")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to close login log")
	}

	if event.OnResponse != nil {
		event.OnResponse(closed)
	}

	return nil
}
