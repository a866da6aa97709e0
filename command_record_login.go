package console

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordLoginMessage claims the session for a device and appends the audit
// entry in one transaction. LogID is generated by the caller so the local
// credential store can reference the entry before the write lands.
type RecordLoginMessage struct {
	Profile    *Profile
	DeviceID   string `json:"device_id" example:"8c1f2a44-9b1e-4a6c-b7d0-0f2f6a1f9d20" doc:"Stable per-browser device identifier."`
	SessionID  string `json:"session_id" doc:"Freshly minted session token for this login."`
	LogID      uuid.UUID
	OnResponse func(resp *RecordLoginResponse)
}

func (m RecordLoginMessage) Type() string { return "session.record_login" }

type RecordLoginResponse struct {
	Log     *LoginLog
	Success bool
}

type RecordLoginHandler struct {
	repo RepositoryManager
	now  func() time.Time
}

func NewRecordLoginHandler(repo RepositoryManager) *RecordLoginHandler {
	return &RecordLoginHandler{
		repo: repo,
		now:  time.Now,
	}
}

func (h *RecordLoginHandler) Execute(ctx context.Context, event RecordLoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login recording",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RecordLoginHandler) execute(ctx context.Context, event RecordLoginMessage) error {
	if event.Profile == nil {
		return goerrors.New("record login requires a profile", goerrors.CategoryBadInput)
	}

	resp := &RecordLoginResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// claiming the session is what forces any other device out
		if err := h.repo.Profiles().UpdateSessionIDTx(ctx, tx, event.Profile.ID, event.SessionID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to claim session for device")
		}

		at := h.now()
		entry := &LoginLog{
			ID:         event.LogID,
			UserID:     event.Profile.ID,
			DeviceID:   event.DeviceID,
			LoginAt:    &at,
			EmployeeID: event.Profile.EmployeeID,
			FullName:   event.Profile.FullName,
			Status:     "active",
		}

		created, err := h.repo.LoginLogs().AppendTx(ctx, tx, entry)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to append login log entry")
		}

		resp.Log = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record login")
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
