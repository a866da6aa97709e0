package console

import (
	"context"

	"github.com/google/uuid"
)

const notificationTopicPrefix = "notifications/"

// StoreDispatcher persists notifications and fans them out to the signed-in
// device through the watch hub. It implements both sides of the contract:
// Notifier for producers (session guard, page code) and NotificationListener
// for the coordinator, which starts per-user listening at sign-in.
//
// Notify is fire and forget. A failed persist is logged and the notification
// still delivered live; the coordinator never sees an error.
type StoreDispatcher struct {
	repo   Notifications
	hub    *WatchHub[*Notification]
	logger Logger
	// onNotice receives every notification delivered to the active listener.
	onNotice func(*Notification)
}

type StoreDispatcherOption func(*StoreDispatcher)

func WithDispatcherLogger(logger Logger) StoreDispatcherOption {
	return func(d *StoreDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithNoticeHandler sets the callback invoked for every notification the
// active listener receives (the UI toast surface, in the original console).
func WithNoticeHandler(fn func(*Notification)) StoreDispatcherOption {
	return func(d *StoreDispatcher) {
		d.onNotice = fn
	}
}

func NewStoreDispatcher(repo Notifications, hub *WatchHub[*Notification], opts ...StoreDispatcherOption) *StoreDispatcher {
	d := &StoreDispatcher{
		repo:   repo,
		hub:    hub,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

// Notify implements Notifier.
func (d *StoreDispatcher) Notify(ctx context.Context, userID string, n Notification) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		d.logger.Warn("notify dropped, bad user id %q: %v", userID, err)
		return
	}

	n.UserID = uid
	n.Severity = n.severityOrDefault()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	record, err := d.repo.Create(ctx, &n)
	if err != nil {
		// Still deliver live; the persisted copy is best effort.
		d.logger.Warn("notification persist failed for user %s: %v", userID, err)
		record = &n
	}

	d.hub.Publish(notificationTopicPrefix+userID, record)
}

// Listen implements NotificationListener. The returned handle joins the
// listener registry so listening ends with the session.
func (d *StoreDispatcher) Listen(userID string) Handle {
	return d.hub.Subscribe(notificationTopicPrefix+userID, func(n *Notification) {
		if n == nil {
			return
		}
		d.logger.Debug("notification for user %s: %s", userID, n.Title)
		if d.onNotice != nil {
			d.onNotice(n)
		}
	})
}

var (
	_ Notifier             = (*StoreDispatcher)(nil)
	_ NotificationListener = (*StoreDispatcher)(nil)
)
