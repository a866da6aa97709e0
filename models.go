package console

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfileFieldSessionID is the profile column carrying the session token the
// guard watches.
const ProfileFieldSessionID = "session_id"

// Profile is the guard profile record. The coordinator reads it once per
// session start and treats it as immutable for the session's duration except
// for SessionID, which the session guard watches for change.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          Role           `bun:"user_role,notnull" json:"user_role,omitempty"`
	FullName      string         `bun:"full_name" json:"full_name,omitempty"`
	Username      string         `bun:"username,notnull,unique" json:"username,omitempty"`
	EmployeeID    string         `bun:"employee_id" json:"employee_id,omitempty"`
	Email         string         `bun:"email" json:"email,omitempty"`
	Phone         string         `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string         `bun:"password_hash" json:"password_hash,omitempty"`
	SessionID     string         `bun:"session_id" json:"session_id,omitempty"`
	Status        string         `bun:"status" json:"status,omitempty"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (p *Profile) AddMetadata(key string, val any) *Profile {
	if p.Metadata == nil {
		p.Metadata = make(map[string]any)
	}
	p.Metadata[key] = val
	return p
}

// HasActiveSession reports whether a session token is currently recorded on
// the profile.
func (p *Profile) HasActiveSession() bool {
	return p != nil && p.SessionID != ""
}

// LoginLog is one login/logout audit pair for a device/user combination.
// Entries are append-only; the logout timestamp is filled once at logout and
// entries are never deleted by the client.
type LoginLog struct {
	bun.BaseModel `bun:"table:login_logs,alias:llg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	DeviceID      string     `bun:"device_id,notnull" json:"device_id,omitempty"`
	LoginAt       *time.Time `bun:"login_timestamp,nullzero" json:"login_timestamp,omitempty"`
	LogoutAt      *time.Time `bun:"logout_timestamp,nullzero" json:"logout_timestamp,omitempty"`
	EmployeeID    string     `bun:"employee_id" json:"employee_id,omitempty"`
	FullName      string     `bun:"full_name" json:"full_name,omitempty"`
	Status        string     `bun:"status" json:"status,omitempty"`
}

// Open reports whether the entry still lacks a logout timestamp.
func (l *LoginLog) Open() bool {
	return l != nil && l.LogoutAt == nil
}

// Severity ranks a notification.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityNormal   Severity = "normal"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Notification is a persisted user-facing message. The dispatcher fills the
// bookkeeping fields; callers provide title, body and severity.
type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:ntf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Body          string     `bun:"body" json:"body,omitempty"`
	Severity      Severity   `bun:"severity,notnull" json:"severity,omitempty"`
	Read          bool       `bun:"read" json:"read"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	ReadAt        *time.Time `bun:"read_at,nullzero" json:"read_at,omitempty"`
}

func (n Notification) severityOrDefault() Severity {
	if n.Severity == "" {
		return SeverityNormal
	}
	return n.Severity
}
