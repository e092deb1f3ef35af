package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenKind tags a signed token with the session stage it unlocks
type TokenKind string

const (
	// TokenKindPreAuth is issued after a password check and is accepted
	// only by the code-verification step.
	TokenKindPreAuth TokenKind = "pre-auth"
	// TokenKindAccess is the short-lived bearer credential for resources.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the long-lived credential accepted only by the
	// renewal operation.
	TokenKindRefresh TokenKind = "refresh"
)

// EnrollmentStatus is the second-factor enrollment dimension of a principal
type EnrollmentStatus string

const (
	// EnrollmentUnenrolled means no shared secret has been issued yet.
	EnrollmentUnenrolled EnrollmentStatus = "unenrolled"
	// EnrollmentPending means a secret was issued but never confirmed.
	EnrollmentPending EnrollmentStatus = "pending_confirmation"
	// EnrollmentConfirmed is terminal; it is never revisited.
	EnrollmentConfirmed EnrollmentStatus = "enrolled"
)

// Principal is the durable account model
type Principal struct {
	bun.BaseModel  `bun:"table:principals,alias:prn"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Handle         string     `bun:"handle,notnull,unique" json:"handle,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	TOTPSecret     string     `bun:"totp_secret" json:"-"`
	Enrolled       bool       `bun:"is_enrolled" json:"is_enrolled,omitempty"`
	Active         bool       `bun:"is_active" json:"is_active,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnrollmentState derives the enrollment dimension from the stored fields.
// The shared secret is issued at registration, so persisted records only
// ever sit in pending or enrolled.
func (p *Principal) EnrollmentState() EnrollmentStatus {
	switch {
	case p.TOTPSecret == "":
		return EnrollmentUnenrolled
	case !p.Enrolled:
		return EnrollmentPending
	default:
		return EnrollmentConfirmed
	}
}

// IsActive reports whether the principal can authenticate at all
func (p *Principal) IsActive() bool {
	return p.Active && p.DeletedAt == nil
}
