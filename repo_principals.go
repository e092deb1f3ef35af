package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Principals is the durable store for principal records. Uniqueness of
// handle and email is enforced by the database constraints, not by a
// check-then-write sequence.
type Principals interface {
	repository.Repository[*Principal]

	Register(ctx context.Context, record *Principal) (*Principal, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *Principal) (*Principal, error)

	GetByHandle(ctx context.Context, handle string) (*Principal, error)
	GetByHandleTx(ctx context.Context, tx bun.IDB, handle string) (*Principal, error)

	ConfirmEnrollment(ctx context.Context, handle string) (*Principal, error)
	ConfirmEnrollmentTx(ctx context.Context, tx bun.IDB, handle string) (*Principal, error)

	TrackAttemptedLogin(ctx context.Context, record *Principal) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, record *Principal) error
	TrackSuccessfulLogin(ctx context.Context, record *Principal) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, record *Principal) error

	Deactivate(ctx context.Context, id uuid.UUID) (*Principal, error)
	Reinstate(ctx context.Context, id uuid.UUID) (*Principal, error)
}

type principals struct {
	repository.Repository[*Principal]
	db *bun.DB
}

var (
	_ Principals                        = (*principals)(nil)
	_ repository.Repository[*Principal] = (*principals)(nil)
	_ PrincipalStore                    = (*principals)(nil)
)

func NewPrincipalsRepository(db *bun.DB) Principals {
	repo := repository.NewRepository[*Principal](db, repository.ModelHandlers[*Principal]{
		NewRecord: func() *Principal { return &Principal{} },
		GetID: func(p *Principal) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Principal, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "handle"
		},
	})

	return &principals{
		Repository: repo,
		db:         db,
	}
}

func (a *principals) Register(ctx context.Context, record *Principal) (*Principal, error) {
	return a.RegisterTx(ctx, a.db, record)
}

func (a *principals) RegisterTx(ctx context.Context, tx bun.IDB, record *Principal) (*Principal, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIdentity
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not create principal")
	}

	return created, nil
}

func (a *principals) GetByHandle(ctx context.Context, handle string) (*Principal, error) {
	return a.GetByHandleTx(ctx, a.db, handle)
}

func (a *principals) GetByHandleTx(ctx context.Context, tx bun.IDB, handle string) (*Principal, error) {
	record := &Principal{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.handle = ?", handle).
		Where("?TableAlias.deleted_at IS NULL").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"handle": handle,
				})
		}
		return nil, err
	}

	return record, nil
}

// ConfirmEnrollment flips the enrollment flag in a single conditional
// update so a concurrent double-confirm can never both succeed.
func (a *principals) ConfirmEnrollment(ctx context.Context, handle string) (*Principal, error) {
	return a.ConfirmEnrollmentTx(ctx, a.db, handle)
}

func (a *principals) ConfirmEnrollmentTx(ctx context.Context, tx bun.IDB, handle string) (*Principal, error) {
	now := time.Now()
	res, err := tx.NewUpdate().
		Model((*Principal)(nil)).
		Set("is_enrolled = ?", true).
		Set("updated_at = ?", now).
		Where("?TableAlias.handle = ?", handle).
		Where("?TableAlias.is_enrolled = ?", false).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not confirm enrollment")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not confirm enrollment")
	}

	record, gerr := a.GetByHandleTx(ctx, tx, handle)
	if gerr != nil {
		return nil, gerr
	}

	if affected == 0 {
		// row exists but the flag was already set
		return nil, ErrEnrollmentConfirmed
	}

	return record, nil
}

func (a *principals) TrackAttemptedLogin(ctx context.Context, record *Principal) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, record)
}

func (a *principals) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, record *Principal) error {
	now := time.Now()
	_, err := tx.NewUpdate().
		Model((*Principal)(nil)).
		Set("login_attempts = login_attempts + 1").
		Set("login_attempt_at = ?", now).
		Where("?TableAlias.id = ?", record.ID).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)

	if err == nil {
		record.LoginAttempts++
		record.LoginAttemptAt = &now
	}

	return err
}

func (a *principals) TrackSuccessfulLogin(ctx context.Context, record *Principal) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, record)
}

func (a *principals) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, record *Principal) error {
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "principals" AS "prn"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("prn".id = ?)
			AND "prn"."deleted_at" IS NULL;
	`, loggedInAt, record.ID).Exec(ctx)

	if err == nil {
		record.LoginAttempts = 0
		record.LoginAttemptAt = nil
		record.LoggedInAt = &loggedInAt
	}

	return err
}

func (a *principals) Deactivate(ctx context.Context, id uuid.UUID) (*Principal, error) {
	return a.setActive(ctx, id, false)
}

func (a *principals) Reinstate(ctx context.Context, id uuid.UUID) (*Principal, error) {
	return a.setActive(ctx, id, true)
}

func (a *principals) setActive(ctx context.Context, id uuid.UUID, active bool) (*Principal, error) {
	record := &Principal{
		ID:     id,
		Active: active,
	}
	return a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(id.String()))
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
