package auth

import (
	"context"
	"time"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/db"
)

// Record is a row of the sessions table. The access token is only ever
// stored sealed.
type Record struct {
	ID          string
	UserID      int64
	Name        string
	Email       string
	Role        api.Role
	SealedToken string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func (r Record) identity(token string) Identity {
	return Identity{
		SessionID:   r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Email:       r.Email,
		Role:        r.Role,
		AccessToken: token,
	}
}

// Repo persists sessions. Get returns db.ErrNotFound for unknown ids.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type PGRepo struct{ db *db.DB }

func NewPGRepo(d *db.DB) *PGRepo { return &PGRepo{db: d} }

func (p *PGRepo) Create(ctx context.Context, rec Record) error {
	return p.db.Exec(ctx, `
INSERT INTO sessions(id,user_id,name,email,role,sealed_token,created_at,expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.ID, rec.UserID, rec.Name, rec.Email, string(rec.Role), rec.SealedToken, rec.CreatedAt, rec.ExpiresAt)
}

func (p *PGRepo) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	var role string
	err := p.db.QueryRow(ctx, `
SELECT id,user_id,name,email,role,sealed_token,created_at,expires_at
FROM sessions
WHERE id=$1`, id).
		Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Email, &role, &rec.SealedToken, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		return Record{}, db.WrapNotFound(err)
	}
	rec.Role = api.Role(role)
	return rec, nil
}

func (p *PGRepo) Delete(ctx context.Context, id string) error {
	return p.db.Exec(ctx, `DELETE FROM sessions WHERE id=$1`, id)
}

func (p *PGRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return p.db.ExecCount(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
}
