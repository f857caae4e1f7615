package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/omnidine/internal/db"
)

// Repo persists one cart per user. Saves are unconditional, so concurrent
// writers from different tabs overwrite each other.
type Repo interface {
	Load(ctx context.Context, userID int64) (Cart, error)
	Save(ctx context.Context, c Cart) error
	Delete(ctx context.Context, userID int64) error
}

type PGRepo struct{ db *db.DB }

func NewPGRepo(d *db.DB) *PGRepo { return &PGRepo{db: d} }

// Load returns an empty cart for users that have none.
func (r *PGRepo) Load(ctx context.Context, userID int64) (Cart, error) {
	c := Cart{UserID: userID}
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT lines, updated_at FROM carts WHERE user_id=$1`, userID).Scan(&raw, &c.UpdatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return c, nil
		}
		return Cart{}, db.WrapNotFound(err)
	}
	if err := json.Unmarshal(raw, &c.Lines); err != nil {
		return Cart{}, err
	}
	return c, nil
}

func (r *PGRepo) Save(ctx context.Context, c Cart) error {
	lines := c.Lines
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return r.db.Exec(ctx, `
INSERT INTO carts(user_id, lines, updated_at) VALUES ($1, $2::jsonb, now())
ON CONFLICT (user_id) DO UPDATE SET lines=EXCLUDED.lines, updated_at=now()`,
		c.UserID, string(raw))
}

func (r *PGRepo) Delete(ctx context.Context, userID int64) error {
	return r.db.Exec(ctx, `DELETE FROM carts WHERE user_id=$1`, userID)
}

// PurgeIdle drops carts untouched since before.
func (r *PGRepo) PurgeIdle(ctx context.Context, before time.Time) (int64, error) {
	return r.db.ExecCount(ctx, `DELETE FROM carts WHERE updated_at < $1`, before)
}
