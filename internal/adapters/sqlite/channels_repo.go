package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
)

// ChannelsRepository persiste la bibliothèque complète, une ligne par
// channel, valeur en JSON. ReplaceAll remplace la collection en bloc dans
// une transaction: le contrat est read-modify-write, jamais de patch.
type ChannelsRepository struct {
	db *sql.DB
}

func NewChannelsRepository(db *sql.DB) *ChannelsRepository {
	return &ChannelsRepository{db: db}
}

func (r *ChannelsRepository) AllRaw(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value_json FROM channels`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var name string
		var b []byte
		if err := rows.Scan(&name, &b); err != nil {
			return nil, err
		}
		out[name] = json.RawMessage(b)
	}
	return out, rows.Err()
}

func (r *ChannelsRepository) ReplaceAll(ctx context.Context, channels map[string]domain.Channel) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM channels`); err != nil {
		_ = tx.Rollback()
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for name, ch := range channels {
		b, err := json.Marshal(ch)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO channels(name, value_json, updated_at) VALUES(?, ?, ?)`, name, b, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
