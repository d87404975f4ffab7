package bank

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLStore keeps items in the "items" table created by db.Open. The
// statements use $N placeholders, which both sqlite and pgx accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) LoadItems(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,domain,text,valence,difficulty,scale_min,scale_max
		FROM items ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		var valence string
		if err := rows.Scan(&it.ID, &it.Domain, &it.Text, &valence, &it.Difficulty, &it.Scale.Min, &it.Scale.Max); err != nil {
			return nil, err
		}
		it.Valence = Valence(valence)
		out = append(out, it)
	}
	return out, rows.Err()
}

// PutItems inserts a batch in one transaction. Ids must be new; the bank
// checks that before calling.
func (s *SQLStore) PutItems(ctx context.Context, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, it := range items {
		_, err := tx.ExecContext(ctx, `INSERT INTO items (id,domain,text,valence,difficulty,scale_min,scale_max,created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			string(it.ID), it.Domain, it.Text, string(it.Valence), it.Difficulty, it.Scale.Min, it.Scale.Max, now)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}
