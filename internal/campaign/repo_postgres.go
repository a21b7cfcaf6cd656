package campaign

import (
	"context"
	"database/sql"

	"feedback-call-platform/pkg/utils"
)

// PostgresRepo persists the campaign registry.
//
// Schema:
//
//	CREATE TABLE campaigns (
//	    campaign_id      UUID PRIMARY KEY,
//	    name             TEXT NOT NULL,
//	    total_records    INT NOT NULL,
//	    successful_count INT NOT NULL,
//	    failed_count     INT NOT NULL,
//	    created_at       TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Create(ctx context.Context, c Campaign) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO campaigns (campaign_id, name, total_records, successful_count, failed_count, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, c.Name, c.TotalRecords, c.SuccessfulCount, c.FailedCount, c.CreatedAt,
		)
		return err
	})
}

func (r *PostgresRepo) List(ctx context.Context) ([]Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT campaign_id, name, total_records, successful_count, failed_count, created_at
		FROM campaigns
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Campaign, 0)
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.TotalRecords, &c.SuccessfulCount, &c.FailedCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
