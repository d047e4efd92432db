package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/kfhr/cashdesk-backend/internal/config"
	"github.com/kfhr/cashdesk-backend/internal/db"
	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/timeutil"
)

// Fills created_at_bkk / created_at_utc / created_date_bkk on withdrawal rows
// imported from the old system, deriving the instant from the database write
// time. Rows with an empty status history also get a synthetic initial entry
// attributed to the backfill script. Safe to run repeatedly.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("backfill: cannot load configuration: %v", err)
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("backfill: cannot connect to the database: %v", err)
	}
	defer dbConn.Close()

	type legacyRow struct {
		RequestID  string    `db:"request_id"`
		Status     string    `db:"status"`
		InsertedAt time.Time `db:"inserted_at"`
		HistoryLen int       `db:"history_len"`
	}

	var rows []legacyRow
	err = dbConn.SelectContext(ctx, &rows, `
		SELECT request_id, status, inserted_at,
		       jsonb_array_length(status_history) AS history_len
		FROM withdraw_requests
		WHERE created_date_bkk = ''
	`)
	if err != nil {
		log.Fatalf("backfill: cannot list legacy rows: %v", err)
	}

	updated := 0
	for _, row := range rows {
		utc := row.InsertedAt.UTC()
		bkk := utc.In(timeutil.BangkokTZ)

		if row.HistoryLen == 0 {
			entry, merr := json.Marshal(models.StatusHistory{
				models.NewStatusEntry(row.Status, models.ActorBackfill, bkk, utc),
			})
			if merr != nil {
				log.Fatalf("backfill: cannot serialize history entry: %v", merr)
			}
			_, err = dbConn.ExecContext(ctx, `
				UPDATE withdraw_requests
				SET created_at_bkk = $2, created_at_utc = $3, created_date_bkk = $4,
				    status_history = $5::jsonb
				WHERE request_id = $1 AND created_date_bkk = ''
			`, row.RequestID, bkk.Format(time.RFC3339), utc.Format(time.RFC3339), timeutil.DateBKK(bkk), entry)
		} else {
			_, err = dbConn.ExecContext(ctx, `
				UPDATE withdraw_requests
				SET created_at_bkk = $2, created_at_utc = $3, created_date_bkk = $4
				WHERE request_id = $1 AND created_date_bkk = ''
			`, row.RequestID, bkk.Format(time.RFC3339), utc.Format(time.RFC3339), timeutil.DateBKK(bkk))
		}
		if err != nil {
			log.Fatalf("backfill: cannot update request %s: %v", row.RequestID, err)
		}
		updated++
	}

	log.Printf("backfill: legacy rows without created_date_bkk: %d", len(rows))
	log.Printf("backfill: rows updated: %d", updated)
}
