// internal/database/history.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wildfour/uno/internal/game"
)

// InsertActionRecords persists a batch of action records in one transaction.
// The games row for each room is upserted to in_progress first, and a
// game_end action finalizes it to completed.
func InsertActionRecords(ctx context.Context, pool *pgxpool.Pool, records []game.ActionRecord) error {
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %d for room %s: %w", rec.ActionIndex, rec.RoomCode, err)
			}
		}
		return nil
	})
}

func insertActionTx(ctx context.Context, tx pgx.Tx, rec game.ActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (room_code, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (room_code)
		DO UPDATE SET status = 'in_progress'
		WHERE games.status <> 'completed'
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.RoomCode); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO game_actions (
			room_code, action_index, actor_id, action_type, action_payload, recorded_at
		) VALUES ($1, $2, $3, $4, $5, to_timestamp($6::double precision / 1000))
	`
	if _, err := tx.Exec(ctx, actionInsertQ,
		rec.RoomCode, rec.ActionIndex, rec.ActorID, rec.ActionType, payload, rec.Timestamp,
	); err != nil {
		return err
	}

	if rec.ActionType == "game_end" {
		if err := finalizeGameTx(ctx, tx, rec); err != nil {
			return err
		}
	}
	return nil
}

// finalizeGameTx marks the game completed and records the outcome carried in
// the game_end payload (winner name, or an abort reason).
func finalizeGameTx(ctx context.Context, tx pgx.Tx, rec game.ActionRecord) error {
	finalizeQ := `
		UPDATE games
		SET status = 'completed', end_time = NOW()
		WHERE room_code = $1 AND status = 'in_progress'
	`
	if _, err := tx.Exec(ctx, finalizeQ, rec.RoomCode); err != nil {
		return err
	}

	winner, _ := rec.Payload["winner"].(string)
	reason, _ := rec.Payload["reason"].(string)
	resultQ := `
		INSERT INTO game_results (room_code, winner_name, end_reason)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		ON CONFLICT (room_code)
		DO UPDATE SET winner_name = EXCLUDED.winner_name, end_reason = EXCLUDED.end_reason
	`
	_, err := tx.Exec(ctx, resultQ, rec.RoomCode, winner, reason)
	return err
}

// MarkGameAbandoned flips a still-running game to abandoned. Used by the
// historian's inactivity sweep.
func MarkGameAbandoned(ctx context.Context, pool *pgxpool.Pool, roomCode string) error {
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE games
			SET status = 'abandoned', end_time = NOW()
			WHERE room_code = $1 AND status = 'in_progress'
		`
		_, err := tx.Exec(ctx, q, roomCode)
		return err
	})
}
