package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0003_attempt_players.sql
var attemptPlayersSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, attemptPlayersSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
				DROP INDEX IF EXISTS attempts_player_idx;
				ALTER TABLE attempts DROP COLUMN IF EXISTS player_email;
				ALTER TABLE attempts DROP COLUMN IF EXISTS time_spent_seconds;
				ALTER TABLE attempts DROP COLUMN IF EXISTS created_at`)
			return err
		},
	)
}
