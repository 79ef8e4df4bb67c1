package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lazharichir/baccarat/baccarat"
	"github.com/lazharichir/baccarat/cards"
	"github.com/lazharichir/baccarat/odds"
)

//go:embed schema.sql
var schema embed.FS

// DB persists finished enumeration results. Counts exceed BIGINT, so they
// are stored as NUMERIC and moved across the wire as decimal text.
type DB struct{ *pgxpool.Pool }

func Open(ctx context.Context, dsn string) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close()                         { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// LoadResult reads the stored result for a deck count, or
// odds.ErrResultNotFound.
func (db *DB) LoadResult(ctx context.Context, decks int) (*baccarat.Result, error) {
	var player, banker, tie, total string
	err := db.QueryRow(ctx, `
		SELECT player::text, banker::text, tie::text, grand_total::text
		  FROM odds_results
		 WHERE decks = $1
	`, decks).Scan(&player, &banker, &tie, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, odds.ErrResultNotFound
		}
		return nil, err
	}

	r := &baccarat.Result{Decks: decks}
	if r.Tally.Player, err = parseCount(player); err != nil {
		return nil, err
	}
	if r.Tally.Banker, err = parseCount(banker); err != nil {
		return nil, err
	}
	if r.Tally.Tie, err = parseCount(tie); err != nil {
		return nil, err
	}
	if r.GrandTotal, err = parseCount(total); err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
		SELECT banker_total, player_total, ways::text
		  FROM odds_banker_breakdown
		 WHERE decks = $1
	`, decks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var b, p int16
		var ways string
		if err := rows.Scan(&b, &p, &ways); err != nil {
			return nil, err
		}
		if err := setCell(&r.Tally.Breakdown, b, p, ways); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// SaveResult upserts a result and replaces its banker breakdown.
func (db *DB) SaveResult(ctx context.Context, r *baccarat.Result) error {
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO odds_results(decks, player, banker, tie, grand_total)
			VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric)
			ON CONFLICT (decks) DO UPDATE SET
				player = EXCLUDED.player,
				banker = EXCLUDED.banker,
				tie = EXCLUDED.tie,
				grand_total = EXCLUDED.grand_total,
				computed_at = now()
		`, r.Decks,
			formatCount(r.Tally.Player), formatCount(r.Tally.Banker),
			formatCount(r.Tally.Tie), formatCount(r.GrandTotal),
		)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM odds_banker_breakdown WHERE decks = $1`, r.Decks); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, c := range r.Tally.Breakdown.Cells() {
			batch.Queue(`
				INSERT INTO odds_banker_breakdown(decks, banker_total, player_total, ways)
				VALUES ($1, $2, $3, $4::numeric)
			`, r.Decks, int16(c.Banker), int16(c.Player), formatCount(c.Ways))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func formatCount(n uint64) string {
	return strconv.FormatUint(n, 10)
}

func parseCount(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("stored count %q: %w", s, err)
	}
	return n, nil
}

func setCell(b *baccarat.Breakdown, banker, player int16, ways string) error {
	if banker < 1 || banker >= cards.NumPoints || player < 0 || player >= banker {
		return fmt.Errorf("stored breakdown cell (%d, %d) out of range", banker, player)
	}
	n, err := parseCount(ways)
	if err != nil {
		return err
	}
	b[banker][player] = n
	return nil
}
