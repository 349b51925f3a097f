package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/walkies/internal/adapters/postgres"
	"github.com/samirrijal/walkies/internal/adapters/seed"
	"github.com/samirrijal/walkies/internal/pkg/config"
	"github.com/samirrijal/walkies/internal/pkg/logging"
	"github.com/samirrijal/walkies/migrations"
)

const trackingTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    name       TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|status|seed>")
	}

	cfg, err := config.Load("walkies-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(logging.FromEnv("walkies-migrate"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	if _, err := db.Pool.Exec(ctx, trackingTable); err != nil {
		log.Fatalf("tracking table: %v", err)
	}

	switch os.Args[1] {
	case "up":
		n, err := up(ctx, db)
		if err != nil {
			log.Fatalf("up: %v", err)
		}
		slog.Info("migrations applied", "count", n)
	case "down":
		if err := down(ctx, db); err != nil {
			log.Fatalf("down: %v", err)
		}
		slog.Info("reference tables dropped")
	case "status":
		if err := status(ctx, db); err != nil {
			log.Fatalf("status: %v", err)
		}
	case "seed":
		spaces, err := seed.Spaces()
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		if err := postgres.NewReferenceSpaceRepo(db).UpsertBatch(ctx, spaces); err != nil {
			log.Fatalf("seed: %v", err)
		}
		slog.Info("seeded reference spaces", "count", len(spaces))
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func applied(ctx context.Context, db *postgres.DB) (map[string]time.Time, error) {
	rows, err := db.Pool.Query(ctx, `SELECT name, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[string]time.Time)
	for rows.Next() {
		var name string
		var at time.Time
		if err := rows.Scan(&name, &at); err != nil {
			return nil, err
		}
		done[name] = at
	}
	return done, rows.Err()
}

// up applies pending migrations, each in its own transaction.
func up(ctx context.Context, db *postgres.DB) (int, error) {
	names, err := migrations.Up()
	if err != nil {
		return 0, err
	}
	done, err := applied(ctx, db)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, name := range names {
		if _, ok := done[name]; ok {
			continue
		}
		sql, err := migrations.Read(name)
		if err != nil {
			return n, err
		}
		err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, sql); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return n, fmt.Errorf("%s: %w", name, err)
		}
		fmt.Printf("OK  %s\n", name)
		n++
	}
	return n, nil
}

func down(ctx context.Context, db *postgres.DB) error {
	sql, err := migrations.Read(migrations.DownFile)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM schema_migrations`)
		return err
	})
}

func status(ctx context.Context, db *postgres.DB) error {
	names, err := migrations.Up()
	if err != nil {
		return err
	}
	done, err := applied(ctx, db)
	if err != nil {
		return err
	}
	for _, name := range names {
		if at, ok := done[name]; ok {
			fmt.Printf("applied  %s  %s\n", at.Format(time.RFC3339), name)
		} else {
			fmt.Printf("pending  %s\n", name)
		}
	}
	return nil
}
