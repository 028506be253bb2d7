package main

import (
	"context"
	"os"
	"time"

	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/db"
	"github.com/geocoder89/tenderhub/internal/observability"
)

// seed creates the schema, the bootstrap admin and one demo candidate with an open project.
func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env, "tenderhub-seed")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DBURL, 2)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	created, err := db.EnsureAdminUser(ctx, pool, cfg)
	if err != nil {
		log.Error("admin bootstrap failed", "err", err)
		os.Exit(1)
	}
	log.Info("admin user", "email", cfg.AdminEmail, "created", created)

	res, err := db.SeedDemo(ctx, pool)
	if err != nil {
		log.Error("demo seed failed", "err", err)
		os.Exit(1)
	}

	log.Info("seed complete", "candidate_created", res.CandidateCreated, "project_created", res.ProjectCreated)
}
