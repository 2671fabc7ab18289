// One-shot dataset import: reads the candidates CSV and upserts the
// constituency reference data the API serves from.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rakibhasan/jonomot/internal/app/etl"
	"github.com/rakibhasan/jonomot/internal/platform/config"
	"github.com/rakibhasan/jonomot/internal/platform/logger"
	"github.com/rakibhasan/jonomot/internal/platform/migrations"
	postgresstorage "github.com/rakibhasan/jonomot/internal/platform/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	csvPath := flag.String("csv", cfg.CandidatesCSV, "path to the candidates CSV")
	flag.Parse()

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		logger.Fatal("failed to connect to postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to unwrap sql.DB", "err", err)
	}
	defer sqlDB.Close()

	// The importer always migrates: it may run against a fresh database
	// before the API ever started.
	if err := migrations.Run(db); err != nil {
		logger.Fatal("migration failed", "err", err)
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		logger.Fatal("failed to open csv", "path", *csvPath, "err", err)
	}
	defer file.Close()

	importer := etl.NewImporter(postgresstorage.NewConstituencyRepository(db))
	count, err := importer.ImportCSV(ctx, file)
	if err != nil {
		logger.Fatal("import failed", "imported", count, "err", err)
	}

	logger.Info("import finished", "constituencies", count)
}
