package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	mongoMigration "staybook/internal/migrations/mongo"
	"staybook/pkg/config"
)

func main() {
	seed := flag.Bool("seed", false, "insert the sample hotel catalogue into an empty database")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	cfg := config.Load(config.ServiceMigrate)
	cfg.SetMongo()
	cfg.Log.Info("Starting Mongo migration job", "seed", *seed)
	defer cfg.GracefulShutdown()

	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	if *seed {
		if err := mongoMigration.SeedHotels(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
			cfg.Log.Fatal("Seeding failed", "error", err)
		}
	}
	fmt.Println("Migration completed successfully.")
}
