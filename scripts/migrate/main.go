package main

import (
	"flag"
	"log"

	"releaf_backend/config"
)

// Standalone migration runner. `go run ./scripts/migrate` applies the
// schema; `-reset` drops everything first and reseeds demo data.
func main() {
	reset := flag.Bool("reset", false, "drop all tables before migrating and seed demo data")
	flag.Parse()

	cfg := config.LoadConfig()
	db := config.ConnectDatabase(cfg)

	var err error
	if *reset {
		err = config.ResetAndMigrate(db)
	} else {
		err = config.Migrate(db)
	}
	if err != nil {
		log.Fatal("Migration failed:", err)
	}
}
