// Command migrate applies the embedded goose migrations.
//
//	migrate [up|down|status]
package main

import (
	"flag"
	"os"

	"tapearn/internal/db"
	"tapearn/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), false)

	flag.Parse()
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	if err := db.Migrate(pool, command); err != nil {
		logger.Fatal("migration failed", "command", command, "error", err)
	}
}
