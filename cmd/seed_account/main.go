// Command seed_account creates (or loads) a test account and prints a player
// token for it, for trying the API by hand.
package main

import (
	"context"
	"flag"
	"fmt"

	"tapearn/internal/config"
	"tapearn/internal/db"
	"tapearn/internal/domain"
	"tapearn/internal/logger"
	"tapearn/internal/service"
)

func main() {
	id := flag.Int64("id", 1234567890, "telegram user id")
	username := flag.String("username", "testuser", "username")
	firstName := flag.String("first-name", "Tester", "first name")
	referrer := flag.Int64("ref", 0, "referrer id")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, false)
	service.InitJWT(cfg.JWTSecret)

	pool := db.Connect(cfg.DatabaseURL)
	defer pool.Close()

	ledger := service.NewLedger(pool, cfg.Economy, nil, nil)
	audit := service.NewAuditService(pool)
	accounts := service.NewAccountService(ledger, service.NewReferralService(ledger, audit, cfg.BotUsername))

	ctx := context.Background()
	acc, created, err := accounts.GetOrCreate(ctx, domain.Profile{ID: *id, Username: *username, FirstName: *firstName}, *referrer)
	if err != nil {
		logger.Fatal("get or create account failed", "error", err)
	}
	logger.Info("account ready", "id", acc.ID, "created", created, "coins", acc.Coins, "energy", acc.Energy)

	token, err := service.GenerateJWT(acc.ID)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}
	fmt.Println(token)
}
