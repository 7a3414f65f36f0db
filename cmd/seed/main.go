// File: cmd/seed/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"hostilerust-bot/internal/config"
	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/ports/repository"
	pg "hostilerust-bot/internal/infra/db/postgres"
	"hostilerust-bot/internal/infra/logging"
	"hostilerust-bot/internal/usecase"
)

// Seeds an empty promo pool with sample codes for a fresh deployment.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	logger := logging.New(cfg.Log, true)
	promoRepo := pg.NewPromoCodeRepo(pool)
	userRepo := pg.NewPostgresUserRepo(pool)
	issuanceRepo := pg.NewIssuanceRepo(pool)
	tm := pg.NewTxManager(pool)
	promoUC := usecase.NewPromoUseCase(userRepo, promoRepo, issuanceRepo, tm, nil,
		cfg.Promo.RateLimitWindow, cfg.Promo.ExpiryWindow, logger)

	existing, err := promoRepo.ListAll(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list codes: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d codes already present. No changes.\n", len(existing))
		return
	}

	seed := []string{
		"HOSTILE-WELCOME-10",
		"HOSTILE-WELCOME-25",
		"HOSTILE-WIPE-DAY",
		"HOSTILE-VETERAN",
	}
	for _, code := range seed {
		c, err := promoUC.AddCode(ctx, code)
		if errors.Is(err, domain.ErrAlreadyExists) {
			fmt.Printf("skipped (exists): %s\n", code)
			continue
		}
		if err != nil {
			log.Fatalf("add code %q: %v", code, err)
		}
		fmt.Printf("seeded: %s (created %s)\n", c.Code, c.CreatedAt.Format(time.RFC3339))
	}

	fmt.Println("✅ Seeding complete.")
}
