package main // Entry point package

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/architect-sessions/internal/config"
	"github.com/iliyamo/architect-sessions/internal/database"
	"github.com/iliyamo/architect-sessions/internal/handler"
	"github.com/iliyamo/architect-sessions/internal/queue"
	"github.com/iliyamo/architect-sessions/internal/repository"
	"github.com/iliyamo/architect-sessions/internal/router"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	// Redis is optional: without it the cache and rate limiter disable
	// themselves and the store keeps serving.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	h := router.Handlers{
		Users:     handler.NewUserHandler(repository.NewUserRepo(db)),
		Projects:  handler.NewProjectHandler(repository.NewProjectRepo(db)),
		Sessions:  handler.NewSessionHandler(repository.NewSessionRepo(db)),
		Messages:  handler.NewMessageHandler(repository.NewMessageRepo(db)),
		Specs:     handler.NewSpecHandler(repository.NewSpecRepo(db)),
		DocLinks:  handler.NewDocLinkHandler(repository.NewDocLinkRepo(db)),
		Scaffolds: handler.NewScaffoldHandler(repository.NewScaffoldRepo(db)),
	}

	e := echo.New()
	e.Validator = handler.NewRequestValidator()
	router.RegisterRoutes(e)
	router.RegisterRecords(e, h, cfg, rdb)

	// Consume phase-change events in the background; the consumer runs its
	// own reconnect loop for as long as the server lives.
	go func() {
		if err := queue.StartPhaseConsumer(); err != nil {
			log.Printf("phase consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
