package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/chenti-tech/classseat/internal/config"
    "github.com/chenti-tech/classseat/internal/database"
    "github.com/chenti-tech/classseat/internal/engine"
    "github.com/chenti-tech/classseat/internal/handler"
    "github.com/chenti-tech/classseat/internal/queue"
    "github.com/chenti-tech/classseat/internal/repository"
    "github.com/chenti-tech/classseat/internal/router"
    "github.com/chenti-tech/classseat/internal/store/memstore"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()
    cfg := config.Load()

    var st engine.Store
    switch cfg.StoreDriver {
    case "memory":
        log.Println("using in-memory store (dev mode, state is not persisted)")
        st = memstore.New()
    default:
        db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
        if err != nil {
            log.Fatalf("database: %v", err)
        }
        if err := database.Migrate(db); err != nil {
            log.Fatalf("migrations: %v", err)
        }
        st = repository.NewStore(db)
    }

    eng := engine.New(st)

    // Redis backs rate limiting and response caching; a nil client just
    // disables both.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable, rate limiting and caching disabled")
    }

    if cfg.AMQPEnabled {
        go queue.StartSeatEventConsumer()
    }

    e := echo.New()
    router.Register(e, cfg,
        handler.NewAuthHandler(cfg),
        handler.NewPublicHandler(eng),
        handler.NewAdminHandler(eng, cfg),
        rdb,
    )

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
