package main

import (
    "context"
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/lilycrest/lilycrest-server/internal/config"
    "github.com/lilycrest/lilycrest-server/internal/database"
    "github.com/lilycrest/lilycrest-server/internal/flow"
    "github.com/lilycrest/lilycrest-server/internal/handler"
    "github.com/lilycrest/lilycrest-server/internal/middleware"
    "github.com/lilycrest/lilycrest-server/internal/queue"
    "github.com/lilycrest/lilycrest-server/internal/repository"
    "github.com/lilycrest/lilycrest-server/internal/router"
)

func main() {
    // .env is optional; real deployments set the environment directly
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // nil when Redis is unreachable; cache and rate limiting degrade
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; response cache and rate limiting disabled")
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    rooms := repository.NewRoomRepo(db)
    reservations := repository.NewReservationRepo(db, rooms)

    fc := flow.NewController(rooms, reservations)

    authH := handler.NewAuthHandler(cfg, users, tokens)
    publicH := handler.NewPublicHandler(rooms)
    tenantH := handler.NewTenantReservationHandler(fc, reservations)
    adminResH := handler.NewAdminReservationHandler(reservations)
    adminRoomH := handler.NewAdminRoomHandler(rooms)

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterPublic(e, publicH, config.LoadCacheConfig(), rdb)
    router.RegisterTenant(e, tenantH, cfg.JWTSecret)
    router.RegisterAdmin(e, adminResH, adminRoomH, cfg.JWTSecret)

    // audit trail consumer; reconnects on its own
    go func() {
        if err := queue.StartAuditConsumer(); err != nil {
            log.Printf("audit consumer stopped: %v", err)
        }
    }()

    // hourly janitor for abandoned drafts that never scheduled a visit
    go func() {
        for {
            time.Sleep(time.Hour)
            ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
            n, err := reservations.PurgeExpiredDrafts(ctx, 30*24*time.Hour)
            cancel()
            if err != nil {
                log.Printf("draft janitor: %v", err)
                continue
            }
            if n > 0 {
                log.Printf("draft janitor: purged %d stale drafts", n)
            }
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
