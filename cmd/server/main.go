package main

import (
    "context"
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/p2p-marketplace/internal/config"
    "github.com/iliyamo/p2p-marketplace/internal/database"
    "github.com/iliyamo/p2p-marketplace/internal/handler"
    "github.com/iliyamo/p2p-marketplace/internal/payment"
    "github.com/iliyamo/p2p-marketplace/internal/queue"
    "github.com/iliyamo/p2p-marketplace/internal/repository"
    "github.com/iliyamo/p2p-marketplace/internal/router"
    "github.com/iliyamo/p2p-marketplace/internal/service/orders"
    "github.com/iliyamo/p2p-marketplace/internal/service/queue_publisher"
)

func main() {
    _ = godotenv.Load() // .env is optional outside local development

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    rdb := config.NewRedisClient() // nil when Redis is unreachable; rate limiting degrades open
    rlCfg := config.LoadRateLimitConfig()

    items := repository.NewItemRepo(db)
    orderRepo := repository.NewOrderRepo(db)
    users := repository.NewUserRepo(db)

    pub := queue_publisher.NewFromEnv()

    var intents payment.IntentClient
    if cfg.StripeAPIKey != "" {
        intents = payment.NewStripeClient(cfg.StripeAPIKey)
    }

    svc := orders.New(db, items, orderRepo, users, intents, pub, cfg.ChainID, cfg.ShippingCostCents)

    cards := payment.NewCardVerifier(cfg.StripeWebhookSecret, 5*time.Minute)
    crypto := payment.NewCryptoVerifier(cfg.AlchemySigningKey)

    go queue.StartReconciliationConsumer()
    go expireLoop(svc, cfg.OrderExpiry)

    e := echo.New()
    router.RegisterRoutes(e, handler.NewBrowseHandler(items))
    router.RegisterOrders(e, handler.NewOrderHandler(svc), cfg.JWTSecret, rlCfg, rdb)
    router.RegisterWebhooks(e, handler.NewWebhookHandler(cards, crypto, svc))

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}

// expireLoop periodically cancels crypto orders that never received funds,
// releasing their reserved items.  Runs for the lifetime of the process.
func expireLoop(svc *orders.Service, maxAge time.Duration) {
    ticker := time.NewTicker(time.Minute)
    defer ticker.Stop()
    for range ticker.C {
        ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
        if _, err := svc.ExpirePendingOrders(ctx, maxAge); err != nil {
            log.Printf("expire: sweep failed: %v", err)
        }
        cancel()
    }
}
