package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "strconv"
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Webhook and API secrets are read once at startup
// and injected into the components that need them; nothing reads the
// environment mid-request, so tests can construct verifiers with fixed
// secrets.
type Config struct {
    Env                 string        // application environment (e.g. "dev", "prod")
    Port                string        // HTTP port to listen on
    DBUser              string        // database username
    DBPass              string        // database password (optional)
    DBHost              string        // database host address
    DBPort              string        // database port number
    DBName              string        // database name
    JWTSecret           string        // secret used to verify session JWTs
    StripeWebhookSecret string        // shared secret for card webhook signatures
    StripeAPIKey        string        // secret key for the payment intent API
    AlchemySigningKey   string        // shared secret for crypto webhook signatures
    ChainID             int64         // chain crypto payments settle on
    ShippingCostCents   uint32        // flat shipping added to each order
    OrderExpiry         time.Duration // how long a pending crypto order may wait for its webhook
}

// SepoliaChainID is the default chain for crypto checkout.
const SepoliaChainID = 11155111

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:                 must("APP_ENV"),
        Port:                must("APP_PORT"),
        DBUser:              must("DB_USER"),
        DBPass:              os.Getenv("DB_PASS"), // empty allowed
        DBHost:              must("DB_HOST"),
        DBPort:              must("DB_PORT"),
        DBName:              must("DB_NAME"),
        JWTSecret:           must("JWT_SECRET"),
        StripeWebhookSecret: must("STRIPE_WEBHOOK_SECRET"),
        StripeAPIKey:        must("STRIPE_API_KEY"),
        AlchemySigningKey:   must("ALCHEMY_SIGNING_KEY"),
        ChainID:             envInt64("CHAIN_ID", SepoliaChainID),
        ShippingCostCents:   uint32(envInt64("SHIPPING_COST_CENTS", 800)),
        OrderExpiry:         envDur("ORDER_EXPIRY", 30*time.Minute),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func envInt64(key string, def int64) int64 {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    n, err := strconv.ParseInt(s, 10, 64)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

func envDur(key string, def time.Duration) time.Duration {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    d, err := time.ParseDuration(s)
    if err != nil {
        log.Fatalf("invalid duration for %s: %q", key, s)
    }
    return d
}
