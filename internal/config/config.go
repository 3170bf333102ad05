package config // package config loads application configuration from environment variables

import (
    "log"     // log reports configuration errors and halts execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The seat store runs against MySQL in normal
// operation; STORE_DRIVER=memory switches to the in-memory store for local
// development without a database.
type Config struct {
    Env           string // application environment (e.g. "dev", "prod")
    Port          string // HTTP port to listen on
    StoreDriver   string // "mysql" (default) or "memory"
    DBUser        string // database username
    DBPass        string // database password (optional)
    DBHost        string // database host address
    DBPort        string // database port number
    DBName        string // database name
    JWTSecret     string // secret used to sign admin JWTs
    AccessTTLMin  int    // access token time-to-live in minutes
    AdminUser     string // operator login name
    AdminPassHash string // bcrypt hash of the operator password
    AMQPEnabled   bool   // publish seat events to RabbitMQ when true
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Database variables
// are only required when the MySQL store is selected.
func Load() Config {
    cfg := Config{
        Env:           must("APP_ENV"),
        Port:          must("APP_PORT"),
        StoreDriver:   getenv("STORE_DRIVER", "mysql"),
        JWTSecret:     must("JWT_SECRET"),
        AccessTTLMin:  mustInt("ACCESS_TOKEN_TTL_MIN"),
        AdminUser:     must("ADMIN_USER"),
        AdminPassHash: must("ADMIN_PASSWORD_HASH"),
        AMQPEnabled:   getenv("AMQP_ENABLED", "true") == "true",
    }
    if cfg.StoreDriver == "mysql" {
        cfg.DBUser = must("DB_USER")
        cfg.DBPass = os.Getenv("DB_PASS")
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    }
    return cfg
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
