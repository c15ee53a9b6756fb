package config // package config loads application configuration from environment variables

import (
    "log"  // log is used to report configuration errors and halt execution
    "os"   // os provides access to environment variables
    "time" // time expresses the hold and sweep durations
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message; the
// two lifecycle knobs carry production defaults instead.
type Config struct {
    Env           string        // application environment (e.g. "dev", "prod")
    Port          string        // HTTP port to listen on
    DBUser        string        // catalog database username
    DBPass        string        // catalog database password (optional)
    DBHost        string        // catalog database host address
    DBPort        string        // catalog database port number
    DBName        string        // catalog database name
    JWTSecret     string        // secret used to verify access tokens
    AMQPURL       string        // RabbitMQ URL for the event queue (optional)
    HoldTTL       time.Duration // provisional-hold length before expiry
    SweepInterval time.Duration // lifecycle sweep cadence
}

// Load reads configuration values from environment variables and returns a
// Config.  HOLD_TTL_MIN defaults to 15 minutes and SWEEP_INTERVAL_SEC to
// 300 seconds; everything else is required.
func Load() Config {
    return Config{
        Env:           must("APP_ENV"),      // environment (dev/test/prod)
        Port:          must("APP_PORT"),     // port to bind the HTTP server
        DBUser:        must("DB_USER"),      // catalog database user
        DBPass:        os.Getenv("DB_PASS"), // catalog database password (empty allowed)
        DBHost:        must("DB_HOST"),      // catalog database host
        DBPort:        must("DB_PORT"),      // catalog database port
        DBName:        must("DB_NAME"),      // catalog database name
        JWTSecret:     must("JWT_SECRET"),   // secret used to verify JWTs
        AMQPURL:       os.Getenv("RABBITMQ_URL"),
        HoldTTL:       time.Duration(envInt("HOLD_TTL_MIN", 15)) * time.Minute,
        SweepInterval: time.Duration(envInt("SWEEP_INTERVAL_SEC", 300)) * time.Second,
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
