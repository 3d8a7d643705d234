package config // package config loads application configuration from environment variables

import (
    "log" // log is used to report configuration errors and halt execution
    "os"  // os provides access to environment variables

    "github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The JWT secret must match the one used by the
// identity provider that mints access tokens; the service key hash is the
// bcrypt digest of the trusted backend key that bypasses ownership checks.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to verify access tokens
    ServiceKeyHash string // bcrypt hash of the backend service key
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is applied first so local
// development does not need exported variables.  Required variables are
// enforced by must() and missing values cause the program to exit with a
// fatal log message.
func Load() Config {
    _ = godotenv.Load() // absence of a .env file is not an error

    return Config{
        Env:            must("APP_ENV"),          // environment (dev/test/prod)
        Port:           must("APP_PORT"),         // port to bind the HTTP server
        DBUser:         must("DB_USER"),          // database user
        DBPass:         os.Getenv("DB_PASS"),     // database password (empty allowed)
        DBHost:         must("DB_HOST"),          // database host
        DBPort:         must("DB_PORT"),          // database port
        DBName:         must("DB_NAME"),          // database name
        JWTSecret:      must("JWT_SECRET"),       // secret shared with the identity provider
        ServiceKeyHash: must("SERVICE_KEY_HASH"), // bcrypt hash of the service key
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
