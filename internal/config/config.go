package config // package config loads application configuration from environment variables

import (
	"log"  // log is used to report configuration errors and halt execution
	"os"   // os provides access to environment variables
	"time" // time parses duration values
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must() at load
// time; orchestration policy knobs carry sensible defaults so a bare
// environment still yields the observed domain behaviour (start window
// opens 10 minutes early, stays open 2 hours, credentials last 1 hour).
type Config struct {
	Env    string // application environment (e.g. "dev", "prod")
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret string // secret used to verify identity JWTs

	GraceBefore   time.Duration // how early a session may be started
	GraceAfter    time.Duration // how long past the scheduled start it stays startable
	CredentialTTL time.Duration // lifetime of issued media credentials
	MediaTimeout  time.Duration // bound on every media-provider call
	SweepInterval time.Duration // reconciliation sweep period

	MediaAppID      string // media gateway application id
	MediaAppCert    string // media gateway signing certificate
	MediaGatewayURL string // gateway control API base URL (optional)
	RecordingSource string // base URL recordings are pulled from (optional; empty disables archival)

	// CountConfirmedOnly selects the booking capacity policy: when false
	// (default) provisional holds count against capacity, preventing
	// oversell during the payment window.
	CountConfirmedOnly bool
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),      // environment (dev/test/prod)
		Port:      must("APP_PORT"),     // port to bind the HTTP server
		DBUser:    must("DB_USER"),      // database user
		DBPass:    os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:    must("DB_HOST"),      // database host
		DBPort:    must("DB_PORT"),      // database port
		DBName:    must("DB_NAME"),      // database name
		JWTSecret: must("JWT_SECRET"),   // secret for verifying identity tokens

		GraceBefore:   dur("SESSION_GRACE_BEFORE", 10*time.Minute),
		GraceAfter:    dur("SESSION_GRACE_AFTER", 2*time.Hour),
		CredentialTTL: dur("MEDIA_CREDENTIAL_TTL", time.Hour),
		MediaTimeout:  dur("MEDIA_REQUEST_TIMEOUT", 10*time.Second),
		SweepInterval: dur("SWEEP_INTERVAL", 45*time.Second),

		MediaAppID:      must("MEDIA_APP_ID"),          // gateway application id
		MediaAppCert:    must("MEDIA_APP_CERT"),        // gateway signing certificate
		MediaGatewayURL: os.Getenv("MEDIA_GATEWAY_URL"), // control API (optional)
		RecordingSource: os.Getenv("RECORDING_SOURCE_URL"),

		CountConfirmedOnly: getenv("BOOKING_COUNT_CONFIRMED_ONLY", "false") == "true",
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

// dur reads an optional duration variable, falling back to def when the
// variable is unset or unparseable.
func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s: %q, using %s", key, v, def)
		return def
	}
	return d
}
