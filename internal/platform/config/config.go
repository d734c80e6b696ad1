package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	Environment string // "development" or "production"

	DatabaseURL string
	RedisURL    string

	JWTSigningKey string
	SessionTTL    time.Duration

	CivilTimezone string

	PushTimeout    time.Duration
	BroadcastDelay time.Duration

	KafkaBrokers []string
	AuditTopic   string

	OTLPEndpoint string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FATEPACK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	env := os.Getenv("FATEPACK_ENV")
	if env == "" {
		env = "development"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "fatepack.audit"
	}

	return Server{
		Addr:           addr,
		Environment:    env,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSigningKey:  jwtSigningKey,
		SessionTTL:     durationEnv("SESSION_TTL", 24*time.Hour),
		CivilTimezone:  os.Getenv("CIVIL_TIMEZONE"),
		PushTimeout:    durationEnv("PUSH_TIMEOUT", 10*time.Second),
		BroadcastDelay: durationEnv("BROADCAST_DELAY", 200*time.Millisecond),
		KafkaBrokers:   brokers,
		AuditTopic:     auditTopic,
		OTLPEndpoint:   os.Getenv("OTLP_ENDPOINT"),
	}
}

// IsDevelopment reports whether fuller error detail may be exposed in
// responses.
func (s Server) IsDevelopment() bool {
	return s.Environment == "development"
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
