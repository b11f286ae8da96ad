package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FundingStrategy selects where claim payouts come from. The choice is
// deliberately explicit: the two strategies have different conservation
// profiles (mint grows supply, treasury redistributes it).
type FundingStrategy string

const (
	FundingMint     FundingStrategy = "mint"
	FundingTreasury FundingStrategy = "treasury"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// Ledger captures token ledger parameters fixed at deploy time.
type Ledger struct {
	TokenName   string
	TokenSymbol string
	MaxSupply   uint64
}

// Claims captures claim-processing parameters.
type Claims struct {
	Amount   uint64
	Cooldown uint64 // sequence distance, not wall-clock
	Funding  FundingStrategy
	Treasury string // account UUID, required for FundingTreasury
}

// Governance captures proposal execution parameters.
type Governance struct {
	MinVotes uint64 // votes-for threshold for execution
}

// RedisConfig holds connection settings for the Redis audit sink.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka holds settings for the Kafka audit publisher. Empty brokers means
// Kafka publishing is disabled.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// Config aggregates all runtime configuration for cmd/server.
type Config struct {
	Server      Server
	Ledger      Ledger
	Claims      Claims
	Governance  Governance
	Redis       RedisConfig
	Kafka       Kafka
	PostgresDSN string
	OwnerID     string // account UUID seeded as the singleton owner
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("AIDGATE_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Ledger: Ledger{
			TokenName:   envOr("TOKEN_NAME", "Aid Token"),
			TokenSymbol: envOr("TOKEN_SYMBOL", "AID"),
			MaxSupply:   envUint("MAX_SUPPLY", 1_000_000_000),
		},
		Claims: Claims{
			Amount:   envUint("CLAIM_AMOUNT", 100),
			Cooldown: envUint("CLAIM_COOLDOWN", 1000),
			Funding:  FundingStrategy(envOr("CLAIM_FUNDING", string(FundingMint))),
			Treasury: os.Getenv("CLAIM_TREASURY_ACCOUNT"),
		},
		Governance: Governance{
			MinVotes: envUint("GOVERNANCE_MIN_VOTES", 10),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     int(envUint("REDIS_POOL_SIZE", 10)),
			MinIdleConns: int(envUint("REDIS_MIN_IDLE_CONNS", 2)),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "aidgate.audit"),
		},
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		OwnerID:     os.Getenv("OWNER_ACCOUNT"),
	}
}

// Validate rejects configurations that would silently pick a funding policy
// or run a treasury deployment without a treasury account.
func (c Config) Validate() error {
	switch c.Claims.Funding {
	case FundingMint:
	case FundingTreasury:
		if c.Claims.Treasury == "" {
			return fmt.Errorf("CLAIM_TREASURY_ACCOUNT is required when CLAIM_FUNDING=treasury")
		}
	default:
		return fmt.Errorf("CLAIM_FUNDING must be %q or %q, got %q", FundingMint, FundingTreasury, c.Claims.Funding)
	}
	if c.Claims.Amount == 0 {
		return fmt.Errorf("CLAIM_AMOUNT must be greater than zero")
	}
	if c.Ledger.MaxSupply == 0 {
		return fmt.Errorf("MAX_SUPPLY must be greater than zero")
	}
	if c.Governance.MinVotes == 0 {
		return fmt.Errorf("GOVERNANCE_MIN_VOTES must be greater than zero")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
