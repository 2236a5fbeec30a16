// Package config reads service settings from the environment, after loading
// any .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/zkvc/pkg/credential"
)

const (
	EnvAddr             = "ZKVC_ADDR"
	EnvKeysDir          = "ZKVC_KEYS_DIR"
	EnvPredicateImageID = "ZKVC_PREDICATE_IMAGE_ID"
	EnvRelationImageID  = "ZKVC_RELATION_IMAGE_ID"
	EnvMaxProvers       = "ZKVC_MAX_PROVERS"
	EnvProveTimeout     = "ZKVC_PROVE_TIMEOUT"
	EnvLogLevel         = "ZKVC_LOG_LEVEL"
	EnvTrustedIssuers   = "ZKVC_TRUSTED_ISSUER_KEYS"
)

type Config struct {
	Addr    string
	KeysDir string

	// Hex image ids the verifier pins. Empty means unpinned.
	PredicateImageID string
	RelationImageID  string

	// Issuer keys a receipt may commit to. Empty accepts any valid key.
	TrustedIssuers []credential.PublicKey

	MaxProvers   int
	ProveTimeout time.Duration
	LogLevel     string
}

// Load reads the given .env files (".env" when none are named) without
// overriding variables already set, then builds the config from the
// environment. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:             getenv(EnvAddr, ":8080"),
		KeysDir:          getenv(EnvKeysDir, "./keys"),
		PredicateImageID: os.Getenv(EnvPredicateImageID),
		RelationImageID:  os.Getenv(EnvRelationImageID),
		MaxProvers:       runtime.NumCPU(),
		ProveTimeout:     2 * time.Minute,
		LogLevel:         getenv(EnvLogLevel, "info"),
	}

	if s := os.Getenv(EnvMaxProvers); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("%s must be a positive integer, got %q", EnvMaxProvers, s)
		}
		cfg.MaxProvers = n
	}
	if s := os.Getenv(EnvProveTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%s must be a positive duration, got %q", EnvProveTimeout, s)
		}
		cfg.ProveTimeout = d
	}
	keys, err := ParseKeys(os.Getenv(EnvTrustedIssuers))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", EnvTrustedIssuers, err)
	}
	cfg.TrustedIssuers = keys
	return cfg, nil
}

// ParseKeys reads a comma-separated list of hex issuer keys.
func ParseKeys(s string) ([]credential.PublicKey, error) {
	var keys []credential.PublicKey
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := credential.ParsePublicKey(part)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Pinned reports whether both image ids are configured.
func (c Config) Pinned() bool {
	return c.PredicateImageID != "" && c.RelationImageID != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
