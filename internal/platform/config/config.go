package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"my-pet/internal/domain/identity"
)

type AuthMode string

const (
	AuthModeDev       AuthMode = "dev"
	AuthModeSignature AuthMode = "signature"
)

// DevRegistryOwner es el owner por defecto en modo dev.
const DevRegistryOwner = "0x1"

// Server captura la configuración del proceso.
type Server struct {
	Addr string

	RegistryOwner identity.ID

	AuthMode    AuthMode
	AuthMaxSkew time.Duration

	// DBDriver: memory | pgx | sqlite
	DBDriver string
	DBDSN    string
}

// FromEnv arma la config desde variables de entorno para que main quede corto.
func FromEnv() (Server, error) {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) (Server, error) {
	cfg := Server{
		Addr:        ":8080",
		AuthMode:    AuthModeDev,
		AuthMaxSkew: 5 * time.Minute,
		DBDriver:    "memory",
	}

	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		cfg.Addr = ":" + v
	}

	switch mode := AuthMode(strings.ToLower(strings.TrimSpace(getenv("AUTH_MODE")))); mode {
	case "":
	case AuthModeDev, AuthModeSignature:
		cfg.AuthMode = mode
	default:
		return Server{}, fmt.Errorf("config: AUTH_MODE must be dev or signature, got %q", mode)
	}

	if v := strings.TrimSpace(getenv("AUTH_MAX_SKEW")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Server{}, fmt.Errorf("config: AUTH_MAX_SKEW must be a positive duration, got %q", v)
		}
		cfg.AuthMaxSkew = d
	}

	owner := strings.TrimSpace(getenv("REGISTRY_OWNER"))
	if owner == "" {
		if cfg.AuthMode == AuthModeSignature {
			return Server{}, fmt.Errorf("config: REGISTRY_OWNER is required when AUTH_MODE=signature")
		}
		owner = DevRegistryOwner
	}
	id, err := identity.Parse(owner)
	if err != nil {
		return Server{}, fmt.Errorf("config: REGISTRY_OWNER: %w", err)
	}
	cfg.RegistryOwner = id

	// Compat con el handoff anterior: DB_DSN solo implica pgx.
	cfg.DBDSN = strings.TrimSpace(getenv("DB_DSN"))
	driver := strings.ToLower(strings.TrimSpace(getenv("DB_DRIVER")))
	if driver == "" && cfg.DBDSN != "" {
		driver = "pgx"
	}
	switch driver {
	case "", "memory":
		cfg.DBDriver = "memory"
	case "pgx", "postgres":
		cfg.DBDriver = "pgx"
	case "sqlite":
		cfg.DBDriver = "sqlite"
	default:
		return Server{}, fmt.Errorf("config: DB_DRIVER must be memory, pgx or sqlite, got %q", driver)
	}
	if cfg.DBDriver != "memory" && cfg.DBDSN == "" {
		return Server{}, fmt.Errorf("config: DB_DSN is required for DB_DRIVER=%s", cfg.DBDriver)
	}

	return cfg, nil
}
