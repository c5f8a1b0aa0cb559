package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Profiles holds the two PostgreSQL connection pools the service operates
// with: the restricted pool connects as the row-level-security constrained
// role, the privileged pool as the role that bypasses those policies.
type Profiles struct {
	Restricted *pgxpool.Pool
	Privileged *pgxpool.Pool
}

// NewPostgresProfiles opens both store profiles from their DSNs.
func NewPostgresProfiles(ctx context.Context, restrictedURL, privilegedURL string) (Profiles, error) {
	restricted, err := NewPostgresPool(ctx, restrictedURL)
	if err != nil {
		return Profiles{}, fmt.Errorf("restricted profile: %w", err)
	}

	privileged, err := NewPostgresPool(ctx, privilegedURL)
	if err != nil {
		restricted.Close()
		return Profiles{}, fmt.Errorf("privileged profile: %w", err)
	}

	return Profiles{Restricted: restricted, Privileged: privileged}, nil
}

// Close releases both pools.
func (p Profiles) Close() {
	if p.Restricted != nil {
		p.Restricted.Close()
	}
	if p.Privileged != nil {
		p.Privileged.Close()
	}
}

// NewPostgresPool configures and returns a PostgreSQL connection pool.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}
