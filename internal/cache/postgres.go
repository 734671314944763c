package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS translation_cache (
	hash       TEXT PRIMARY KEY,
	lang       TEXT NOT NULL,
	source     TEXT NOT NULL,
	translated TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS translation_cache_lang_idx ON translation_cache (lang);
`

const (
	selectTranslation = `SELECT translated FROM translation_cache
WHERE hash = $1 AND ($2::float8 <= 0 OR updated_at > now() - make_interval(secs => $2::float8))`

	upsertTranslation = `INSERT INTO translation_cache (hash, lang, source, translated, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated, updated_at = now()`
)

// dbtx is the subset of *pgxpool.Pool the cache uses.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a Store persisted in the translation_cache table.
type Postgres struct {
	db  dbtx
	ttl time.Duration
}

// NewPostgres opens a pool for databaseURL and verifies the connection.
// Callers close the returned pool.
func NewPostgres(ctx context.Context, databaseURL string, ttl time.Duration) (*Postgres, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")

	return newPostgres(pool, ttl), pool, nil
}

func newPostgres(db dbtx, ttl time.Duration) *Postgres {
	if ttl < 0 {
		ttl = 0
	}
	return &Postgres{db: db, ttl: ttl}
}

// Migrate creates the cache table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate translation cache: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, source, lang string) (string, bool) {
	var translated string
	err := p.db.QueryRow(ctx, selectTranslation, Key(source, lang), p.ttl.Seconds()).Scan(&translated)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Msg("PostgreSQL cache lookup failed")
		return "", false
	}
	return translated, true
}

func (p *Postgres) Set(ctx context.Context, source, lang, translated string) error {
	if _, err := p.db.Exec(ctx, upsertTranslation, Key(source, lang), lang, source, translated); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

var _ Store = (*Postgres)(nil)
