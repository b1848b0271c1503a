package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultSchema = "gosession"

	migrationInfoTableName = "migration_info"
	sessionsTableName      = "sessions"
	credentialsTableName   = "one_time_credentials"
	usersTableName         = "users"
	identitiesTableName    = "user_identities"

	migrationLockID = 0x67736573
)

// Store is a Postgres-backed session, credential and user store.
type Store struct {
	pool   *pgxpool.Pool
	schema string
}

// Option configures a Store.
type Option func(*Store)

// WithSchema places every table in schema instead of "gosession".
func WithSchema(schema string) Option {
	return func(s *Store) {
		if schema != "" {
			s.schema = schema
		}
	}
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, schema: defaultSchema}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open parses dsn, connects a pool and pings it.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	return New(pool, opts...), nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool returns the underlying pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

// Migrate brings the schema up to date and returns the resulting version.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	var version int
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadWrite}, func(tx pgx.Tx) error {
		var err error
		version, err = s.migrate(ctx, tx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("pgstore: migrate: %w", err)
	}
	return version, nil
}

func (s *Store) migrations() []string {
	return []string{
		`CREATE TABLE ` + s.table(usersTableName) + ` (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			password_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE ` + s.table(identitiesTableName) + ` (
			provider TEXT NOT NULL,
			provider_user_id TEXT NOT NULL,
			user_id TEXT NOT NULL REFERENCES ` + s.table(usersTableName) + ` (id) ON DELETE CASCADE,
			PRIMARY KEY (provider, provider_user_id)
		)`,
		`CREATE TABLE ` + s.table(sessionsTableName) + ` (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX ON ` + s.table(sessionsTableName) + ` (user_id)`,
		`CREATE INDEX ON ` + s.table(sessionsTableName) + ` (expires_at)`,
		`CREATE TABLE ` + s.table(credentialsTableName) + ` (
			subject_key TEXT NOT NULL,
			purpose SMALLINT NOT NULL,
			hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (subject_key, purpose)
		)`,
		`CREATE INDEX ON ` + s.table(credentialsTableName) + ` (purpose, expires_at)`,
	}
}

func (s *Store) migrate(ctx context.Context, tx pgx.Tx) (int, error) {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS `+pgx.Identifier{s.schema}.Sanitize()); err != nil {
		return 0, err
	}
	info := s.table(migrationInfoTableName)
	if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+info+` (version INTEGER NOT NULL)`); err != nil {
		return 0, err
	}

	var version int
	err := tx.QueryRow(ctx, `SELECT version FROM `+info).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := tx.Exec(ctx, `INSERT INTO `+info+` (version) VALUES (0)`); err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	steps := s.migrations()
	for version < len(steps) {
		if _, err := tx.Exec(ctx, steps[version]); err != nil {
			return 0, fmt.Errorf("step %d: %w", version+1, err)
		}
		version++
	}
	if _, err := tx.Exec(ctx, `UPDATE `+info+` SET version = $1`, version); err != nil {
		return 0, err
	}
	return version, nil
}

func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
