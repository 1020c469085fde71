package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGStore persists session records in Postgres so operator sessions
// survive console restarts. The schema is a single key-value-ish table;
// the console never stores anything derived from the token.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the sessions table when it does not exist yet.
func (p *PGStore) EnsureSchema(ctx context.Context) error {
	const ddl = `create table if not exists console_sessions (
		sid text primary key,
		token text not null default '',
		language text not null default '',
		updated_at timestamptz not null default now()
	)`
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("session: ensure schema: %w", err)
	}
	return nil
}

// Get returns the record for sid; an unknown sid reads as a zero Record.
func (p *PGStore) Get(ctx context.Context, sid string) (Record, error) {
	const q = `select token, language from console_sessions where sid = $1`
	var rec Record
	err := p.db.QueryRowContext(ctx, q, sid).Scan(&rec.Token, &rec.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("session: get: %w", err)
	}
	return rec, nil
}

// SetToken upserts the bearer token for sid.
func (p *PGStore) SetToken(ctx context.Context, sid, token string) error {
	const q = `insert into console_sessions (sid, token) values ($1, $2)
		on conflict (sid) do update set token = excluded.token, updated_at = now()`
	if _, err := p.db.ExecContext(ctx, q, sid, token); err != nil {
		return fmt.Errorf("session: set token: %w", err)
	}
	return nil
}

// ClearToken blanks the bearer token, keeping the language preference.
func (p *PGStore) ClearToken(ctx context.Context, sid string) error {
	const q = `update console_sessions set token = '', updated_at = now() where sid = $1`
	if _, err := p.db.ExecContext(ctx, q, sid); err != nil {
		return fmt.Errorf("session: clear token: %w", err)
	}
	return nil
}

// SetLanguage upserts the operator's language preference.
func (p *PGStore) SetLanguage(ctx context.Context, sid, lang string) error {
	const q = `insert into console_sessions (sid, language) values ($1, $2)
		on conflict (sid) do update set language = excluded.language, updated_at = now()`
	if _, err := p.db.ExecContext(ctx, q, sid, lang); err != nil {
		return fmt.Errorf("session: set language: %w", err)
	}
	return nil
}
