package pgaudit

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/audit"
)

// Store persists exchange events in Postgres for the governance log.
type Store struct {
	pg     *pgxpool.Pool
	schema string
}

// NewStore creates a store against the given pool. Schema defaults to
// "audit"; the table is created by the migrations in migrations/postgres.
func NewStore(pg *pgxpool.Pool, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "audit"
	}
	return &Store{pg: pg, schema: s}
}

func (s *Store) table() string { return s.schema + ".token_exchanges" }

func (s *Store) Record(ctx context.Context, ev audit.Event) error {
	if s.pg == nil {
		return nil
	}
	_, err := s.pg.Exec(ctx,
		`INSERT INTO `+s.table()+`
		 (id, at, agent_type, agent_id, user_subject, user_email, auth_server, audience,
		  requested_scopes, granted_scopes, outcome, detail)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		ev.ID, ev.At, ev.AgentType, ev.AgentID, ev.UserSubject, ev.UserEmail,
		ev.AuthServerID, ev.Audience, ev.RequestedScopes, ev.GrantedScopes,
		ev.Outcome, ev.Detail)
	return err
}

func (s *Store) Recent(ctx context.Context, since time.Time, limit int) ([]audit.Event, error) {
	out := []audit.Event{}
	if s.pg == nil {
		return out, nil
	}
	rows, err := s.pg.Query(ctx,
		`SELECT id, at, agent_type, agent_id, user_subject, user_email, auth_server, audience,
		        requested_scopes, granted_scopes, outcome, detail
		 FROM `+s.table()+`
		 WHERE at >= $1
		 ORDER BY at DESC
		 LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ev audit.Event
		if err := rows.Scan(&ev.ID, &ev.At, &ev.AgentType, &ev.AgentID, &ev.UserSubject,
			&ev.UserEmail, &ev.AuthServerID, &ev.Audience, &ev.RequestedScopes,
			&ev.GrantedScopes, &ev.Outcome, &ev.Detail); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Sweep deletes events older than the retention window. Scheduled from
// the server's cron.
func (s *Store) Sweep(ctx context.Context, retention time.Duration) (int64, error) {
	if s.pg == nil {
		return 0, nil
	}
	tag, err := s.pg.Exec(ctx,
		`DELETE FROM `+s.table()+` WHERE at < $1`, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
