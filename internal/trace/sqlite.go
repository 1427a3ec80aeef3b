package trace

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/ripple/pkg/api"
)

// SQLiteSink stores trace records in SQLite. Records are written
// synchronously from Append, so it is meant for moderate-volume traces
// or for sinks wrapped in an async forwarder.
type SQLiteSink struct {
	domain string
	db     *sql.DB
}

var _ api.TraceSink = (*SQLiteSink)(nil)

// NewSQLiteSink creates a sink writing records for the named domain
// into db, creating the schema when missing.
func NewSQLiteSink(domain string, db *sql.DB) (*SQLiteSink, error) {
	s := &SQLiteSink{domain: domain, db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trace_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			domain TEXT NOT NULL,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			node INTEGER NOT NULL DEFAULT 0,
			other INTEGER NOT NULL DEFAULT 0,
			turn INTEGER NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_trace_events_domain ON trace_events(domain, id);
	`)
	return err
}

// Append writes one record.
func (s *SQLiteSink) Append(ev api.TraceEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO trace_events (domain, at, type, node, other, turn, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.domain,
		at.UnixNano(),
		string(ev.Type),
		uint64(ev.Node),
		uint64(ev.Other),
		uint64(ev.Turn),
		ev.Detail,
	)
	return err
}

// List returns all records stored for the sink's domain, oldest first.
func (s *SQLiteSink) List(ctx context.Context) ([]api.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT at, type, node, other, turn, detail
		FROM trace_events
		WHERE domain = ?
		ORDER BY id ASC`, s.domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.TraceEvent
	for rows.Next() {
		var (
			atN    int64
			typ    string
			node   uint64
			other  uint64
			turn   uint64
			detail string
		)
		if err := rows.Scan(&atN, &typ, &node, &other, &turn, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.TraceEvent{
			Type:   api.TraceEventType(typ),
			At:     time.Unix(0, atN),
			Node:   api.NodeID(node),
			Other:  api.NodeID(other),
			Turn:   api.TurnID(turn),
			Detail: detail,
		})
	}
	return out, rows.Err()
}
