package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// sqlStore holds the queries shared by the SQLite and MySQL backends. Both
// dialects accept ? placeholders and REPLACE INTO, so only the schema differs.
type sqlStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

var errClosed = errors.New("store is closed")

func (s *sqlStore) migrate(ctx context.Context, ddl []string) error {
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

func (s *sqlStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}
	return nil
}

// SaveRun inserts or replaces the record with rec.ID.
func (s *sqlStore) SaveRun(ctx context.Context, rec RunRecord) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	data, err := encode(rec)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`REPLACE INTO stepgraph_runs (id, graph_id, status, created_at, record) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.GraphID, string(rec.Status), rec.CreatedAt.UnixNano(), string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
	}
	return nil
}

// GetRun returns the record for id.
func (s *sqlStore) GetRun(ctx context.Context, id string) (RunRecord, error) {
	if err := s.checkOpen(); err != nil {
		return RunRecord{}, err
	}

	var data string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM stepgraph_runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return decode[RunRecord]([]byte(data))
}

// ListRuns returns records newest first.
func (s *sqlStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := `SELECT record FROM stepgraph_runs ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []RunRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec, err := decode[RunRecord]([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return out, nil
}

// SaveGraph inserts or replaces the definition with rec.ID.
func (s *sqlStore) SaveGraph(ctx context.Context, rec GraphRecord) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	data, err := encode(rec)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`REPLACE INTO stepgraph_graphs (id, name, created_at, record) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.CreatedAt.UnixNano(), string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save graph %s: %w", rec.ID, err)
	}
	return nil
}

// GetGraph returns the definition for id.
func (s *sqlStore) GetGraph(ctx context.Context, id string) (GraphRecord, error) {
	if err := s.checkOpen(); err != nil {
		return GraphRecord{}, err
	}

	var data string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM stepgraph_graphs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return GraphRecord{}, ErrNotFound
	}
	if err != nil {
		return GraphRecord{}, fmt.Errorf("failed to load graph %s: %w", id, err)
	}
	return decode[GraphRecord]([]byte(data))
}

// Ping verifies the database connection is alive.
func (s *sqlStore) Ping(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Close closes the database. Calling Close more than once is a no-op.
func (s *sqlStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
