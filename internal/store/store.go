// Package store provides SQLite-backed persistence for the deontic
// corpus: statements, topics, conflicts, and citation edges.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ksalter/deontica/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS topics (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	case_count  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS statements (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	logic_expression TEXT NOT NULL,
	natural_language TEXT NOT NULL,
	confidence       REAL NOT NULL CHECK(confidence BETWEEN 0.0 AND 1.0),
	modality         TEXT NOT NULL,
	topic_id         INTEGER REFERENCES topics(id),
	case_id          TEXT NOT NULL DEFAULT '',
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_statements_topic ON statements(topic_id);
CREATE INDEX IF NOT EXISTS idx_statements_case ON statements(case_id);

CREATE TABLE IF NOT EXISTS conflicts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	statement_a INTEGER NOT NULL REFERENCES statements(id),
	statement_b INTEGER NOT NULL REFERENCES statements(id),
	type        TEXT NOT NULL,
	severity    TEXT NOT NULL,
	description TEXT NOT NULL,
	resolution  TEXT NOT NULL DEFAULT '',
	resolved    INTEGER NOT NULL DEFAULT 0,
	UNIQUE(statement_a, statement_b, type)
);

CREATE TABLE IF NOT EXISTS citations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	citing_case TEXT NOT NULL,
	cited_case  TEXT NOT NULL,
	treatment   TEXT NOT NULL,
	date        TEXT NOT NULL,
	strength    REAL NOT NULL CHECK(strength >= 0)
);
CREATE INDEX IF NOT EXISTS idx_citations_cited ON citations(cited_case);
CREATE INDEX IF NOT EXISTS idx_citations_citing ON citations(citing_case);
`

// Store is the durable home of all four entity collections. It is the
// single writer; callers coordinating ingest hold the engine's write
// lock around mutating sequences.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and
// applies the schema
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection sidesteps SQLITE_BUSY under concurrent readers;
	// throughput is not a goal for an interactive research tool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertStatements persists a batch of statements in one transaction,
// assigning identifiers in insertion order. All-or-nothing: on error no
// statement from the batch is persisted.
func (s *Store) InsertStatements(ctx context.Context, statements []model.Statement) ([]model.Statement, error) {
	if len(statements) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	out := make([]model.Statement, 0, len(statements))
	for _, stmt := range statements {
		var topicID interface{}
		if stmt.TopicID > 0 {
			topicID = stmt.TopicID
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO statements (logic_expression, natural_language, confidence, modality, topic_id, case_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			stmt.LogicExpression, stmt.NaturalLanguage, stmt.Confidence,
			string(stmt.Modality), topicID, stmt.CaseID, now.Format(time.RFC3339Nano))
		if err != nil {
			return nil, fmt.Errorf("insert statement: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("statement id: %w", err)
		}
		stmt.ID = id
		stmt.CreatedAt = now
		out = append(out, stmt)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// ListStatements returns the full persisted corpus ordered by identifier
func (s *Store) ListStatements(ctx context.Context) ([]model.Statement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, logic_expression, natural_language, confidence, modality,
		        COALESCE(topic_id, 0), case_id, created_at
		 FROM statements ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var out []model.Statement
	for rows.Next() {
		var stmt model.Statement
		var modality, createdAt string
		if err := rows.Scan(&stmt.ID, &stmt.LogicExpression, &stmt.NaturalLanguage,
			&stmt.Confidence, &modality, &stmt.TopicID, &stmt.CaseID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		stmt.Modality = model.Modality(modality)
		stmt.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, stmt)
	}
	return out, rows.Err()
}

// ResolveTopic returns the topic named name, creating it lazily on first
// reference
func (s *Store) ResolveTopic(ctx context.Context, name, description string) (model.Topic, error) {
	var t model.Topic
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, case_count FROM topics WHERE name = ?`, name).
		Scan(&t.ID, &t.Name, &t.Description, &t.CaseCount)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return t, fmt.Errorf("lookup topic: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO topics (name, description) VALUES (?, ?)`, name, description)
	if err != nil {
		return t, fmt.Errorf("create topic: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return t, fmt.Errorf("topic id: %w", err)
	}
	return model.Topic{ID: id, Name: name, Description: description}, nil
}

// BumpTopicCases increments a topic's case count
func (s *Store) BumpTopicCases(ctx context.Context, topicID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE topics SET case_count = case_count + 1 WHERE id = ?`, topicID)
	if err != nil {
		return fmt.Errorf("bump topic cases: %w", err)
	}
	return nil
}

// ListTopics returns all topics ordered by identifier
func (s *Store) ListTopics(ctx context.Context) ([]model.Topic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, case_count FROM topics ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var out []model.Topic
	for rows.Next() {
		var t model.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CaseCount); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpsertConflicts persists conflicts that are not already recorded,
// treating the statement pair as unordered and keying on
// (pair, conflict type). Returns the number inserted.
func (s *Store) UpsertConflicts(ctx context.Context, conflicts []model.Conflict) (int, error) {
	if len(conflicts) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, c := range conflicts {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO conflicts (statement_a, statement_b, type, severity, description, resolution)
			 SELECT ?, ?, ?, ?, ?, ?
			 WHERE NOT EXISTS (
				SELECT 1 FROM conflicts
				WHERE type = ?
				  AND ((statement_a = ? AND statement_b = ?) OR (statement_a = ? AND statement_b = ?))
			 )`,
			c.StatementA, c.StatementB, string(c.Type), string(c.Severity), c.Description, c.Resolution,
			string(c.Type), c.StatementA, c.StatementB, c.StatementB, c.StatementA)
		if err != nil {
			return 0, fmt.Errorf("insert conflict: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ListConflicts returns persisted conflicts, optionally only unresolved
// ones. Resolved conflicts are retained for audit.
func (s *Store) ListConflicts(ctx context.Context, unresolvedOnly bool) ([]model.Conflict, error) {
	query := `SELECT id, statement_a, statement_b, type, severity, description, resolution, resolved
	          FROM conflicts`
	if unresolvedOnly {
		query += ` WHERE resolved = 0`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	defer rows.Close()

	var out []model.Conflict
	for rows.Next() {
		var c model.Conflict
		var typ, severity string
		if err := rows.Scan(&c.ID, &c.StatementA, &c.StatementB, &typ, &severity,
			&c.Description, &c.Resolution, &c.Resolved); err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		c.Type = model.ConflictType(typ)
		c.Severity = model.Severity(severity)
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarkConflictResolved sets the resolved flag on a conflict
func (s *Store) MarkConflictResolved(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conflicts SET resolved = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conflict %d not found", id)
	}
	return nil
}

// InsertCitation appends a citation edge. Edges are never updated or
// deleted through this interface.
func (s *Store) InsertCitation(ctx context.Context, c model.Citation) (model.Citation, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO citations (citing_case, cited_case, treatment, date, strength)
		 VALUES (?, ?, ?, ?, ?)`,
		c.CitingCase, c.CitedCase, string(c.Treatment),
		c.Date.UTC().Format(time.RFC3339), c.Strength)
	if err != nil {
		return c, fmt.Errorf("insert citation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return c, fmt.Errorf("citation id: %w", err)
	}
	c.ID = id
	return c, nil
}

// ListCitations returns the full citation edge set in insertion order
func (s *Store) ListCitations(ctx context.Context) ([]model.Citation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, citing_case, cited_case, treatment, date, strength
		 FROM citations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list citations: %w", err)
	}
	defer rows.Close()

	var out []model.Citation
	for rows.Next() {
		var c model.Citation
		var treatment, date string
		if err := rows.Scan(&c.ID, &c.CitingCase, &c.CitedCase, &treatment, &date, &c.Strength); err != nil {
			return nil, fmt.Errorf("scan citation: %w", err)
		}
		c.Treatment = model.Treatment(treatment)
		c.Date, _ = time.Parse(time.RFC3339, date)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Stats aggregates the persisted corpus
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	stats := model.Stats{
		StatementsByModality: make(map[model.Modality]int),
		UnresolvedConflicts:  make(map[model.Severity]int),
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM statements),
		        (SELECT COUNT(*) FROM topics),
		        (SELECT COUNT(*) FROM citations)`)
	if err := row.Scan(&stats.TotalStatements, &stats.TotalTopics, &stats.TotalCitations); err != nil {
		return stats, fmt.Errorf("count totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT modality, COUNT(*) FROM statements GROUP BY modality`)
	if err != nil {
		return stats, fmt.Errorf("modality counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var modality string
		var n int
		if err := rows.Scan(&modality, &n); err != nil {
			return stats, fmt.Errorf("scan modality count: %w", err)
		}
		stats.StatementsByModality[model.Modality(modality)] = n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	sevRows, err := s.db.QueryContext(ctx,
		`SELECT severity, COUNT(*) FROM conflicts WHERE resolved = 0 GROUP BY severity`)
	if err != nil {
		return stats, fmt.Errorf("severity counts: %w", err)
	}
	defer sevRows.Close()
	for sevRows.Next() {
		var severity string
		var n int
		if err := sevRows.Scan(&severity, &n); err != nil {
			return stats, fmt.Errorf("scan severity count: %w", err)
		}
		stats.UnresolvedConflicts[model.Severity(severity)] = n
	}
	return stats, sevRows.Err()
}
