package ontology

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
)

// matchKeyFunc is the SQL name of MatchKey, registered on every connection.
const matchKeyFunc = "match_key"

func init() {
	err := sqlite.RegisterDeterministicScalarFunction(matchKeyFunc, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return MatchKey(v), nil
		case []byte:
			return MatchKey(string(v)), nil
		default:
			return nil, nil
		}
	})
	if err != nil {
		panic(fmt.Sprintf("ontology: register %s: %v", matchKeyFunc, err))
	}
}

// SQLStore searches a semantic-SQL ontology database (the `statements` triple table
// published per OBO ontology). The database is opened query-only.
type SQLStore struct {
	db   *sqlx.DB
	path string
}

// OpenSQLStore opens the SQLite database at path for read-only querying.
func OpenSQLStore(path string) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("OpenSQLStore: path is empty")
	}
	db, err := sqlx.Open("sqlite", path+"?_pragma=query_only(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("OpenSQLStore: open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenSQLStore: ping %s: %w", path, err)
	}
	var n int
	if err := db.Get(&n, `SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = 'statements'`); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenSQLStore: inspect schema: %w", err)
	}
	if n == 0 {
		db.Close()
		return nil, fmt.Errorf("OpenSQLStore: %s has no statements table", path)
	}
	return &SQLStore{db: db, path: path}, nil
}

// Path returns the database file backing the store.
func (s *SQLStore) Path() string {
	return s.path
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// BasicSearch implements Searcher. Values are compared by MatchKey, so the
// comparison is Unicode case-insensitive and ignores surrounding whitespace.
// Deprecated terms are never returned.
func (s *SQLStore) BasicSearch(ctx context.Context, text string, prop SearchProperty) ([]string, error) {
	preds, err := prop.Predicates()
	if err != nil {
		return nil, err
	}
	key := MatchKey(text)
	if key == "" {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT DISTINCT subject
		FROM statements
		WHERE predicate IN (?) AND value IS NOT NULL AND `+matchKeyFunc+`(value) = ?
		  AND subject NOT IN (
			SELECT subject FROM statements
			WHERE predicate = ? AND lower(value) IN ('true', '1'))
		ORDER BY subject`, preds, key, PredDeprecated)
	if err != nil {
		return nil, fmt.Errorf("BasicSearch: build query: %w", err)
	}
	var curies []string
	if err := s.db.SelectContext(ctx, &curies, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("BasicSearch: %q: %w", text, err)
	}
	return curies, nil
}

// Label implements Searcher. Terms without a label return "".
func (s *SQLStore) Label(ctx context.Context, curie string) (string, error) {
	var label string
	err := s.db.GetContext(ctx, &label, `
		SELECT value FROM statements
		WHERE subject = ? AND predicate = ? AND value IS NOT NULL
		ORDER BY value
		LIMIT 1`, curie, PredLabel)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("Label: %s: %w", curie, err)
	}
	return label, nil
}

// Metadata implements Searcher.
func (s *SQLStore) Metadata(ctx context.Context) ([]Metadata, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT o.subject AS id, COALESCE(v.object, v.value, '') AS version_iri
		FROM statements o
		LEFT JOIN statements v ON v.subject = o.subject AND v.predicate = ?
		WHERE o.predicate = 'rdf:type' AND o.object = 'owl:Ontology'
		ORDER BY o.subject`, PredVersionIRI)
	if err != nil {
		return nil, fmt.Errorf("Metadata: %w", err)
	}
	defer rows.Close()

	var out []Metadata
	for rows.Next() {
		var rec struct {
			ID         string `db:"id"`
			VersionIRI string `db:"version_iri"`
		}
		if err := rows.StructScan(&rec); err != nil {
			return nil, fmt.Errorf("Metadata: scan: %w", err)
		}
		out = append(out, Metadata{ID: rec.ID, VersionIRI: rec.VersionIRI})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Metadata: rows: %w", err)
	}
	return out, nil
}
