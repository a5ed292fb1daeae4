// Package sqlite implements index.Index on SQLite FTS5.
//
// Documents of every logical index share one table, partitioned by index name.
// Searchable text is analyzed (tokenized, stop words dropped, stemmed) before it
// reaches FTS5, and queries go through the same analyzer, so matching is on stems.
// Geo radius filters use a bounding box prefilter in SQL and an exact haversine
// check in Go.
package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/index"
)

// DefaultLimit is used when a query doesn't set Options.Limit.
const DefaultLimit = 20

// Index implements index.Index.
type Index struct {
	db           *sql.DB
	logger       *slog.Logger
	defaultLimit int
	closed       atomic.Bool
}

var _ index.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// WithDefaultLimit sets the hit limit used when a query doesn't set one.
func WithDefaultLimit(limit int) Option {
	return func(i *Index) error {
		if limit <= 0 {
			return fmt.Errorf("default limit must be positive, got %d", limit)
		}
		i.defaultLimit = limit
		return nil
	}
}

// Open opens or creates an index database at path.
func Open(path string, opts ...Option) (*Index, error) {
	return open(path, []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
		"PRAGMA mmap_size = 268435456", // 256MB mmap
	}, opts)
}

// OpenMemory opens a private in-memory index, mostly for tests.
func OpenMemory(opts ...Option) (*Index, error) {
	return open(":memory:", []string{"PRAGMA temp_store = memory"}, opts)
}

func open(dsn string, pragmas []string, opts []Option) (*Index, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps per-connection pragmas in force and makes
	// ":memory:" one database instead of one per pooled connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	idx := &Index{
		db:           db,
		logger:       slog.Default(),
		defaultLimit: DefaultLimit,
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return idx, nil
}

// Close closes the database.
func (i *Index) Close() error {
	if i.closed.Swap(true) {
		return nil
	}
	return i.db.Close()
}

// Optimize runs SQLite's optimizer and merges FTS5 segments.
func (i *Index) Optimize(ctx context.Context) error {
	if i.closed.Load() {
		return index.ErrIndexClosed
	}
	if _, err := i.db.ExecContext(ctx, "INSERT INTO documents_fts(documents_fts) VALUES('optimize')"); err != nil {
		return fmt.Errorf("optimizing full-text index: %w", err)
	}
	_, err := i.db.ExecContext(ctx, "PRAGMA optimize")
	return err
}

func (i *Index) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if i.closed.Load() {
		return index.ErrIndexClosed
	}
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				i.logger.Warn("failed to rollback transaction", "err", err)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func lookupRowID(ctx context.Context, tx *sql.Tx, indexName string, id core.ID) (int64, bool, error) {
	var rowid int64
	err := tx.QueryRowContext(ctx,
		"SELECT rowid FROM documents WHERE index_name = ? AND doc_id = ?", indexName, string(id)).Scan(&rowid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rowid, true, nil
}

// Index adds or replaces documents.
func (i *Index) Index(ctx context.Context, indexName string, docs ...index.Document) error {
	if len(docs) == 0 {
		return nil
	}
	analyzer := index.NewAnalyzer(index.LanguageOf(indexName))

	return i.withTx(ctx, func(tx *sql.Tx) error {
		for _, doc := range docs {
			fieldsJSON, err := json.Marshal(doc.Fields)
			if err != nil {
				return fmt.Errorf("marshaling fields for document %s: %w", doc.ID, err)
			}

			rowid, found, err := lookupRowID(ctx, tx, indexName, doc.ID)
			if err != nil {
				return fmt.Errorf("looking up document %s: %w", doc.ID, err)
			}

			if found {
				if _, err := tx.ExecContext(ctx, "DELETE FROM documents_fts WHERE rowid = ?", rowid); err != nil {
					return fmt.Errorf("removing document %s from FTS: %w", doc.ID, err)
				}
				_, err = tx.ExecContext(ctx,
					"UPDATE documents SET fields = ?, has_location = ?, lat = ?, lng = ? WHERE rowid = ?",
					string(fieldsJSON), doc.HasLocation, doc.Latitude, doc.Longitude, rowid)
				if err != nil {
					return fmt.Errorf("updating document %s: %w", doc.ID, err)
				}
			} else {
				res, err := tx.ExecContext(ctx,
					"INSERT INTO documents (index_name, doc_id, fields, has_location, lat, lng) VALUES (?, ?, ?, ?, ?, ?)",
					indexName, string(doc.ID), string(fieldsJSON), doc.HasLocation, doc.Latitude, doc.Longitude)
				if err != nil {
					return fmt.Errorf("inserting document %s: %w", doc.ID, err)
				}
				if rowid, err = res.LastInsertId(); err != nil {
					return err
				}
			}

			terms := strings.Join(analyzer.Terms(doc.Text), " ")
			if _, err := tx.ExecContext(ctx, "INSERT INTO documents_fts (rowid, terms) VALUES (?, ?)", rowid, terms); err != nil {
				return fmt.Errorf("inserting document %s into FTS: %w", doc.ID, err)
			}
		}
		return nil
	})
}

// Delete removes documents by ID.
func (i *Index) Delete(ctx context.Context, indexName string, ids ...core.ID) error {
	return i.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			rowid, found, err := lookupRowID(ctx, tx, indexName, id)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM documents_fts WHERE rowid = ?", rowid); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE rowid = ?", rowid); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear removes every document of indexName.
func (i *Index) Clear(ctx context.Context, indexName string) error {
	return i.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM documents_fts WHERE rowid IN (SELECT rowid FROM documents WHERE index_name = ?)", indexName)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM documents WHERE index_name = ?", indexName)
		return err
	})
}

// Count returns the number of documents in indexName.
func (i *Index) Count(ctx context.Context, indexName string) (int, error) {
	if i.closed.Load() {
		return 0, index.ErrIndexClosed
	}
	var n int
	err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE index_name = ?", indexName).Scan(&n)
	return n, err
}

type candidate struct {
	hit         index.Hit
	hasLocation bool
	lat, lng    float64
}

// Search implements index.Searcher.
//
// Every term must match as a prefix of an indexed stem. When that finds nothing
// the query is retried with any term matching.
func (i *Index) Search(ctx context.Context, indexName, text string, opts index.Options) ([]index.Hit, error) {
	if i.closed.Load() {
		return nil, index.ErrIndexClosed
	}

	q, err := i.plan(indexName, text, opts)
	if err != nil {
		return nil, err
	}

	candidates, err := i.run(ctx, q, q.allTerms())
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 && len(q.terms) > 1 {
		if candidates, err = i.run(ctx, q, q.anyTerm()); err != nil {
			return nil, err
		}
	}

	return q.finish(candidates), nil
}

type query struct {
	indexName  string
	terms      []string
	limit      int
	attributes []string
	geoSort    *index.GeoPoint
	radius     *index.Filter
	equals     []index.Filter
}

func (i *Index) plan(indexName, text string, opts index.Options) (*query, error) {
	q := &query{
		indexName:  indexName,
		terms:      index.NewAnalyzer(index.LanguageOf(indexName)).Terms(text),
		limit:      opts.Limit,
		attributes: opts.AttributesToRetrieve,
	}
	if q.limit <= 0 {
		q.limit = i.defaultLimit
	}

	for _, s := range opts.Sort {
		point, err := index.ParseGeoPoint(s)
		if err != nil {
			return nil, err
		}
		q.geoSort = &point
	}
	for _, f := range opts.Filter {
		filter, err := index.ParseFilter(f)
		if err != nil {
			return nil, err
		}
		if filter.IsGeo() {
			q.radius = &filter
		} else {
			q.equals = append(q.equals, filter)
		}
	}
	return q, nil
}

func (q *query) allTerms() string {
	parts := make([]string, len(q.terms))
	for n, t := range q.terms {
		parts[n] = `"` + t + `"*`
	}
	return strings.Join(parts, " ")
}

func (q *query) anyTerm() string {
	parts := make([]string, len(q.terms))
	for n, t := range q.terms {
		parts[n] = `"` + t + `"*`
	}
	return strings.Join(parts, " OR ")
}

func (i *Index) run(ctx context.Context, q *query, match string) ([]candidate, error) {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT d.doc_id, d.fields, d.has_location, d.lat, d.lng FROM documents d")
	if len(q.terms) > 0 {
		sb.WriteString(" JOIN documents_fts ON documents_fts.rowid = d.rowid WHERE documents_fts MATCH ? AND")
		args = append(args, match)
	} else {
		sb.WriteString(" WHERE")
	}
	sb.WriteString(" d.index_name = ?")
	args = append(args, q.indexName)

	for _, f := range q.equals {
		sb.WriteString(" AND json_extract(d.fields, ?) = ?")
		args = append(args, `$."`+f.Attribute+`"`, f.Value)
	}
	if q.radius != nil {
		minLat, maxLat, minLng, maxLng := index.BoundingBox(q.radius.Lat, q.radius.Lng, q.radius.Radius)
		sb.WriteString(" AND d.has_location = 1 AND d.lat BETWEEN ? AND ? AND d.lng BETWEEN ? AND ?")
		args = append(args, minLat, maxLat, minLng, maxLng)
	}

	if len(q.terms) > 0 {
		sb.WriteString(" ORDER BY bm25(documents_fts), d.doc_id")
	} else {
		sb.WriteString(" ORDER BY d.doc_id")
	}
	// Geo queries are trimmed after the exact distance pass
	if q.geoSort == nil && q.radius == nil {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.limit)
	}

	rows, err := i.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.indexName, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			i.logger.Warn("failed to close rows", "err", err)
		}
	}()

	var candidates []candidate
	for rows.Next() {
		var c candidate
		var docID, fieldsJSON string
		if err := rows.Scan(&docID, &fieldsJSON, &c.hasLocation, &c.lat, &c.lng); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		c.hit.ID = core.ID(docID)
		if err := json.Unmarshal([]byte(fieldsJSON), &c.hit.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields of %s: %w", docID, err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (q *query) finish(candidates []candidate) []index.Hit {
	kept := candidates[:0]
	for _, c := range candidates {
		c.hit.Distance = -1
		if q.radius != nil {
			d := index.Haversine(q.radius.Lat, q.radius.Lng, c.lat, c.lng)
			if d > q.radius.Radius {
				continue
			}
		}
		if q.geoSort != nil && c.hasLocation {
			c.hit.Distance = index.Haversine(q.geoSort.Lat, q.geoSort.Lng, c.lat, c.lng)
		}
		kept = append(kept, c)
	}

	if q.geoSort != nil {
		desc := q.geoSort.Descending
		// Documents without a location sort after every located one
		slices.SortStableFunc(kept, func(a, b candidate) int {
			if a.hasLocation != b.hasLocation {
				if a.hasLocation {
					return -1
				}
				return 1
			}
			if desc {
				return cmp.Compare(b.hit.Distance, a.hit.Distance)
			}
			return cmp.Compare(a.hit.Distance, b.hit.Distance)
		})
	}

	if len(kept) > q.limit {
		kept = kept[:q.limit]
	}

	hits := make([]index.Hit, len(kept))
	for n, c := range kept {
		hits[n] = c.hit
		if len(q.attributes) > 0 {
			hits[n].Fields = pick(c.hit.Fields, q.attributes)
		}
	}
	return hits
}

func pick(fields map[string]string, attributes []string) map[string]string {
	out := make(map[string]string, len(attributes))
	for _, a := range attributes {
		if v, ok := fields[a]; ok {
			out[a] = v
		}
	}
	return out
}
