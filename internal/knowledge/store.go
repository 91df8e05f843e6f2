// Package knowledge is the on-disk vector store of proof-point case
// studies. Documents are embedded once at ingest; queries are embedded at
// search time and ranked by cosine similarity. The corpus is small (tens of
// documents), so ranking scans the whole table in memory.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default relative path for the SQLite DB.
// Open() creates the parent dir (e.g. .prospect).
const DefaultDBPath = ".prospect/knowledge.db"

// Embedder converts text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Document is one case study in the knowledge base.
type Document struct {
	Content  string `yaml:"content" json:"content"`
	Industry string `yaml:"industry" json:"industry"`
	Kind     string `yaml:"kind" json:"kind"`
}

// Store is the SQLite-backed knowledge base.
type Store struct {
	db     *sql.DB
	embed  Embedder
	logger *slog.Logger
}

// Option configures the Store during construction.
type Option func(*Store)

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open opens or creates the SQLite DB at path and runs migrations.
// Creates the parent directory if it does not exist.
func Open(path string, embedder Embedder, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("knowledge: embedder is required")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, embed: embedder}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			content    TEXT NOT NULL,
			industry   TEXT NOT NULL DEFAULT '',
			kind       TEXT NOT NULL DEFAULT '',
			embedding  TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate documents table: %w", err)
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error { return s.db.Close() }

// Ingest embeds and stores the documents in one transaction.
func (s *Store) Ingest(ctx context.Context, docs []Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, doc := range docs {
		vec, err := s.embed.Embed(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("embed document: %w", err)
		}
		encoded, err := json.Marshal(vec)
		if err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (content, industry, kind, embedding, created_at) VALUES (?, ?, ?, ?, ?)`,
			doc.Content, doc.Industry, doc.Kind, string(encoded), now,
		); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest: %w", err)
	}
	s.logger.Info("knowledge base updated", "ingested", len(docs))
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

type scored struct {
	doc   Document
	score float64
}

// Search embeds the query and returns the top-k documents by cosine
// similarity. An empty store yields an empty result, not an error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		k = 1
	}

	queryVec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT content, industry, kind, embedding FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var ranked []scored
	for rows.Next() {
		var doc Document
		var encoded string
		if err := rows.Scan(&doc.Content, &doc.Industry, &doc.Kind, &encoded); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var vec []float64
		if err := json.Unmarshal([]byte(encoded), &vec); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
		ranked = append(ranked, scored{doc: doc, score: cosine(queryVec, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]Document, len(ranked))
	for i, r := range ranked {
		out[i] = r.doc
	}
	return out, nil
}

// Retrieve returns just the contents of the top-k matches. It satisfies
// pipeline.Retriever.
func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	docs, err := s.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}
	return contents, nil
}

// cosine returns the cosine similarity of two vectors; zero when either is
// empty, mismatched, or degenerate.
func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
