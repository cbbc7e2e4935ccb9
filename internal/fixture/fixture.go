// Package fixture loads the documents the index is seeded with at start-up,
// from a YAML file or from a PostgreSQL table, and feeds them to the index.
package fixture

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/Adithya-Monish-Kumar-K/oogle/internal/index"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/ingest"
	"gopkg.in/yaml.v3"
)

const selectDocuments = `SELECT url, content FROM documents ORDER BY id`

type file struct {
	Documents []index.Document `yaml:"documents"`
}

// LoadFile reads a YAML fixture of the form
//
//	documents:
//	  - url: http://example.com
//	    content: some text
func LoadFile(path string) ([]index.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return f.Documents, nil
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadSQL reads every row of the documents table in id order. A row that
// would not be accepted by the index fails the load with an invalid-argument
// error.
func LoadSQL(ctx context.Context, db Querier) ([]index.Document, error) {
	rows, err := db.QueryContext(ctx, selectDocuments)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []index.Document
	for rows.Next() {
		var doc index.Document
		if err := rows.Scan(&doc.URL, &doc.Content); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		if err := index.Validate(&doc); err != nil {
			return nil, fmt.Errorf("document row %d: %w", len(docs), err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return docs, nil
}

// Seed adds docs in order and stops at the first failure, returning how many
// were added before it.
func Seed(ctx context.Context, sink ingest.Adder, docs []index.Document) (int, error) {
	for i := range docs {
		if err := sink.Add(ctx, ingest.SourceFixture, &docs[i]); err != nil {
			return i, fmt.Errorf("seeding document %d: %w", i, err)
		}
	}
	return len(docs), nil
}
