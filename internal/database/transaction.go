package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// AtomicBatch collects statements and runs them in a single
// BEGIN/COMMIT TRANSACTION block. Nothing is sent until Execute.
//
//	batch := NewAtomicBatch()
//	batch.Add(query1, vars1)
//	batch.Add(query2, vars2)
//	batch.Execute(ctx, db)  // All or nothing
type AtomicBatch struct {
	statements []string
	vars       map[string]interface{}
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{
		vars: make(map[string]interface{}),
	}
}

// Add appends a statement. Its variables are renamed ($id becomes $v3_id)
// so statements from different sources cannot collide.
func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	n := len(ab.statements) + 1

	// longest names first so $id never rewrites part of $id_list
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		renamed := fmt.Sprintf("v%d_%s", n, name)
		query = strings.ReplaceAll(query, "$"+name, "$"+renamed)
		ab.vars[renamed] = vars[name]
	}
	ab.statements = append(ab.statements, query)
	return ab
}

// Build returns the transaction text and merged variables
func (ab *AtomicBatch) Build() (string, map[string]interface{}) {
	if len(ab.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range ab.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")
	return sb.String(), ab.vars
}

// Execute runs all statements as a single transaction
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	query, vars := ab.Build()
	if query == "" {
		return nil
	}
	return db.Execute(ctx, query, vars)
}

// Len returns the number of statements in the batch
func (ab *AtomicBatch) Len() int {
	return len(ab.statements)
}
