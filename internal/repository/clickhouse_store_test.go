package repository

import (
	"strings"
	"testing"
)

func TestSchemaStatementsQualifyDatabase(t *testing.T) {
	stmts := SchemaStatements("stockcast")
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3", len(stmts))
	}
	if !strings.HasPrefix(stmts[0], "CREATE DATABASE IF NOT EXISTS stockcast") {
		t.Errorf("first statement does not create the database: %s", stmts[0])
	}
	for _, want := range []string{"stockcast.training_runs", "stockcast.model_versions"} {
		found := false
		for _, s := range stmts {
			if strings.Contains(s, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("no statement mentions %s", want)
		}
	}
	for _, s := range stmts[1:] {
		if !strings.Contains(s, "IF NOT EXISTS") {
			t.Errorf("statement is not idempotent: %.60s", s)
		}
	}
}
