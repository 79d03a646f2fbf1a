package facts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/factdrill/factdrill/internal/domain"
	"github.com/factdrill/factdrill/internal/store"
)

const validSet = `{
	"domain_name": "Greek Muses",
	"fields": ["name", "domain", "symbol"],
	"facts": [
		{"name": "Clio", "domain": "History", "symbol": "Scroll"},
		{"name": "Erato", "domain": "Love Poetry", "symbol": "Lyre"}
	]
}`

func TestParseValid(t *testing.T) {
	f, err := Parse([]byte(validSet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.DomainName != "Greek Muses" {
		t.Errorf("DomainName = %q", f.DomainName)
	}
	if len(f.Fields) != 3 || len(f.Facts) != 2 {
		t.Errorf("parsed %d fields, %d facts", len(f.Fields), len(f.Facts))
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"missing domain name", `{"fields": ["a", "b"], "facts": [{"a": "1", "b": "2"}]}`},
		{"single field", `{"domain_name": "X", "fields": ["a"], "facts": [{"a": "1"}]}`},
		{"no facts", `{"domain_name": "X", "fields": ["a", "b"], "facts": []}`},
		{"non-string value", `{"domain_name": "X", "fields": ["a", "b"], "facts": [{"a": "1", "b": 2}]}`},
		{"duplicate field", `{"domain_name": "X", "fields": ["a", "a"], "facts": [{"a": "1"}]}`},
		{"unknown fact field", `{"domain_name": "X", "fields": ["a", "b"], "facts": [{"a": "1", "b": "2", "c": "3"}]}`},
		{"missing fact field", `{"domain_name": "X", "fields": ["a", "b"], "facts": [{"a": "1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.raw)); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Parse = %v, want ErrValidation", err)
			}
		})
	}
}

func TestImportIdempotent(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	f, err := Parse([]byte(validSet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	d, created, err := Import(ctx, st.Domains(), f, "muses.json")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !created {
		t.Fatal("first import reported not created")
	}

	facts, err := st.Domains().ListFacts(ctx, d.ID)
	if err != nil {
		t.Fatalf("ListFacts: %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("imported %d facts, want 2", len(facts))
	}

	// Same name again: skipped, nothing duplicated.
	again, created, err := Import(ctx, st.Domains(), f, "muses.json")
	if err != nil {
		t.Fatalf("re-Import: %v", err)
	}
	if created {
		t.Error("re-import reported created")
	}
	if again.ID != d.ID {
		t.Errorf("re-import returned domain %d, want %d", again.ID, d.ID)
	}
	facts, _ = st.Domains().ListFacts(ctx, d.ID)
	if len(facts) != 2 {
		t.Errorf("fact count after re-import = %d, want 2", len(facts))
	}
}

func TestImportDir(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	dir := t.TempDir()
	second := `{
		"domain_name": "Capitals",
		"fields": ["country", "capital"],
		"facts": [{"country": "France", "capital": "Paris"}]
	}`
	if err := os.WriteFile(filepath.Join(dir, "muses.json"), []byte(validSet), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "capitals.json"), []byte(second), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	domains, created, err := ImportDir(context.Background(), st.Domains(), dir)
	if err != nil {
		t.Fatalf("ImportDir: %v", err)
	}
	if len(domains) != 2 || created != 2 {
		t.Errorf("ImportDir = %d domains, %d created, want 2/2", len(domains), created)
	}
}
