// Package facts loads fact-set JSON files and imports them as domains.
package facts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/factdrill/factdrill/internal/domain"
	"github.com/factdrill/factdrill/internal/store"
)

// fileSchema validates the on-disk fact-set format before any loader
// checks run: structural errors get schema-level messages, semantic
// ones (unknown fields, duplicates) get loader messages.
const fileSchema = `{
	"type": "object",
	"required": ["domain_name", "fields", "facts"],
	"properties": {
		"domain_name": {"type": "string", "minLength": 1},
		"fields": {
			"type": "array",
			"minItems": 2,
			"items": {"type": "string", "minLength": 1}
		},
		"facts": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"additionalProperties": {"type": "string"}
			}
		}
	}
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var parsed any
		if err := json.Unmarshal([]byte(fileSchema), &parsed); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://factset.json", parsed); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("schema://factset.json")
	})
	return compiledSchema, compileErr
}

// File is one parsed fact-set definition.
type File struct {
	DomainName string              `json:"domain_name"`
	Fields     []string            `json:"fields"`
	Facts      []map[string]string `json:"facts"`
}

// Parse validates raw JSON against the fact-set schema and the loader's
// semantic rules, returning the parsed file.
func Parse(raw []byte) (*File, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", domain.ErrValidation, err)
	}
	s, err := schema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	seen := make(map[string]bool, len(f.Fields))
	for _, name := range f.Fields {
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate field %q", domain.ErrValidation, name)
		}
		seen[name] = true
	}
	for i, fact := range f.Facts {
		for k := range fact {
			if !seen[k] {
				return nil, fmt.Errorf("%w: fact %d has unknown field %q", domain.ErrValidation, i+1, k)
			}
		}
		for _, name := range f.Fields {
			if _, ok := fact[name]; !ok {
				return nil, fmt.Errorf("%w: fact %d missing field %q", domain.ErrValidation, i+1, name)
			}
		}
	}
	return &f, nil
}

// Load reads and parses a fact-set file from disk.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fact set: %w", err)
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// Import stores the fact set as a new domain with its facts. Domains
// are matched by name: an already-imported name is skipped, not
// re-imported, so directory scans stay idempotent.
func Import(ctx context.Context, repo store.DomainRepo, f *File, filename string) (*domain.Domain, bool, error) {
	existing, err := repo.GetDomainByName(ctx, f.DomainName)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup domain: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	d := &domain.Domain{
		Name:       f.DomainName,
		Filename:   filename,
		FieldNames: f.Fields,
	}
	if err := d.Validate(); err != nil {
		return nil, false, err
	}
	if err := repo.CreateDomain(ctx, d); err != nil {
		return nil, false, fmt.Errorf("create domain: %w", err)
	}
	for _, fields := range f.Facts {
		fact := &domain.Fact{DomainID: d.ID, Fields: fields}
		if err := fact.Validate(d); err != nil {
			return nil, false, err
		}
		if err := repo.CreateFact(ctx, fact); err != nil {
			return nil, false, fmt.Errorf("create fact: %w", err)
		}
	}
	return d, true, nil
}

// ImportDir imports every .json file in dir, in name order. Returns
// the domains touched and how many were newly created.
func ImportDir(ctx context.Context, repo store.DomainRepo, dir string) ([]domain.Domain, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("read dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var domains []domain.Domain
	created := 0
	for _, name := range names {
		f, err := Load(filepath.Join(dir, name))
		if err != nil {
			return domains, created, err
		}
		d, isNew, err := Import(ctx, repo, f, name)
		if err != nil {
			return domains, created, err
		}
		if isNew {
			created++
		}
		domains = append(domains, *d)
	}
	return domains, created, nil
}
