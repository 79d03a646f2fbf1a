package domain

import (
	"errors"
	"fmt"
)

// ErrValidation indicates a domain or fact failed schema validation.
var ErrValidation = errors.New("validation failed")

// Domain is a named collection of facts sharing one field schema.
// FieldNames is ordered; the first entry is the identifying field used
// to phrase questions naturally ("What is the symbol of Erato?").
type Domain struct {
	ID         int64
	Name       string
	Filename   string
	FieldNames []string
}

// IdentifyingField returns the first field name of the domain's schema.
func (d *Domain) IdentifyingField() string {
	return d.FieldNames[0]
}

// Validate checks the domain's schema invariants.
func (d *Domain) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: domain name is empty", ErrValidation)
	}
	if len(d.FieldNames) < 2 {
		return fmt.Errorf("%w: domain %q needs at least 2 fields, has %d", ErrValidation, d.Name, len(d.FieldNames))
	}
	seen := make(map[string]bool, len(d.FieldNames))
	for _, name := range d.FieldNames {
		if name == "" {
			return fmt.Errorf("%w: domain %q has an empty field name", ErrValidation, d.Name)
		}
		if seen[name] {
			return fmt.Errorf("%w: domain %q has duplicate field %q", ErrValidation, d.Name, name)
		}
		seen[name] = true
	}
	return nil
}

// Fact is one structured record within a domain. Fields maps every one
// of the domain's field names to a value. Facts are immutable once
// created; edits happen by reloading the domain.
type Fact struct {
	ID       int64
	DomainID int64
	Fields   map[string]string
}

// Validate checks that the fact carries a value for every field of its domain.
func (f *Fact) Validate(d *Domain) error {
	if f.DomainID != d.ID {
		return fmt.Errorf("%w: fact %d belongs to domain %d, not %d", ErrValidation, f.ID, f.DomainID, d.ID)
	}
	if len(f.Fields) < 2 {
		return fmt.Errorf("%w: fact %d needs at least 2 fields for quizzing", ErrValidation, f.ID)
	}
	for _, name := range d.FieldNames {
		if _, ok := f.Fields[name]; !ok {
			return fmt.Errorf("%w: fact %d is missing field %q", ErrValidation, f.ID, name)
		}
	}
	return nil
}
