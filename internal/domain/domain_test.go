package domain

import (
	"errors"
	"testing"
)

func TestDomainValidate(t *testing.T) {
	tests := []struct {
		name    string
		d       Domain
		wantErr bool
	}{
		{"valid", Domain{Name: "Muses", FieldNames: []string{"name", "symbol"}}, false},
		{"empty name", Domain{FieldNames: []string{"name", "symbol"}}, true},
		{"single field", Domain{Name: "Mottos", FieldNames: []string{"text"}}, true},
		{"duplicate field", Domain{Name: "Muses", FieldNames: []string{"name", "name"}}, true},
		{"empty field name", Domain{Name: "Muses", FieldNames: []string{"name", ""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() = %v, want ErrValidation", err)
			}
		})
	}
}

func TestIdentifyingField(t *testing.T) {
	d := Domain{Name: "Muses", FieldNames: []string{"name", "domain", "symbol"}}
	if got := d.IdentifyingField(); got != "name" {
		t.Errorf("IdentifyingField() = %q, want %q", got, "name")
	}
}

func TestFactValidate(t *testing.T) {
	d := &Domain{Name: "Muses", FieldNames: []string{"name", "symbol"}}

	ok := Fact{Fields: map[string]string{"name": "Clio", "symbol": "Scroll"}}
	if err := ok.Validate(d); err != nil {
		t.Errorf("Validate(complete fact) = %v", err)
	}

	missing := Fact{Fields: map[string]string{"name": "Clio"}}
	if err := missing.Validate(d); !errors.Is(err, ErrValidation) {
		t.Errorf("Validate(missing field) = %v, want ErrValidation", err)
	}
}
