package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/factdrill/factdrill/internal/domain"
)

type domainRepo struct {
	db *sqlx.DB
}

type domainRow struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	Filename   string `db:"filename"`
	FieldNames string `db:"field_names"`
}

func (r domainRow) toDomain() (*domain.Domain, error) {
	var fields []string
	if err := json.Unmarshal([]byte(r.FieldNames), &fields); err != nil {
		return nil, fmt.Errorf("decode field names for domain %d: %w", r.ID, err)
	}
	return &domain.Domain{
		ID:         r.ID,
		Name:       r.Name,
		Filename:   r.Filename,
		FieldNames: fields,
	}, nil
}

type factRow struct {
	ID       int64  `db:"id"`
	DomainID int64  `db:"domain_id"`
	FactData string `db:"fact_data"`
}

func (r factRow) toFact() (*domain.Fact, error) {
	var fields map[string]string
	if err := json.Unmarshal([]byte(r.FactData), &fields); err != nil {
		return nil, fmt.Errorf("decode fact data for fact %d: %w", r.ID, err)
	}
	return &domain.Fact{ID: r.ID, DomainID: r.DomainID, Fields: fields}, nil
}

func (r *domainRepo) CreateDomain(ctx context.Context, d *domain.Domain) error {
	fields, err := json.Marshal(d.FieldNames)
	if err != nil {
		return fmt.Errorf("encode field names: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO domains (name, filename, field_names) VALUES (?, ?, ?)`,
		d.Name, d.Filename, string(fields))
	if err != nil {
		return fmt.Errorf("insert domain: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert domain id: %w", err)
	}
	d.ID = id
	return nil
}

func (r *domainRepo) GetDomain(ctx context.Context, id int64) (*domain.Domain, error) {
	var row domainRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, name, filename, field_names FROM domains WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query domain: %w", err)
	}
	return row.toDomain()
}

func (r *domainRepo) GetDomainByName(ctx context.Context, name string) (*domain.Domain, error) {
	var row domainRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, name, filename, field_names FROM domains WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query domain by name: %w", err)
	}
	return row.toDomain()
}

func (r *domainRepo) ListDomains(ctx context.Context) ([]domain.Domain, error) {
	var rows []domainRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, name, filename, field_names FROM domains ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	domains := make([]domain.Domain, 0, len(rows))
	for _, row := range rows {
		d, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		domains = append(domains, *d)
	}
	return domains, nil
}

func (r *domainRepo) CreateFact(ctx context.Context, f *domain.Fact) error {
	data, err := json.Marshal(f.Fields)
	if err != nil {
		return fmt.Errorf("encode fact data: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO facts (domain_id, fact_data) VALUES (?, ?)`,
		f.DomainID, string(data))
	if err != nil {
		return fmt.Errorf("insert fact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert fact id: %w", err)
	}
	f.ID = id
	return nil
}

func (r *domainRepo) GetFact(ctx context.Context, id int64) (*domain.Fact, error) {
	var row factRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, domain_id, fact_data FROM facts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query fact: %w", err)
	}
	return row.toFact()
}

func (r *domainRepo) ListFacts(ctx context.Context, domainID int64) ([]domain.Fact, error) {
	var rows []factRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, domain_id, fact_data FROM facts WHERE domain_id = ? ORDER BY id`,
		domainID)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	facts := make([]domain.Fact, 0, len(rows))
	for _, row := range rows {
		f, err := row.toFact()
		if err != nil {
			return nil, err
		}
		facts = append(facts, *f)
	}
	return facts, nil
}
