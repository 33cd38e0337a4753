package db

import (
	"context"
	"fmt"
	"strings"
)

// ListSections returns all sections ordered by display name.
func (p *Pool) ListSections(ctx context.Context) ([]Section, error) {
	const q = `
SELECT
	s.section_id,
	s.section_uuid::text,
	s.slug,
	s.name,
	s.created_at
FROM news.sections s
ORDER BY s.name
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	sections := make([]Section, 0, 8)
	for rows.Next() {
		var row Section
		if err := rows.Scan(&row.SectionID, &row.SectionUUID, &row.Slug, &row.Name, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan section row: %w", err)
		}
		sections = append(sections, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate section rows: %w", err)
	}
	return sections, nil
}

// UpsertSection creates a section if missing and refreshes its display name.
func (p *Pool) UpsertSection(ctx context.Context, slug, name string) error {
	trimmedSlug := strings.TrimSpace(strings.ToLower(slug))
	trimmedName := strings.TrimSpace(name)
	if trimmedSlug == "" {
		return fmt.Errorf("section slug is required")
	}
	if trimmedName == "" {
		return fmt.Errorf("section name is required")
	}

	const q = `
INSERT INTO news.sections (slug, name, created_at)
VALUES ($1, $2, now())
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name
`
	if _, err := p.Exec(ctx, q, trimmedSlug, trimmedName); err != nil {
		return fmt.Errorf("upsert section %s: %w", trimmedSlug, err)
	}
	return nil
}

// DefaultSections is the static section set created at setup.
var DefaultSections = []Section{
	{Slug: "ma", Name: "Mergers & Acquisitions"},
	{Slug: "lbo", Name: "Private Equity & LBO"},
	{Slug: "reg", Name: "Regulatory & Antitrust"},
	{Slug: "cap", Name: "Capital Markets"},
	{Slug: "rumor", Name: "Deal Rumors & Speculation"},
}

// SeedDefaultSections ensures the static section rows exist.
func (p *Pool) SeedDefaultSections(ctx context.Context) error {
	for _, section := range DefaultSections {
		if err := p.UpsertSection(ctx, section.Slug, section.Name); err != nil {
			return err
		}
	}
	return nil
}
