package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

func (q *Queries) ListCultureCategories(ctx context.Context) ([]CultureCategory, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, slug, description, created_at
		FROM culture_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []CultureCategory
	for rows.Next() {
		var c CultureCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

type CreateCultureCategoryParams struct {
	Name        string
	Slug        string
	Description pgtype.Text
}

func (q *Queries) CreateCultureCategory(ctx context.Context, arg CreateCultureCategoryParams) (CultureCategory, error) {
	var c CultureCategory
	err := q.db.QueryRow(ctx, `
		INSERT INTO culture_categories (name, slug, description)
		VALUES ($1, $2, $3)
		RETURNING id, name, slug, description, created_at`,
		arg.Name, arg.Slug, arg.Description).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
	return c, err
}

const cultureProgramColumns = `id, category_id, title, description, event_date, venue,
	image_url, created_at, updated_at`

type ListCultureProgramsParams struct {
	CategoryID int64
	Limit      int32
	Offset     int32
}

func (q *Queries) ListCulturePrograms(ctx context.Context, arg ListCultureProgramsParams) ([]CultureProgram, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+cultureProgramColumns+` FROM culture_programs
		WHERE ($1 = 0 OR category_id = $1)
		ORDER BY event_date DESC NULLS LAST
		LIMIT $2 OFFSET $3`, arg.CategoryID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var programs []CultureProgram
	for rows.Next() {
		p, err := scanCultureProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

func (q *Queries) GetCultureProgramByID(ctx context.Context, id int64) (CultureProgram, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cultureProgramColumns+` FROM culture_programs WHERE id = $1`, id)
	return scanCultureProgram(row)
}

type CreateCultureProgramParams struct {
	CategoryID  int64
	Title       string
	Description pgtype.Text
	EventDate   pgtype.Timestamptz
	Venue       pgtype.Text
	ImageUrl    pgtype.Text
}

func (q *Queries) CreateCultureProgram(ctx context.Context, arg CreateCultureProgramParams) (CultureProgram, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO culture_programs (category_id, title, description, event_date, venue, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+cultureProgramColumns,
		arg.CategoryID, arg.Title, arg.Description, arg.EventDate, arg.Venue, arg.ImageUrl)
	return scanCultureProgram(row)
}

type UpdateCultureProgramParams struct {
	ID          int64
	Title       string
	Description pgtype.Text
	EventDate   pgtype.Timestamptz
	Venue       pgtype.Text
	ImageUrl    pgtype.Text
}

func (q *Queries) UpdateCultureProgram(ctx context.Context, arg UpdateCultureProgramParams) (CultureProgram, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE culture_programs
		SET title = $2, description = $3, event_date = $4, venue = $5, image_url = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+cultureProgramColumns,
		arg.ID, arg.Title, arg.Description, arg.EventDate, arg.Venue, arg.ImageUrl)
	return scanCultureProgram(row)
}

func (q *Queries) DeleteCultureProgram(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM culture_programs WHERE id = $1`, id)
	return err
}

func scanCultureProgram(row rowScanner) (CultureProgram, error) {
	var p CultureProgram
	err := row.Scan(&p.ID, &p.CategoryID, &p.Title, &p.Description, &p.EventDate,
		&p.Venue, &p.ImageUrl, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
