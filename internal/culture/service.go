package culture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
	"github.com/prayas-foundation/prayas-api/internal/school"
)

// Category groups programs on the public showcase.
type Category struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
}

// Program is a cultural event or initiative.
type Program struct {
	ID          int64      `json:"id"`
	CategoryID  int64      `json:"category_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	EventDate   *time.Time `json:"event_date,omitempty"`
	Venue       *string    `json:"venue,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
}

// CategoryInput is the admin create payload.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProgramInput is the admin create/update payload.
type ProgramInput struct {
	CategoryID  int64      `json:"category_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	EventDate   *time.Time `json:"event_date,omitempty"`
	Venue       string     `json:"venue,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
}

// Service manages the culture showcase.
type Service struct {
	Q db.Querier
}

// ListCategories returns all showcase categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.Q.ListCultureCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list culture categories: %w", err)
	}
	out := make([]Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertCategory(row))
	}
	return out, nil
}

// CreateCategory registers a new showcase category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Category{}, common.ValidationError("name is required", nil)
	}
	row, err := s.Q.CreateCultureCategory(ctx, db.CreateCultureCategoryParams{
		Name:        strings.TrimSpace(in.Name),
		Slug:        school.Slugify(in.Name),
		Description: optionalText(in.Description),
	})
	if err != nil {
		return Category{}, fmt.Errorf("create culture category: %w", err)
	}
	return convertCategory(row), nil
}

// ListPrograms returns programs, optionally filtered to one category.
// Category 0 means all.
func (s *Service) ListPrograms(ctx context.Context, categoryID int64, page, perPage int) ([]Program, error) {
	rows, err := s.Q.ListCulturePrograms(ctx, db.ListCultureProgramsParams{
		CategoryID: categoryID,
		Limit:      int32(perPage),
		Offset:     common.Offset(page, perPage),
	})
	if err != nil {
		return nil, fmt.Errorf("list culture programs: %w", err)
	}
	out := make([]Program, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertProgram(row))
	}
	return out, nil
}

// GetProgram returns one program.
func (s *Service) GetProgram(ctx context.Context, id int64) (Program, error) {
	row, err := s.Q.GetCultureProgramByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Program{}, common.NotFound("culture program")
		}
		return Program{}, fmt.Errorf("get culture program: %w", err)
	}
	return convertProgram(row), nil
}

// CreateProgram adds a program under an existing category.
func (s *Service) CreateProgram(ctx context.Context, in ProgramInput) (Program, error) {
	if err := validateProgram(in); err != nil {
		return Program{}, err
	}
	row, err := s.Q.CreateCultureProgram(ctx, db.CreateCultureProgramParams{
		CategoryID:  in.CategoryID,
		Title:       strings.TrimSpace(in.Title),
		Description: optionalText(in.Description),
		EventDate:   optionalTime(in.EventDate),
		Venue:       optionalText(in.Venue),
		ImageUrl:    optionalText(in.ImageURL),
	})
	if err != nil {
		return Program{}, fmt.Errorf("create culture program: %w", err)
	}
	return convertProgram(row), nil
}

// UpdateProgram replaces a program's fields. The category assignment is
// fixed at creation.
func (s *Service) UpdateProgram(ctx context.Context, id int64, in ProgramInput) (Program, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Program{}, common.ValidationError("title is required", nil)
	}
	if _, err := s.Q.GetCultureProgramByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Program{}, common.NotFound("culture program")
		}
		return Program{}, fmt.Errorf("get culture program: %w", err)
	}
	row, err := s.Q.UpdateCultureProgram(ctx, db.UpdateCultureProgramParams{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: optionalText(in.Description),
		EventDate:   optionalTime(in.EventDate),
		Venue:       optionalText(in.Venue),
		ImageUrl:    optionalText(in.ImageURL),
	})
	if err != nil {
		return Program{}, fmt.Errorf("update culture program: %w", err)
	}
	return convertProgram(row), nil
}

// DeleteProgram removes a program from the showcase.
func (s *Service) DeleteProgram(ctx context.Context, id int64) error {
	if _, err := s.Q.GetCultureProgramByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFound("culture program")
		}
		return fmt.Errorf("get culture program: %w", err)
	}
	if err := s.Q.DeleteCultureProgram(ctx, id); err != nil {
		return fmt.Errorf("delete culture program: %w", err)
	}
	return nil
}

func validateProgram(in ProgramInput) error {
	details := map[string]any{}
	if in.CategoryID <= 0 {
		details["category_id"] = "required"
	}
	if strings.TrimSpace(in.Title) == "" {
		details["title"] = "required"
	}
	if len(details) > 0 {
		return common.ValidationError("invalid program", details)
	}
	return nil
}

func convertCategory(row db.CultureCategory) Category {
	out := Category{ID: row.ID, Name: row.Name, Slug: row.Slug}
	if row.Description.Valid {
		out.Description = &row.Description.String
	}
	return out
}

func convertProgram(row db.CultureProgram) Program {
	out := Program{ID: row.ID, CategoryID: row.CategoryID, Title: row.Title}
	if row.Description.Valid {
		out.Description = &row.Description.String
	}
	if row.EventDate.Valid {
		out.EventDate = &row.EventDate.Time
	}
	if row.Venue.Valid {
		out.Venue = &row.Venue.String
	}
	if row.ImageUrl.Valid {
		out.ImageURL = &row.ImageUrl.String
	}
	return out
}

func optionalText(v string) pgtype.Text {
	v = strings.TrimSpace(v)
	return pgtype.Text{String: v, Valid: v != ""}
}

func optionalTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
