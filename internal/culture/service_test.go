package culture

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

type stubStore struct {
	db.Querier

	categories map[int64]db.CultureCategory
	programs   map[int64]db.CultureProgram
	nextID     int64
}

func newStubStore() *stubStore {
	return &stubStore{
		categories: map[int64]db.CultureCategory{},
		programs:   map[int64]db.CultureProgram{},
		nextID:     1,
	}
}

func (s *stubStore) ListCultureCategories(_ context.Context) ([]db.CultureCategory, error) {
	out := make([]db.CultureCategory, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubStore) CreateCultureCategory(_ context.Context, arg db.CreateCultureCategoryParams) (db.CultureCategory, error) {
	c := db.CultureCategory{ID: s.nextID, Name: arg.Name, Slug: arg.Slug, Description: arg.Description}
	s.categories[s.nextID] = c
	s.nextID++
	return c, nil
}

func (s *stubStore) ListCulturePrograms(_ context.Context, arg db.ListCultureProgramsParams) ([]db.CultureProgram, error) {
	var out []db.CultureProgram
	for _, p := range s.programs {
		if arg.CategoryID == 0 || p.CategoryID == arg.CategoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) GetCultureProgramByID(_ context.Context, id int64) (db.CultureProgram, error) {
	p, ok := s.programs[id]
	if !ok {
		return db.CultureProgram{}, pgx.ErrNoRows
	}
	return p, nil
}

func (s *stubStore) CreateCultureProgram(_ context.Context, arg db.CreateCultureProgramParams) (db.CultureProgram, error) {
	p := db.CultureProgram{
		ID: s.nextID, CategoryID: arg.CategoryID, Title: arg.Title,
		Description: arg.Description, EventDate: arg.EventDate,
		Venue: arg.Venue, ImageUrl: arg.ImageUrl,
	}
	s.programs[s.nextID] = p
	s.nextID++
	return p, nil
}

func (s *stubStore) UpdateCultureProgram(_ context.Context, arg db.UpdateCultureProgramParams) (db.CultureProgram, error) {
	p := s.programs[arg.ID]
	p.Title = arg.Title
	p.Description = arg.Description
	p.EventDate = arg.EventDate
	p.Venue = arg.Venue
	p.ImageUrl = arg.ImageUrl
	s.programs[arg.ID] = p
	return p, nil
}

func (s *stubStore) DeleteCultureProgram(_ context.Context, id int64) error {
	delete(s.programs, id)
	return nil
}

func TestCreateCategorySlugifies(t *testing.T) {
	svc := &Service{Q: newStubStore()}

	category, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Lok Sangeet & Natya"})
	require.NoError(t, err)
	require.Equal(t, "lok-sangeet-natya", category.Slug)
}

func TestProgramLifecycle(t *testing.T) {
	store := newStubStore()
	svc := &Service{Q: store}

	category, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Theatre"})
	require.NoError(t, err)

	eventDate := time.Date(2026, 10, 2, 18, 0, 0, 0, time.UTC)
	program, err := svc.CreateProgram(context.Background(), ProgramInput{
		CategoryID: category.ID,
		Title:      "Andha Yug",
		Venue:      "Town Hall",
		EventDate:  &eventDate,
	})
	require.NoError(t, err)
	require.NotNil(t, program.EventDate)

	updated, err := svc.UpdateProgram(context.Background(), program.ID, ProgramInput{
		CategoryID: category.ID,
		Title:      "Andha Yug (rescheduled)",
	})
	require.NoError(t, err)
	require.Equal(t, "Andha Yug (rescheduled)", updated.Title)
	require.Nil(t, updated.EventDate, "update replaces all optional fields")

	require.NoError(t, svc.DeleteProgram(context.Background(), program.ID))
	err = svc.DeleteProgram(context.Background(), program.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeNotFound, appErr.Code)
}

func TestCreateProgramValidates(t *testing.T) {
	svc := &Service{Q: newStubStore()}

	_, err := svc.CreateProgram(context.Background(), ProgramInput{Title: " "})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
	require.Contains(t, appErr.Details, "category_id")
	require.Contains(t, appErr.Details, "title")
}

func TestListProgramsFiltersByCategory(t *testing.T) {
	store := newStubStore()
	svc := &Service{Q: store}

	music, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Music"})
	require.NoError(t, err)
	theatre, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Theatre"})
	require.NoError(t, err)

	_, err = svc.CreateProgram(context.Background(), ProgramInput{CategoryID: music.ID, Title: "Thumri Evening"})
	require.NoError(t, err)
	_, err = svc.CreateProgram(context.Background(), ProgramInput{CategoryID: theatre.ID, Title: "Nukkad Natak"})
	require.NoError(t, err)

	all, err := svc.ListPrograms(context.Background(), 0, 1, 20)
	require.NoError(t, err)
	require.Len(t, all, 2)

	onlyMusic, err := svc.ListPrograms(context.Background(), music.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, onlyMusic, 1)
	require.Equal(t, "Thumri Evening", onlyMusic[0].Title)
}
