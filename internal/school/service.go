package school

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

// School is the public directory representation. Payment settings are only
// included on admin reads.
type School struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  *string `json:"description,omitempty"`
	Address      *string `json:"address,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`

	SurchargeBps  *int32  `json:"surcharge_bps,omitempty"`
	SurchargeFlat *int64  `json:"surcharge_flat,omitempty"`
	GatewayRef    *string `json:"gateway_ref,omitempty"`
}

// Input is the admin create/update payload.
type Input struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Address      string `json:"address,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

// PaymentSettingsInput updates the surcharge passed on to students and the
// school's gateway account reference.
type PaymentSettingsInput struct {
	SurchargeBps  int32  `json:"surcharge_bps"`
	SurchargeFlat int64  `json:"surcharge_flat"`
	GatewayRef    string `json:"gateway_ref,omitempty"`
}

// Service manages the schools directory.
type Service struct {
	Q db.Querier
}

// List returns all schools ordered by name.
func (s *Service) List(ctx context.Context) ([]School, error) {
	rows, err := s.Q.ListSchools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	out := make([]School, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertSchool(row, false))
	}
	return out, nil
}

// Get returns one school. withSettings exposes payment settings to admins.
func (s *Service) Get(ctx context.Context, id int64, withSettings bool) (School, error) {
	row, err := s.Q.GetSchoolByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return School{}, common.NotFound("school")
		}
		return School{}, fmt.Errorf("get school: %w", err)
	}
	return convertSchool(row, withSettings), nil
}

// Create registers a new school.
func (s *Service) Create(ctx context.Context, in Input) (School, error) {
	if strings.TrimSpace(in.Name) == "" {
		return School{}, common.ValidationError("name is required", nil)
	}
	row, err := s.Q.CreateSchool(ctx, db.CreateSchoolParams{
		Name:         strings.TrimSpace(in.Name),
		Slug:         Slugify(in.Name),
		Description:  optionalText(in.Description),
		Address:      optionalText(in.Address),
		ContactEmail: optionalText(in.ContactEmail),
		ContactPhone: optionalText(in.ContactPhone),
	})
	if err != nil {
		return School{}, fmt.Errorf("create school: %w", err)
	}
	return convertSchool(row, true), nil
}

// Update replaces the school's directory fields. The slug never changes
// after creation so published links stay stable.
func (s *Service) Update(ctx context.Context, id int64, in Input) (School, error) {
	if strings.TrimSpace(in.Name) == "" {
		return School{}, common.ValidationError("name is required", nil)
	}
	if _, err := s.Q.GetSchoolByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return School{}, common.NotFound("school")
		}
		return School{}, fmt.Errorf("get school: %w", err)
	}
	row, err := s.Q.UpdateSchool(ctx, db.UpdateSchoolParams{
		ID:           id,
		Name:         strings.TrimSpace(in.Name),
		Description:  optionalText(in.Description),
		Address:      optionalText(in.Address),
		ContactEmail: optionalText(in.ContactEmail),
		ContactPhone: optionalText(in.ContactPhone),
	})
	if err != nil {
		return School{}, fmt.Errorf("update school: %w", err)
	}
	return convertSchool(row, true), nil
}

// UpdatePaymentSettings sets the surcharge passed on to fee payers. New fee
// structures pick up the new rates; existing structures keep their snapshot.
func (s *Service) UpdatePaymentSettings(ctx context.Context, id int64, in PaymentSettingsInput) (School, error) {
	if in.SurchargeBps < 0 || in.SurchargeFlat < 0 {
		return School{}, common.ValidationError("surcharge values must not be negative", nil)
	}
	if _, err := s.Q.GetSchoolByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return School{}, common.NotFound("school")
		}
		return School{}, fmt.Errorf("get school: %w", err)
	}
	row, err := s.Q.UpdateSchoolPaymentSettings(ctx, db.UpdateSchoolPaymentSettingsParams{
		ID:            id,
		SurchargeBps:  in.SurchargeBps,
		SurchargeFlat: in.SurchargeFlat,
		GatewayRef:    optionalText(in.GatewayRef),
	})
	if err != nil {
		return School{}, fmt.Errorf("update payment settings: %w", err)
	}
	return convertSchool(row, true), nil
}

// Slugify lowercases the name and collapses runs of non-alphanumerics into
// single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func convertSchool(row db.School, withSettings bool) School {
	out := School{
		ID:   row.ID,
		Name: row.Name,
		Slug: row.Slug,
	}
	if row.Description.Valid {
		out.Description = &row.Description.String
	}
	if row.Address.Valid {
		out.Address = &row.Address.String
	}
	if row.ContactEmail.Valid {
		out.ContactEmail = &row.ContactEmail.String
	}
	if row.ContactPhone.Valid {
		out.ContactPhone = &row.ContactPhone.String
	}
	if withSettings {
		out.SurchargeBps = &row.SurchargeBps
		out.SurchargeFlat = &row.SurchargeFlat
		if row.GatewayRef.Valid {
			out.GatewayRef = &row.GatewayRef.String
		}
	}
	return out
}

func optionalText(v string) pgtype.Text {
	v = strings.TrimSpace(v)
	return pgtype.Text{String: v, Valid: v != ""}
}
