package posts

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
	"github.com/prayas-foundation/prayas-api/internal/events"
	"github.com/prayas-foundation/prayas-api/internal/obs"
)

// Post is the API representation of a community post.
type Post struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Category      *string   `json:"category,omitempty"`
	Status        string    `json:"status"`
	ModeratorNote *string   `json:"moderator_note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmitInput is the reader-facing submission payload.
type SubmitInput struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category,omitempty"`
}

// ModerateInput is the admin decision payload.
type ModerateInput struct {
	Decision      string `json:"decision"`
	ModeratorNote string `json:"moderator_note,omitempty"`
}

// Service manages community post submission and moderation.
type Service struct {
	Q      db.Querier
	Events *events.Bus
}

// Submit creates a pending post awaiting moderation.
func (s *Service) Submit(ctx context.Context, userID pgtype.UUID, in SubmitInput) (Post, error) {
	details := map[string]any{}
	if strings.TrimSpace(in.Title) == "" {
		details["title"] = "required"
	}
	if strings.TrimSpace(in.Body) == "" {
		details["body"] = "required"
	}
	if len(details) > 0 {
		return Post{}, common.ValidationError("invalid post", details)
	}
	row, err := s.Q.CreatePost(ctx, db.CreatePostParams{
		UserID:   userID,
		Title:    strings.TrimSpace(in.Title),
		Body:     in.Body,
		Category: optionalText(in.Category),
	})
	if err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	if s.Events != nil {
		_ = s.Events.Emit(ctx, events.TopicPostSubmitted, common.UUIDString(row.ID), map[string]any{
			"post_id": common.UUIDString(row.ID),
			"user_id": common.UUIDString(userID),
			"title":   row.Title,
		})
	}
	return convertPost(row), nil
}

// ListApproved serves the public feed. Empty category means all.
func (s *Service) ListApproved(ctx context.Context, category string, page, perPage int) ([]Post, error) {
	rows, err := s.Q.ListApprovedPosts(ctx, db.ListApprovedPostsParams{
		Category: optionalText(category),
		Limit:    int32(perPage),
		Offset:   common.Offset(page, perPage),
	})
	if err != nil {
		return nil, fmt.Errorf("list approved posts: %w", err)
	}
	return convertPosts(rows), nil
}

// ListMine returns the caller's posts in every status.
func (s *Service) ListMine(ctx context.Context, userID pgtype.UUID, page, perPage int) ([]Post, error) {
	rows, err := s.Q.ListPostsForUser(ctx, db.ListPostsForUserParams{
		UserID: userID,
		Limit:  int32(perPage),
		Offset: common.Offset(page, perPage),
	})
	if err != nil {
		return nil, fmt.Errorf("list posts for user: %w", err)
	}
	return convertPosts(rows), nil
}

// ListQueue returns the moderation queue for one status, pending by default.
func (s *Service) ListQueue(ctx context.Context, status string, page, perPage int) ([]Post, error) {
	target := db.PostStatusPending
	switch status {
	case "", string(db.PostStatusPending):
	case string(db.PostStatusApproved):
		target = db.PostStatusApproved
	case string(db.PostStatusRejected):
		target = db.PostStatusRejected
	default:
		return nil, common.ValidationError("unknown post status", map[string]any{"status": status})
	}
	rows, err := s.Q.ListPostsByStatus(ctx, db.ListPostsByStatusParams{
		Status: target,
		Limit:  int32(perPage),
		Offset: common.Offset(page, perPage),
	})
	if err != nil {
		return nil, fmt.Errorf("list posts by status: %w", err)
	}
	return convertPosts(rows), nil
}

// Moderate approves or rejects a pending post. Rejections require a note so
// the author learns why.
func (s *Service) Moderate(ctx context.Context, postID pgtype.UUID, in ModerateInput) (Post, error) {
	var status db.PostStatus
	switch in.Decision {
	case "approve":
		status = db.PostStatusApproved
	case "reject":
		status = db.PostStatusRejected
		if strings.TrimSpace(in.ModeratorNote) == "" {
			return Post{}, common.ValidationError("moderator_note is required when rejecting", nil)
		}
	default:
		return Post{}, common.ValidationError("decision must be approve or reject", nil)
	}

	existing, err := s.Q.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, common.NotFound("post")
		}
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	if existing.Status != db.PostStatusPending {
		return Post{}, common.Conflict("post has already been moderated")
	}

	row, err := s.Q.ModeratePost(ctx, db.ModeratePostParams{
		ID:            postID,
		Status:        status,
		ModeratorNote: optionalText(in.ModeratorNote),
	})
	if err != nil {
		return Post{}, fmt.Errorf("moderate post: %w", err)
	}
	if obs.PostModerationTotal != nil {
		obs.PostModerationTotal.WithLabelValues(in.Decision).Inc()
	}
	if s.Events != nil && status == db.PostStatusApproved {
		_ = s.Events.Emit(ctx, events.TopicPostApproved, common.UUIDString(row.ID), map[string]any{
			"post_id":  common.UUIDString(row.ID),
			"user_id":  common.UUIDString(row.UserID),
			"decision": in.Decision,
		})
	}
	return convertPost(row), nil
}

// Delete removes one of the caller's own posts.
func (s *Service) Delete(ctx context.Context, userID, postID pgtype.UUID) error {
	affected, err := s.Q.DeletePost(ctx, db.DeletePostParams{ID: postID, UserID: userID})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if affected == 0 {
		return common.NotFound("post")
	}
	return nil
}

func convertPosts(rows []db.Post) []Post {
	out := make([]Post, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertPost(row))
	}
	return out
}

func convertPost(row db.Post) Post {
	out := Post{
		ID:     common.UUIDString(row.ID),
		UserID: common.UUIDString(row.UserID),
		Title:  row.Title,
		Body:   row.Body,
		Status: string(row.Status),
	}
	if row.Category.Valid {
		out.Category = &row.Category.String
	}
	if row.ModeratorNote.Valid {
		out.ModeratorNote = &row.ModeratorNote.String
	}
	if row.CreatedAt.Valid {
		out.CreatedAt = row.CreatedAt.Time
	}
	return out
}

func optionalText(v string) pgtype.Text {
	v = strings.TrimSpace(v)
	return pgtype.Text{String: v, Valid: v != ""}
}
