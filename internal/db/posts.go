package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const postColumns = `id, user_id, title, body, category, status, moderator_note,
	created_at, updated_at`

type CreatePostParams struct {
	UserID   pgtype.UUID
	Title    string
	Body     string
	Category pgtype.Text
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO posts (user_id, title, body, category)
		VALUES ($1, $2, $3, $4)
		RETURNING `+postColumns,
		arg.UserID, arg.Title, arg.Body, arg.Category)
	return scanPost(row)
}

func (q *Queries) GetPostByID(ctx context.Context, id pgtype.UUID) (Post, error) {
	row := q.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	return scanPost(row)
}

type ListApprovedPostsParams struct {
	Category pgtype.Text
	Limit    int32
	Offset   int32
}

func (q *Queries) ListApprovedPosts(ctx context.Context, arg ListApprovedPostsParams) ([]Post, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE status = 'approved' AND ($1::text IS NULL OR category = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

type ListPostsByStatusParams struct {
	Status PostStatus
	Limit  int32
	Offset int32
}

func (q *Queries) ListPostsByStatus(ctx context.Context, arg ListPostsByStatusParams) ([]Post, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`,
		arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

type ListPostsForUserParams struct {
	UserID pgtype.UUID
	Limit  int32
	Offset int32
}

func (q *Queries) ListPostsForUser(ctx context.Context, arg ListPostsForUserParams) ([]Post, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

type ModeratePostParams struct {
	ID            pgtype.UUID
	Status        PostStatus
	ModeratorNote pgtype.Text
}

func (q *Queries) ModeratePost(ctx context.Context, arg ModeratePostParams) (Post, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE posts SET status = $2, moderator_note = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+postColumns,
		arg.ID, arg.Status, arg.ModeratorNote)
	return scanPost(row)
}

type DeletePostParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

func (q *Queries) DeletePost(ctx context.Context, arg DeletePostParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`,
		arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectPosts(rows pgx.Rows) ([]Post, error) {
	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Body, &p.Category, &p.Status,
		&p.ModeratorNote, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
