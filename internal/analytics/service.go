package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/prayas-foundation/prayas-api/internal/db"
)

// Overview is the admin dashboard summary.
type Overview struct {
	TotalUsers          int64 `json:"total_users"`
	TotalOrders         int64 `json:"total_orders"`
	PaidOrders          int64 `json:"paid_orders"`
	BookRevenue         int64 `json:"book_revenue"`
	FeeRevenue          int64 `json:"fee_revenue"`
	PendingPosts        int64 `json:"pending_posts"`
	LowStockBooks       int64 `json:"low_stock_books"`
	UnreadNotifications int64 `json:"unread_notifications"`
}

// TopBook is one row of the best-sellers report.
type TopBook struct {
	BookID  string `json:"book_id"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	QtySold int64  `json:"qty_sold"`
	Revenue int64  `json:"revenue"`
}

// FeeCollection summarises fee intake per school.
type FeeCollection struct {
	SchoolID   int64  `json:"school_id"`
	SchoolName string `json:"school_name"`
	Collected  int64  `json:"collected"`
	Attempts   int64  `json:"attempts"`
}

// Service serves redis-cached dashboard aggregates. Dashboards tolerate
// slightly stale numbers, so every read goes through the cache.
type Service struct {
	Q   db.Querier
	R   *redis.Client
	TTL time.Duration
}

const (
	overviewKey      = "analytics:overview"
	topBooksKey      = "analytics:top-books"
	feeCollectionKey = "analytics:fee-collection"
)

// Overview returns the dashboard counters.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var cached Overview
	if s.readCache(ctx, overviewKey, &cached) {
		return cached, nil
	}
	row, err := s.Q.GetOverview(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("get overview: %w", err)
	}
	out := Overview{
		TotalUsers:          row.TotalUsers,
		TotalOrders:         row.TotalOrders,
		PaidOrders:          row.PaidOrders,
		BookRevenue:         row.BookRevenue,
		FeeRevenue:          row.FeeRevenue,
		PendingPosts:        row.PendingPosts,
		LowStockBooks:       row.LowStockBooks,
		UnreadNotifications: row.UnreadNotifications,
	}
	s.writeCache(ctx, overviewKey, out)
	return out, nil
}

// TopBooks returns the best sellers by paid quantity.
func (s *Service) TopBooks(ctx context.Context, limit int32) ([]TopBook, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	key := fmt.Sprintf("%s:%d", topBooksKey, limit)
	var cached []TopBook
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.ListTopBooks(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list top books: %w", err)
	}
	out := make([]TopBook, 0, len(rows))
	for _, row := range rows {
		out = append(out, TopBook{
			BookID:  row.BookID,
			Title:   row.Title,
			Author:  row.Author,
			QtySold: row.QtySold,
			Revenue: row.Revenue,
		})
	}
	s.writeCache(ctx, key, out)
	return out, nil
}

// FeeCollectionBySchool returns per-school fee intake.
func (s *Service) FeeCollectionBySchool(ctx context.Context) ([]FeeCollection, error) {
	var cached []FeeCollection
	if s.readCache(ctx, feeCollectionKey, &cached) {
		return cached, nil
	}
	rows, err := s.Q.ListFeeCollectionBySchool(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fee collection: %w", err)
	}
	out := make([]FeeCollection, 0, len(rows))
	for _, row := range rows {
		out = append(out, FeeCollection{
			SchoolID:   row.SchoolID,
			SchoolName: row.SchoolName,
			Collected:  row.Collected,
			Attempts:   row.Attempts,
		})
	}
	s.writeCache(ctx, feeCollectionKey, out)
	return out, nil
}

func (s *Service) readCache(ctx context.Context, key string, dest any) bool {
	if s.R == nil {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (s *Service) writeCache(ctx context.Context, key string, value any) {
	if s.R == nil {
		return
	}
	if data, err := json.Marshal(value); err == nil {
		_ = s.R.Set(ctx, key, data, s.TTL).Err()
	}
}
