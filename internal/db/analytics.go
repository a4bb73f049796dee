package db

import (
	"context"
)

type OverviewRow struct {
	TotalUsers          int64
	TotalOrders         int64
	PaidOrders          int64
	BookRevenue         int64
	FeeRevenue          int64
	PendingPosts        int64
	LowStockBooks       int64
	UnreadNotifications int64
}

// GetOverview aggregates the admin dashboard counters in a single round trip.
func (q *Queries) GetOverview(ctx context.Context) (OverviewRow, error) {
	var o OverviewRow
	err := q.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM orders),
			(SELECT count(*) FROM orders WHERE payment_status = 'completed'),
			(SELECT coalesce(sum(total_amount), 0) FROM orders WHERE payment_status = 'completed'),
			(SELECT coalesce(sum(amount), 0) FROM fee_payments WHERE status = 'completed'),
			(SELECT count(*) FROM posts WHERE status = 'pending'),
			(SELECT count(*) FROM books WHERE stock <= stock_threshold),
			(SELECT count(*) FROM notifications WHERE NOT is_read)`).
		Scan(&o.TotalUsers, &o.TotalOrders, &o.PaidOrders, &o.BookRevenue,
			&o.FeeRevenue, &o.PendingPosts, &o.LowStockBooks, &o.UnreadNotifications)
	return o, err
}

type TopBookRow struct {
	BookID  string
	Title   string
	Author  string
	QtySold int64
	Revenue int64
}

func (q *Queries) ListTopBooks(ctx context.Context, limit int32) ([]TopBookRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT oi.book_id, oi.title, oi.author, sum(oi.qty) AS qty_sold,
		       sum(oi.subtotal) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.payment_status = 'completed'
		GROUP BY oi.book_id, oi.title, oi.author
		ORDER BY qty_sold DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var top []TopBookRow
	for rows.Next() {
		var t TopBookRow
		if err := rows.Scan(&t.BookID, &t.Title, &t.Author, &t.QtySold, &t.Revenue); err != nil {
			return nil, err
		}
		top = append(top, t)
	}
	return top, rows.Err()
}

type FeeCollectionRow struct {
	SchoolID   int64
	SchoolName string
	Collected  int64
	Attempts   int64
}

func (q *Queries) ListFeeCollectionBySchool(ctx context.Context) ([]FeeCollectionRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT s.id, s.name,
		       coalesce(sum(fp.amount) FILTER (WHERE fp.status = 'completed'), 0),
		       count(fp.id)
		FROM schools s
		LEFT JOIN fee_payments fp ON fp.school_id = s.id
		GROUP BY s.id, s.name
		ORDER BY s.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FeeCollectionRow
	for rows.Next() {
		var f FeeCollectionRow
		if err := rows.Scan(&f.SchoolID, &f.SchoolName, &f.Collected, &f.Attempts); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
