package orders

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

type AnalyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

type SalesSummary struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	OrderCount    int             `json:"order_count"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	TopItems      []ItemSales     `json:"top_items"`
	RevenueByDay  []DailyRevenue  `json:"revenue_by_day"`
}

type ItemSales struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type DailyRevenue struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
}

// SalesSummary aggregates approved orders from the last N days. Pending and
// rejected orders never count as revenue.
func (r *AnalyticsRepository) SalesSummary(ctx context.Context, days int) (*SalesSummary, error) {
	summary := &SalesSummary{
		TotalRevenue:  decimal.Zero,
		AvgOrderValue: decimal.Zero,
	}

	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE status = 'approved'
		  AND created_at >= NOW() - make_interval(days => $1)
	`, days).Scan(&summary.TotalRevenue, &summary.OrderCount)
	if err != nil {
		return nil, fmt.Errorf("sales totals: %w", err)
	}

	if summary.OrderCount > 0 {
		summary.AvgOrderValue = summary.TotalRevenue.
			Div(decimal.NewFromInt(int64(summary.OrderCount))).
			Round(2)
	}

	topRows, err := r.db.QueryContext(ctx, `
		SELECT i.name, SUM(i.quantity), SUM(i.price * i.quantity)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.status = 'approved'
		  AND o.created_at >= NOW() - make_interval(days => $1)
		GROUP BY i.name
		ORDER BY SUM(i.price * i.quantity) DESC
		LIMIT 5
	`, days)
	if err != nil {
		return nil, fmt.Errorf("top items: %w", err)
	}
	defer func() { _ = topRows.Close() }()

	for topRows.Next() {
		var item ItemSales
		if err := topRows.Scan(&item.Name, &item.Quantity, &item.Revenue); err != nil {
			return nil, err
		}
		summary.TopItems = append(summary.TopItems, item)
	}
	if err := topRows.Err(); err != nil {
		return nil, err
	}

	dayRows, err := r.db.QueryContext(ctx, `
		SELECT to_char(created_at::date, 'YYYY-MM-DD'), SUM(total)
		FROM orders
		WHERE status = 'approved'
		  AND created_at >= NOW() - make_interval(days => $1)
		GROUP BY created_at::date
		ORDER BY created_at::date
	`, days)
	if err != nil {
		return nil, fmt.Errorf("revenue by day: %w", err)
	}
	defer func() { _ = dayRows.Close() }()

	for dayRows.Next() {
		var day DailyRevenue
		if err := dayRows.Scan(&day.Day, &day.Revenue); err != nil {
			return nil, err
		}
		summary.RevenueByDay = append(summary.RevenueByDay, day)
	}
	if err := dayRows.Err(); err != nil {
		return nil, err
	}

	return summary, nil
}

func parseDays(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("days must be positive")
	}
	return n, nil
}
