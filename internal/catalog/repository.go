package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/brewline/cafe-kiosk/internal/domain"
)

var ErrItemNotFound = errors.New("catalog item not found")

// restockQuantity is what "restock" and re-enabling an item reset stock to,
// carried over from the original back office rule.
const restockQuantity = 10

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListMenu(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price, category, sizes, available, created_at
		FROM menu
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		var sizes pq.StringArray
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.Category, &sizes, &item.Available, &item.CreatedAt); err != nil {
			return nil, err
		}
		for _, s := range sizes {
			item.Sizes = append(item.Sizes, domain.ItemSize(s))
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *CatalogRepository) CreateMenuItem(ctx context.Context, item *domain.MenuItem) error {
	item.ID = uuid.New().String()
	item.CreatedAt = time.Now().UTC()

	sizes := make([]string, 0, len(item.Sizes))
	for _, s := range item.Sizes {
		sizes = append(sizes, string(s))
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO menu (id, name, price, category, sizes, available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.Name, item.Price, item.Category, pq.Array(sizes), item.Available, item.CreatedAt)
	return err
}

// MenuItemUpdate carries the fields the admin screen may change; nil means
// leave the column alone.
type MenuItemUpdate struct {
	Name      *string
	Price     *decimal.Decimal
	Category  *string
	Available *bool
}

func (r *CatalogRepository) UpdateMenuItem(ctx context.Context, id string, update MenuItemUpdate) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE menu SET
			name = COALESCE($2, name),
			price = COALESCE($3, price),
			category = COALESCE($4, category),
			available = COALESCE($5, available)
		WHERE id = $1
	`, id, update.Name, update.Price, update.Category, update.Available)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *CatalogRepository) DeleteMenuItem(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM menu WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *CatalogRepository) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_name, category, quantity, is_available, updated_at
		FROM inventory
		ORDER BY product_name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.InventoryItem
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.ProductName, &item.Category, &item.Quantity, &item.IsAvailable, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *CatalogRepository) CreateInventoryItem(ctx context.Context, item *domain.InventoryItem) error {
	item.ID = uuid.New().String()
	item.IsAvailable = item.Quantity > 0
	item.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory (id, product_name, category, quantity, is_available, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.ID, item.ProductName, item.Category, item.Quantity, item.IsAvailable, item.UpdatedAt)
	return err
}

// SetQuantity updates stock and derives availability from it.
func (r *CatalogRepository) SetQuantity(ctx context.Context, id string, quantity int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = $2, is_available = $2 > 0, updated_at = NOW()
		WHERE id = $1
	`, id, quantity)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ToggleAvailability flips an item between sold-out and in-stock: anything in
// stock drops to zero, anything sold out comes back at the restock quantity.
func (r *CatalogRepository) ToggleAvailability(ctx context.Context, id string) (*domain.InventoryItem, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = CASE WHEN quantity > 0 THEN 0 ELSE $2 END,
			is_available = quantity <= 0, -- reads the pre-update quantity
			updated_at = NOW()
		WHERE id = $1
	`, id, restockQuantity)
	if err != nil {
		return nil, err
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}

	item := &domain.InventoryItem{}
	err = r.db.QueryRowContext(ctx, `
		SELECT id, product_name, category, quantity, is_available, updated_at
		FROM inventory WHERE id = $1
	`, id).Scan(&item.ID, &item.ProductName, &item.Category, &item.Quantity, &item.IsAvailable, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// RestockAll resets every item to the standard restock quantity.
func (r *CatalogRepository) RestockAll(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = $1, is_available = TRUE, updated_at = NOW()
	`, restockQuantity)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	return int(rows), err
}

func (r *CatalogRepository) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, question, answer, display_order
		FROM faqs
		ORDER BY display_order
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var faqs []domain.FAQ
	for rows.Next() {
		var faq domain.FAQ
		if err := rows.Scan(&faq.ID, &faq.Question, &faq.Answer, &faq.DisplayOrder); err != nil {
			return nil, err
		}
		faqs = append(faqs, faq)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return faqs, nil
}

func (r *CatalogRepository) ListRatingSources(ctx context.Context) ([]domain.RatingSource, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, url, display_order
		FROM rating_sources
		ORDER BY display_order
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sources []domain.RatingSource
	for rows.Next() {
		var source domain.RatingSource
		if err := rows.Scan(&source.ID, &source.Name, &source.URL, &source.DisplayOrder); err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sources, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}
