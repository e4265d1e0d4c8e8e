package listings

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/selimbh/craftmarket/internal/domain"
	"github.com/selimbh/craftmarket/internal/pagination"
)

// Filter narrows a listing query. Zero values mean "no constraint".
type Filter struct {
	ArtisanID string
	Category  string
	Status    domain.ListingStatus
}

// sortFields maps the public sortBy names onto columns.
var sortFields = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"title":     "title",
	"category":  "category",
}

var defaultSort = pagination.Sort{Column: "created_at", Desc: true}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, listing *domain.Listing) error {
	listing.ID = uuid.New().String()
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	if listing.Status == "" {
		listing.Status = domain.ListingStatusActive
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO listings (id, artisan_id, title, description, price, category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, listing.ID, listing.ArtisanID, listing.Title, listing.Description,
		listing.Price, listing.Category, listing.Status, listing.CreatedAt)

	return err
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	listing := &domain.Listing{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, artisan_id, title, description, price, category, status, created_at, updated_at
		FROM listings
		WHERE id = $1
	`, id).Scan(
		&listing.ID, &listing.ArtisanID, &listing.Title, &listing.Description,
		&listing.Price, &listing.Category, &listing.Status,
		&listing.CreatedAt, &listing.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return listing, nil
}

func (r *Repository) List(ctx context.Context, filter Filter, opts pagination.Options) (pagination.Page[domain.Listing], error) {
	var zero pagination.Page[domain.Listing]

	where, args := buildWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings"+where, args...).Scan(&total); err != nil {
		return zero, err
	}

	opts = opts.Normalize()
	sort := pagination.ResolveSort(opts.SortBy, sortFields, defaultSort)

	query := fmt.Sprintf(`
		SELECT id, artisan_id, title, description, price, category, status, created_at, updated_at
		FROM listings%s
		ORDER BY %s
		LIMIT %d OFFSET %d
	`, where, sort.OrderBy(), opts.Limit, opts.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return zero, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(
			&l.ID, &l.ArtisanID, &l.Title, &l.Description,
			&l.Price, &l.Category, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return zero, err
		}
		results = append(results, l)
	}

	if err := rows.Err(); err != nil {
		return zero, err
	}

	return pagination.NewPage(results, total, opts), nil
}

func buildWhere(filter Filter) (string, []any) {
	var conds []string
	var args []any

	if filter.ArtisanID != "" {
		args = append(args, filter.ArtisanID)
		conds = append(conds, fmt.Sprintf("artisan_id = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
