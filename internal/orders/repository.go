package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/selimbh/craftmarket/internal/domain"
	"github.com/selimbh/craftmarket/internal/pagination"
)

// Filter narrows an order query. ClientID and ArtisanID are set by the
// service according to the requester's role, never by the caller.
type Filter struct {
	ClientID      string
	ArtisanID     string
	Status        domain.OrderStatus
	PaymentStatus domain.PaymentStatus
}

var sortFields = map[string]string{
	"createdAt":     "created_at",
	"price":         "price",
	"status":        "status",
	"paymentStatus": "payment_status",
}

var defaultSort = pagination.Sort{Column: "created_at", Desc: true}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const orderColumns = `id, client_id, artisan_id, listing_id, description,
		requested_delivery_date, status, price, payment_method, payment_status,
		delivery_method, delivery_address, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	order.ID = uuid.New().String()
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	address, err := marshalAddress(order.DeliveryAddress)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (id, client_id, artisan_id, listing_id, description,
			requested_delivery_date, status, price, payment_method, payment_status,
			delivery_method, delivery_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`, order.ID, order.ClientID, order.ArtisanID, order.ListingID,
		nullString(order.Description), order.RequestedDeliveryDate,
		order.Status, order.Price, order.PaymentMethod, order.PaymentStatus,
		order.DeliveryMethod, address, order.CreatedAt)

	return err
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)

	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return order, nil
}

// Update persists the mutable columns of the order. Identity columns and
// price are deliberately not part of the statement.
func (r *Repository) Update(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET description = $2, requested_delivery_date = $3, status = $4,
			payment_status = $5, updated_at = $6
		WHERE id = $1
	`, order.ID, nullString(order.Description), order.RequestedDeliveryDate,
		order.Status, order.PaymentStatus, order.UpdatedAt)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *Repository) List(ctx context.Context, filter Filter, opts pagination.Options) (pagination.Page[domain.Order], error) {
	var zero pagination.Page[domain.Order]

	where, args := buildWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return zero, err
	}

	opts = opts.Normalize()
	sort := pagination.ResolveSort(opts.SortBy, sortFields, defaultSort)

	query := fmt.Sprintf(`
		SELECT `+orderColumns+`
		FROM orders%s
		ORDER BY %s
		LIMIT %d OFFSET %d
	`, where, sort.OrderBy(), opts.Limit, opts.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return zero, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return zero, err
		}
		results = append(results, *order)
	}

	if err := rows.Err(); err != nil {
		return zero, err
	}

	return pagination.NewPage(results, total, opts), nil
}

func buildWhere(filter Filter) (string, []any) {
	var conds []string
	var args []any

	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.ArtisanID != "" {
		args = append(args, filter.ArtisanID)
		conds = append(conds, fmt.Sprintf("artisan_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		conds = append(conds, fmt.Sprintf("payment_status = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	order := &domain.Order{}
	var description sql.NullString
	var requestedDelivery sql.NullTime
	var address []byte

	err := row.Scan(
		&order.ID, &order.ClientID, &order.ArtisanID, &order.ListingID,
		&description, &requestedDelivery, &order.Status, &order.Price,
		&order.PaymentMethod, &order.PaymentStatus, &order.DeliveryMethod,
		&address, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.Description = description.String
	if requestedDelivery.Valid {
		t := requestedDelivery.Time
		order.RequestedDeliveryDate = &t
	}
	if len(address) > 0 {
		order.DeliveryAddress = &domain.Address{}
		if err := json.Unmarshal(address, order.DeliveryAddress); err != nil {
			return nil, fmt.Errorf("decode delivery address: %w", err)
		}
	}

	return order, nil
}

// marshalAddress stores the structured address as a jsonb document, NULL
// for pickup orders.
func marshalAddress(address *domain.Address) (any, error) {
	if address == nil {
		return nil, nil
	}
	data, err := json.Marshal(address)
	if err != nil {
		return nil, fmt.Errorf("encode delivery address: %w", err)
	}
	return data, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
