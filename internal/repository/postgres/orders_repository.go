package postgres

import (
	"context"
	"errors"
	"fmt"

	"abayaStore/domain"

	"gorm.io/gorm"
)

type OrdersRepository struct {
	DB *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		DB: db,
	}
}

func (r *OrdersRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := conn(ctx, r.DB).Omit("User", "Shipment", "StatusLogs").Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("order number %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *OrdersRepository) detailed(ctx context.Context) *gorm.DB {
	return conn(ctx, r.DB).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("StatusLogs", func(db *gorm.DB) *gorm.DB { return db.Order("order_status_logs.created_at, order_status_logs.id") }).
		Preload("Shipment").
		Preload("Shipment.Tracking", func(db *gorm.DB) *gorm.DB { return db.Order("shipment_tracking.created_at DESC") })
}

func (r *OrdersRepository) findOne(ctx context.Context, query string, arg interface{}) (domain.Order, error) {
	var order domain.Order
	if err := r.detailed(ctx).Where(query, arg).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, fmt.Errorf("order %w", domain.ErrNotFound)
		}
		return domain.Order{}, err
	}
	return order, nil
}

func (r *OrdersRepository) FindByID(ctx context.Context, id uint) (domain.Order, error) {
	return r.findOne(ctx, "orders.id = ?", id)
}

func (r *OrdersRepository) FindByNumber(ctx context.Context, number string) (domain.Order, error) {
	return r.findOne(ctx, "orders.order_number = ?", number)
}

func (r *OrdersRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&domain.Order{}).Where("order_number = ?", number).Count(&count).Error
	return count > 0, err
}

func applyOrderFilter(q *gorm.DB, filter domain.OrderFilter) *gorm.DB {
	if filter.UserID != 0 {
		q = q.Where("orders.user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("orders.status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("(orders.order_number ILIKE ? OR orders.shipping_name ILIKE ?)", like, like)
	}
	if !filter.Range.From.IsZero() {
		q = q.Where("orders.created_at >= ?", filter.Range.From)
	}
	if !filter.Range.To.IsZero() {
		q = q.Where("orders.created_at < ?", filter.Range.To)
	}
	return q
}

func (r *OrdersRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	var (
		orders []domain.Order
		total  int64
	)

	q := applyOrderFilter(conn(ctx, r.DB).Model(&domain.Order{}), filter)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("orders.created_at DESC").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Size).
		Find(&orders).Error
	return orders, total, err
}

// ListForExport returns every matching order with its customer, newest first.
func (r *OrdersRepository) ListForExport(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	var orders []domain.Order
	err := applyOrderFilter(conn(ctx, r.DB).Model(&domain.Order{}), filter).
		Preload("Items").
		Preload("User").
		Order("orders.created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *OrdersRepository) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	row := conn(ctx, r.DB).Model(&domain.Order{}).Where("id = ?", id).Update(column, value)
	if err := row.Error; err != nil {
		return err
	}
	if row.RowsAffected == 0 {
		return fmt.Errorf("order %w", domain.ErrNotFound)
	}
	return nil
}

// UpdateStatus moves an order from one status to another. It reports false
// when the order is no longer in the from status.
func (r *OrdersRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.OrderStatus) (bool, error) {
	row := conn(ctx, r.DB).Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if row.Error != nil {
		return false, row.Error
	}
	return row.RowsAffected == 1, nil
}

// HasDeliveredPurchase reports whether the user has a delivered or completed
// order containing the product.
func (r *OrdersRepository) HasDeliveredPurchase(ctx context.Context, userID, productID uint) (bool, error) {
	var n int64
	err := conn(ctx, r.DB).Model(&domain.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ?", userID, productID).
		Where("orders.status IN ?", []domain.OrderStatus{domain.OrderDelivered, domain.OrderCompleted}).
		Count(&n).Error
	return n > 0, err
}

func (r *OrdersRepository) UpdatePaymentStatus(ctx context.Context, id uint, status domain.PaymentStatus) error {
	return r.updateColumn(ctx, id, "payment_status", status)
}

func (r *OrdersRepository) AddStatusLog(ctx context.Context, entry *domain.OrderStatusLog) error {
	return conn(ctx, r.DB).Create(entry).Error
}

func (r *OrdersRepository) FindShipment(ctx context.Context, orderID uint) (domain.Shipment, error) {
	var shipment domain.Shipment
	err := conn(ctx, r.DB).
		Preload("Tracking", func(db *gorm.DB) *gorm.DB { return db.Order("shipment_tracking.created_at DESC") }).
		Where("order_id = ?", orderID).
		First(&shipment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Shipment{}, fmt.Errorf("shipment %w", domain.ErrNotFound)
		}
		return domain.Shipment{}, err
	}
	return shipment, nil
}

func (r *OrdersRepository) SaveShipment(ctx context.Context, shipment *domain.Shipment) error {
	return conn(ctx, r.DB).Omit("Tracking").Save(shipment).Error
}

func (r *OrdersRepository) AddTracking(ctx context.Context, event *domain.ShipmentTracking) error {
	return conn(ctx, r.DB).Create(event).Error
}

// CountByStatus returns the number of orders per status.
func (r *OrdersRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	var rows []struct {
		Status domain.OrderStatus
		Count  int64
	}
	err := conn(ctx, r.DB).Model(&domain.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[domain.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *OrdersRepository) Recent(ctx context.Context, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := conn(ctx, r.DB).Preload("User").Order("created_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}
