package postgres

import (
	"context"
	"fmt"

	"abayaStore/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportRepository runs the aggregate queries behind the dashboard.
type ReportRepository struct {
	DB *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{
		DB: db,
	}
}

var truncUnits = map[string]string{
	domain.PeriodDaily:   "day",
	domain.PeriodWeekly:  "week",
	domain.PeriodMonthly: "month",
}

func inRange(q *gorm.DB, column string, rng domain.DateRange) *gorm.DB {
	if !rng.From.IsZero() {
		q = q.Where(column+" >= ?", rng.From)
	}
	if !rng.To.IsZero() {
		q = q.Where(column+" < ?", rng.To)
	}
	return q
}

func (r *ReportRepository) Revenue(ctx context.Context, statuses []domain.OrderStatus) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := conn(ctx, r.DB).Model(&domain.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("status IN ?", statuses).
		Scan(&total).Error
	return total, err
}

func (r *ReportRepository) SalesBuckets(ctx context.Context, rng domain.DateRange, period string, statuses []domain.OrderStatus) ([]domain.SalesBucket, error) {
	unit, ok := truncUnits[period]
	if !ok {
		return nil, fmt.Errorf("%w: unknown period %q", domain.ErrInvalidInput, period)
	}

	var buckets []domain.SalesBucket
	q := conn(ctx, r.DB).Model(&domain.Order{}).
		Select("date_trunc(?, created_at) AS period, COALESCE(SUM(total), 0) AS total, COUNT(*) AS order_count", unit).
		Where("status IN ?", statuses)
	err := inRange(q, "created_at", rng).
		Group("1").
		Order("1").
		Scan(&buckets).Error
	return buckets, err
}

func (r *ReportRepository) saleItems(ctx context.Context, rng domain.DateRange, statuses []domain.OrderStatus) *gorm.DB {
	q := conn(ctx, r.DB).Table("order_items AS oi").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.status IN ?", statuses)
	return inRange(q, "o.created_at", rng)
}

func (r *ReportRepository) TopProducts(ctx context.Context, rng domain.DateRange, statuses []domain.OrderStatus, limit int) ([]domain.ProductSales, error) {
	var rows []domain.ProductSales
	err := r.saleItems(ctx, rng, statuses).
		Select("oi.product_id, oi.product_name, SUM(oi.quantity) AS units_sold, SUM(oi.total) AS revenue").
		Group("oi.product_id, oi.product_name").
		Order("revenue DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// ProductSales lists every product with what it sold in the window, including
// products that sold nothing.
func (r *ReportRepository) ProductSales(ctx context.Context, rng domain.DateRange, statuses []domain.OrderStatus) ([]domain.ProductSales, error) {
	sold := r.saleItems(ctx, rng, statuses).
		Select("oi.product_id, SUM(oi.quantity) AS units_sold, SUM(oi.total) AS revenue").
		Group("oi.product_id")

	var rows []domain.ProductSales
	err := conn(ctx, r.DB).Table("products AS p").
		Select("p.id AS product_id, p.name AS product_name, COALESCE(s.units_sold, 0) AS units_sold, COALESCE(s.revenue, 0) AS revenue, p.quantity AS stock").
		Joins("LEFT JOIN (?) AS s ON s.product_id = p.id", sold).
		Order("revenue DESC, p.name").
		Scan(&rows).Error
	return rows, err
}

func (r *ReportRepository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.DB).Model(&domain.User{}).Where("role = ?", domain.RoleCustomer).Count(&n).Error
	return n, err
}

func (r *ReportRepository) CountReturns(ctx context.Context, status domain.ReturnStatus) (int64, error) {
	var n int64
	err := conn(ctx, r.DB).Model(&domain.Return{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{
		DB: db,
	}
}

func (r *ActivityRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	return conn(ctx, r.DB).Create(entry).Error
}

func (r *ActivityRepository) List(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityLog, int64, error) {
	var (
		list  []domain.ActivityLog
		total int64
	)

	q := conn(ctx, r.DB).Model(&domain.ActivityLog{})
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	q = inRange(q, "created_at", filter.Range)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Size).
		Find(&list).Error
	return list, total, err
}
