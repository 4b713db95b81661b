package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"abayaStore/domain"
	"abayaStore/pkg/logger"

	"github.com/shopspring/decimal"
)

type ReportRepository interface {
	Revenue(ctx context.Context, statuses []domain.OrderStatus) (decimal.Decimal, error)
	SalesBuckets(ctx context.Context, rng domain.DateRange, period string, statuses []domain.OrderStatus) ([]domain.SalesBucket, error)
	TopProducts(ctx context.Context, rng domain.DateRange, statuses []domain.OrderStatus, limit int) ([]domain.ProductSales, error)
	ProductSales(ctx context.Context, rng domain.DateRange, statuses []domain.OrderStatus) ([]domain.ProductSales, error)
	CountCustomers(ctx context.Context) (int64, error)
	CountReturns(ctx context.Context, status domain.ReturnStatus) (int64, error)
}

type OrderRepository interface {
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error)
	Recent(ctx context.Context, limit int) ([]domain.Order, error)
	ListForExport(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
}

type ProductRepository interface {
	LowStock(ctx context.Context, threshold int) ([]domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	List(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityLog, int64, error)
}

const (
	DefaultLowStockThreshold = 5
	defaultReportWindow      = 30 * 24 * time.Hour
	topProductsLimit         = 10
	recentOrdersLimit        = 5
)

var (
	ErrInvalidPeriod = fmt.Errorf("%w: period must be daily, weekly or monthly", domain.ErrInvalidInput)
	ErrInvalidRange  = fmt.Errorf("%w: report start must be before its end", domain.ErrInvalidInput)
)

// SalesQuery selects a report window. Zero values fall back to the last 30
// days, bucketed daily.
type SalesQuery struct {
	From   time.Time
	To     time.Time
	Period string
}

type dashboardService struct {
	reports  ReportRepository
	orders   OrderRepository
	products ProductRepository
	activity ActivityRepository
	lowStock int
	now      func() time.Time
}

func NewDashboardService(
	reports ReportRepository,
	orders OrderRepository,
	products ProductRepository,
	activity ActivityRepository,
	lowStockThreshold int,
) *dashboardService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &dashboardService{
		reports:  reports,
		orders:   orders,
		products: products,
		activity: activity,
		lowStock: lowStockThreshold,
		now:      time.Now,
	}
}

func (s *dashboardService) Overview(ctx context.Context) (domain.Overview, error) {
	var (
		out domain.Overview
		err error
	)

	if out.TotalRevenue, err = s.reports.Revenue(ctx, domain.SaleStatuses()); err != nil {
		logger.Error("Failed to compute revenue", err)
		return domain.Overview{}, err
	}
	if out.OrdersByStatus, err = s.orders.CountByStatus(ctx); err != nil {
		logger.Error("Failed to count orders", err)
		return domain.Overview{}, err
	}
	if out.PendingReturns, err = s.reports.CountReturns(ctx, domain.ReturnRequested); err != nil {
		logger.Error("Failed to count pending returns", err)
		return domain.Overview{}, err
	}
	if out.LowStock, err = s.products.LowStock(ctx, s.lowStock); err != nil {
		logger.Error("Failed to load low stock products", err)
		return domain.Overview{}, err
	}
	if out.CustomerCount, err = s.reports.CountCustomers(ctx); err != nil {
		logger.Error("Failed to count customers", err)
		return domain.Overview{}, err
	}
	if out.RecentOrders, err = s.orders.Recent(ctx, recentOrdersLimit); err != nil {
		logger.Error("Failed to load recent orders", err)
		return domain.Overview{}, err
	}
	return out, nil
}

// normalize applies the report defaults and validates the window.
func (s *dashboardService) normalize(q SalesQuery) (SalesQuery, error) {
	q.Period = strings.ToLower(strings.TrimSpace(q.Period))
	switch q.Period {
	case "":
		q.Period = domain.PeriodDaily
	case domain.PeriodDaily, domain.PeriodWeekly, domain.PeriodMonthly:
	default:
		return SalesQuery{}, ErrInvalidPeriod
	}

	if q.To.IsZero() {
		q.To = s.now()
	}
	if q.From.IsZero() {
		q.From = q.To.Add(-defaultReportWindow)
	}
	if !q.From.Before(q.To) {
		return SalesQuery{}, ErrInvalidRange
	}
	return q, nil
}

func (s *dashboardService) SalesReport(ctx context.Context, q SalesQuery) (domain.SalesReport, error) {
	q, err := s.normalize(q)
	if err != nil {
		return domain.SalesReport{}, err
	}
	rng := domain.DateRange{From: q.From, To: q.To}
	statuses := domain.SaleStatuses()

	buckets, err := s.reports.SalesBuckets(ctx, rng, q.Period, statuses)
	if err != nil {
		logger.Error("Failed to build sales buckets", err, "period", q.Period)
		return domain.SalesReport{}, err
	}
	top, err := s.reports.TopProducts(ctx, rng, statuses, topProductsLimit)
	if err != nil {
		logger.Error("Failed to load top products", err)
		return domain.SalesReport{}, err
	}

	report := domain.SalesReport{
		From:              q.From,
		To:                q.To,
		Period:            q.Period,
		Buckets:           buckets,
		TotalSales:        decimal.Zero,
		AverageOrderValue: decimal.Zero,
		TopProducts:       top,
	}
	for _, b := range buckets {
		report.TotalSales = report.TotalSales.Add(b.Total)
		report.OrderCount += b.OrderCount
	}
	if report.OrderCount > 0 {
		report.AverageOrderValue = report.TotalSales.Div(decimal.NewFromInt(report.OrderCount)).Round(2)
	}
	return report, nil
}

func (s *dashboardService) ProductReport(ctx context.Context, q SalesQuery) ([]domain.ProductSales, error) {
	q, err := s.normalize(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.reports.ProductSales(ctx, domain.DateRange{From: q.From, To: q.To}, domain.SaleStatuses())
	if err != nil {
		logger.Error("Failed to build product report", err)
		return nil, err
	}
	return rows, nil
}

// Record stores an activity entry. Failures are logged, never returned.
func (s *dashboardService) Record(ctx context.Context, entry domain.ActivityLog) {
	if entry.Action == "" {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.activity.Create(ctx, &entry); err != nil {
		logger.Error("Failed to record activity", err, "action", entry.Action)
	}
}

func (s *dashboardService) ListActivity(ctx context.Context, filter domain.ActivityFilter) (domain.PageResult[domain.ActivityLog], error) {
	filter.Page = filter.Page.Normalize()
	list, total, err := s.activity.List(ctx, filter)
	if err != nil {
		logger.Error("Failed to list activity", err)
		return domain.PageResult[domain.ActivityLog]{}, err
	}
	return domain.NewPageResult(list, total, filter.Page), nil
}
