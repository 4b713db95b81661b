package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"abayaStore/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

type fakeReports struct {
	buckets    []domain.SalesBucket
	top        []domain.ProductSales
	gotRange   domain.DateRange
	gotPeriod  string
	gotLimit   int
	gotStatus  []domain.OrderStatus
	customers  int64
	pending    int64
	revenueErr error
}

func (f *fakeReports) Revenue(_ context.Context, statuses []domain.OrderStatus) (decimal.Decimal, error) {
	f.gotStatus = statuses
	return decimal.NewFromInt(12500), f.revenueErr
}

func (f *fakeReports) SalesBuckets(_ context.Context, rng domain.DateRange, period string, _ []domain.OrderStatus) ([]domain.SalesBucket, error) {
	f.gotRange, f.gotPeriod = rng, period
	return f.buckets, nil
}

func (f *fakeReports) TopProducts(_ context.Context, _ domain.DateRange, _ []domain.OrderStatus, limit int) ([]domain.ProductSales, error) {
	f.gotLimit = limit
	return f.top, nil
}

func (f *fakeReports) ProductSales(_ context.Context, rng domain.DateRange, _ []domain.OrderStatus) ([]domain.ProductSales, error) {
	f.gotRange = rng
	return f.top, nil
}

func (f *fakeReports) CountCustomers(context.Context) (int64, error) { return f.customers, nil }

func (f *fakeReports) CountReturns(_ context.Context, status domain.ReturnStatus) (int64, error) {
	if status != domain.ReturnRequested {
		return 0, nil
	}
	return f.pending, nil
}

type fakeOrders struct {
	orders      []domain.Order
	recentLimit int
}

func (f *fakeOrders) CountByStatus(context.Context) (map[domain.OrderStatus]int64, error) {
	return map[domain.OrderStatus]int64{domain.OrderPending: 2, domain.OrderDelivered: 1}, nil
}

func (f *fakeOrders) Recent(_ context.Context, limit int) ([]domain.Order, error) {
	f.recentLimit = limit
	return f.orders, nil
}

func (f *fakeOrders) ListForExport(context.Context, domain.OrderFilter) ([]domain.Order, error) {
	return f.orders, nil
}

type fakeProducts struct {
	products  []domain.Product
	threshold int
}

func (f *fakeProducts) LowStock(_ context.Context, threshold int) ([]domain.Product, error) {
	f.threshold = threshold
	return f.products[:1], nil
}

func (f *fakeProducts) FindAll(context.Context) ([]domain.Product, error) {
	return f.products, nil
}

type fakeActivity struct {
	entries []domain.ActivityLog
	err     error
}

func (f *fakeActivity) Create(_ context.Context, e *domain.ActivityLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeActivity) List(context.Context, domain.ActivityFilter) ([]domain.ActivityLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

var now = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *dashboardService
	reports  *fakeReports
	orders   *fakeOrders
	products *fakeProducts
	activity *fakeActivity
}

func newFixture() *fixture {
	f := &fixture{
		reports: &fakeReports{customers: 42, pending: 3},
		orders: &fakeOrders{orders: []domain.Order{{
			OrderNumber:    "202503-000001",
			Status:         domain.OrderDelivered,
			PaymentStatus:  domain.PaymentPaid,
			Subtotal:       decimal.NewFromInt(1500),
			DiscountAmount: decimal.NewFromInt(100),
			ShippingCost:   decimal.NewFromInt(150),
			TaxAmount:      decimal.NewFromInt(252),
			Total:          decimal.NewFromInt(1802),
			Items:          []domain.OrderItem{{Quantity: 2}, {Quantity: 1}},
			User:           &domain.User{FullName: "Aisha Rahman", Email: "aisha@example.com"},
			CreatedAt:      now,
		}}},
		products: &fakeProducts{products: []domain.Product{
			{ID: 1, Name: "Nida Abaya", SKU: "AB-1", Price: decimal.NewFromInt(1200), Quantity: 3, IsActive: true,
				Categories: []domain.Category{{Name: "Abayas"}, {Name: "Everyday"}}},
			{ID: 2, Name: "Crepe Hijab", SKU: "HJ-1", Price: decimal.NewFromInt(300), Quantity: 40,
				SalePrice: decimal.NewNullDecimal(decimal.NewFromInt(250))},
		}},
		activity: &fakeActivity{},
	}
	f.svc = NewDashboardService(f.reports, f.orders, f.products, f.activity, 0)
	f.svc.now = func() time.Time { return now }
	return f
}

func TestOverview(t *testing.T) {
	f := newFixture()

	out, err := f.svc.Overview(context.Background())
	require.NoError(t, err)

	assert.True(t, out.TotalRevenue.Equal(decimal.NewFromInt(12500)))
	assert.ElementsMatch(t, domain.SaleStatuses(), f.reports.gotStatus)
	assert.Equal(t, int64(2), out.OrdersByStatus[domain.OrderPending])
	assert.Equal(t, int64(3), out.PendingReturns)
	assert.Equal(t, int64(42), out.CustomerCount)
	assert.Len(t, out.LowStock, 1)
	assert.Equal(t, DefaultLowStockThreshold, f.products.threshold)
	assert.Equal(t, 5, f.orders.recentLimit)
}

func TestOverviewPropagatesErrors(t *testing.T) {
	f := newFixture()
	f.reports.revenueErr = errors.New("db down")

	_, err := f.svc.Overview(context.Background())
	assert.Error(t, err)
}

func TestSalesReportDefaults(t *testing.T) {
	f := newFixture()
	f.reports.buckets = []domain.SalesBucket{
		{Period: now.AddDate(0, 0, -2), Total: decimal.NewFromInt(1000), OrderCount: 2},
		{Period: now.AddDate(0, 0, -1), Total: decimal.NewFromInt(500), OrderCount: 1},
	}

	report, err := f.svc.SalesReport(context.Background(), SalesQuery{})
	require.NoError(t, err)

	assert.Equal(t, domain.PeriodDaily, report.Period)
	assert.Equal(t, now, f.reports.gotRange.To)
	assert.Equal(t, now.AddDate(0, 0, -30), f.reports.gotRange.From)
	assert.Equal(t, 10, f.reports.gotLimit)
	assert.True(t, report.TotalSales.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, int64(3), report.OrderCount)
	assert.Equal(t, "500.00", report.AverageOrderValue.StringFixed(2))
}

func TestSalesReportEmpty(t *testing.T) {
	f := newFixture()

	report, err := f.svc.SalesReport(context.Background(), SalesQuery{Period: "Monthly"})
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodMonthly, f.reports.gotPeriod)
	assert.True(t, report.AverageOrderValue.IsZero())
}

func TestSalesReportValidation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SalesReport(context.Background(), SalesQuery{Period: "hourly"})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.SalesReport(context.Background(), SalesQuery{From: now, To: now.AddDate(0, 0, -1)})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestExportOrdersCSV(t *testing.T) {
	f := newFixture()
	var buf bytes.Buffer

	require.NoError(t, f.svc.ExportOrdersCSV(context.Background(), domain.OrderFilter{}, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, orderExportHeader, records[0])
	assert.Equal(t, []string{
		"202503-000001", "2025-03-31 12:00:00", "Aisha Rahman", "aisha@example.com",
		"DELIVERED", "PAID", "3", "1500.00", "100.00", "150.00", "252.00", "1802.00",
	}, records[1])
}

func TestExportSalesCSV(t *testing.T) {
	f := newFixture()
	f.reports.buckets = []domain.SalesBucket{
		{Period: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(1802), OrderCount: 1},
	}
	var buf bytes.Buffer

	require.NoError(t, f.svc.ExportSalesCSV(context.Background(), SalesQuery{}, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Period", "Orders", "Total"},
		{"2025-03-01", "1", "1802.00"},
		{"Total", "1", "1802.00"},
	}, records)
}

func TestExportProductsXLSX(t *testing.T) {
	f := newFixture()
	var buf bytes.Buffer

	require.NoError(t, f.svc.ExportProductsXLSX(context.Background(), &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, "Products", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Name", sheet.Rows[0].Cells[1].String())
	assert.Equal(t, "Nida Abaya", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "Abayas, Everyday", sheet.Rows[1].Cells[8].String())
	assert.Equal(t, "250.00", sheet.Rows[2].Cells[4].String())
}

func TestRecordActivity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.svc.Record(ctx, domain.ActivityLog{Action: "order.status", EntityType: "order", EntityID: "7"})
	f.svc.Record(ctx, domain.ActivityLog{})
	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, now, f.activity.entries[0].CreatedAt)

	f.activity.err = errors.New("insert failed")
	f.svc.Record(ctx, domain.ActivityLog{Action: "order.refund"})

	page, err := f.svc.ListActivity(ctx, domain.ActivityFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Page)
}
