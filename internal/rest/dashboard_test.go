package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"abayaStore/business/dashboard"
	"abayaStore/domain"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReports struct {
	ReportService
	filter domain.OrderFilter
	query  dashboard.SalesQuery
	err    error
}

func (f *fakeReports) ExportOrdersCSV(_ context.Context, filter domain.OrderFilter, w io.Writer) error {
	f.filter = filter
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "order_number,total\nAB-1,100.00\n")
	return err
}

func (f *fakeReports) ExportSalesCSV(_ context.Context, q dashboard.SalesQuery, w io.Writer) error {
	f.query = q
	_, err := io.WriteString(w, "period,revenue\n")
	return err
}

func (f *fakeReports) ExportProductsXLSX(_ context.Context, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := w.Write([]byte("PK\x03\x04"))
	return err
}

type fakeOrderAdmin struct {
	OrderAdmin
	order domain.Order
}

func (f *fakeOrderAdmin) AdminFindOrder(_ context.Context, ref string) (domain.Order, error) {
	if ref != "7" {
		return domain.Order{}, domain.ErrNotFound
	}
	return f.order, nil
}

type fakeTransactions struct {
	TransactionAdmin
	orderID uint
	amount  decimal.Decimal
	reason  string
}

func (f *fakeTransactions) RefundOrder(_ context.Context, orderID uint, amount decimal.Decimal, reason string) error {
	f.orderID, f.amount, f.reason = orderID, amount, reason
	return nil
}

func dashboardServer(h *DashboardHandler) *echo.Echo {
	e := echo.New()
	g := e.Group("/dashboard", as(1, domain.RoleAdmin))
	g.GET("/exports/orders.csv", h.ExportOrders)
	g.GET("/exports/sales.csv", h.ExportSales)
	g.GET("/exports/products.xlsx", h.ExportProducts)
	g.POST("/orders/:id/refund", h.RefundOrder)
	return e
}

func TestExportOrdersCSV(t *testing.T) {
	reports := &fakeReports{}
	e := dashboardServer(NewDashboardHandler(reports, nil, nil, nil, nil, nil))

	rec := do(e, http.MethodGet, "/dashboard/exports/orders.csv?status=DELIVERED&from=2024-01-01", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeCSV, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="orders-`+time.Now().Format("20060102")+`.csv"`,
		rec.Header().Get(echo.HeaderContentDisposition))
	assert.Contains(t, rec.Body.String(), "AB-1,100.00")
	assert.Equal(t, domain.OrderStatus("DELIVERED"), reports.filter.Status)
	assert.Equal(t, "2024-01-01", reports.filter.Range.From.Format("2006-01-02"))
}

func TestExportSalesRejectsBadDate(t *testing.T) {
	e := dashboardServer(NewDashboardHandler(&fakeReports{}, nil, nil, nil, nil, nil))

	rec := do(e, http.MethodGet, "/dashboard/exports/sales.csv?from=yesterday", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/dashboard/exports/sales.csv?period=month", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportProductsXLSX(t *testing.T) {
	e := dashboardServer(NewDashboardHandler(&fakeReports{}, nil, nil, nil, nil, nil))

	rec := do(e, http.MethodGet, "/dashboard/exports/products.xlsx", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeXLSX, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), ".xlsx")
}

func TestExportFailureKeepsStatus(t *testing.T) {
	e := dashboardServer(NewDashboardHandler(&fakeReports{err: errors.New("query timeout")}, nil, nil, nil, nil, nil))

	rec := do(e, http.MethodGet, "/dashboard/exports/products.xlsx", nil, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderContentDisposition))
}

func TestRefundDefaultsToOrderTotal(t *testing.T) {
	orders := &fakeOrderAdmin{order: domain.Order{ID: 7, Total: decimal.RequireFromString("2499.00")}}
	txns := &fakeTransactions{}
	e := dashboardServer(NewDashboardHandler(&fakeReports{}, orders, nil, txns, nil, nil))

	rec := do(e, http.MethodPost, "/dashboard/orders/7/refund", jsonBody(`{"reason":"damaged in transit"}`), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), txns.orderID)
	assert.True(t, txns.amount.Equal(decimal.RequireFromString("2499.00")))
	assert.Equal(t, "damaged in transit", txns.reason)
}

func TestRefundPartialAmount(t *testing.T) {
	txns := &fakeTransactions{}
	e := dashboardServer(NewDashboardHandler(&fakeReports{}, &fakeOrderAdmin{}, nil, txns, nil, nil))

	rec := do(e, http.MethodPost, "/dashboard/orders/9/refund", jsonBody(`{"amount":"300","reason":"size exchange"}`), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(9), txns.orderID)
	assert.True(t, txns.amount.Equal(decimal.NewFromInt(300)))

	rec = do(e, http.MethodPost, "/dashboard/orders/9/refund", jsonBody(`{"amount":"300"}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://admin.abaya.store"})

	req := httptest.NewRequest(http.MethodGet, "/dashboard/live", nil)
	assert.False(t, check(req))

	req.Header.Set("Origin", "https://admin.abaya.store")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	req.Header.Set("Origin", "https://anything.example")
	assert.True(t, originChecker([]string{"*"})(req))
}
