package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"abayaStore/business/dashboard"
	"abayaStore/business/orders"
	"abayaStore/domain"
	"abayaStore/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ReportService interface {
	Overview(ctx context.Context) (domain.Overview, error)
	SalesReport(ctx context.Context, q dashboard.SalesQuery) (domain.SalesReport, error)
	ProductReport(ctx context.Context, q dashboard.SalesQuery) ([]domain.ProductSales, error)
	ListActivity(ctx context.Context, filter domain.ActivityFilter) (domain.PageResult[domain.ActivityLog], error)
	ExportOrdersCSV(ctx context.Context, filter domain.OrderFilter, w io.Writer) error
	ExportSalesCSV(ctx context.Context, q dashboard.SalesQuery, w io.Writer) error
	ExportProductsXLSX(ctx context.Context, w io.Writer) error
}

type OrderAdmin interface {
	AdminListOrders(ctx context.Context, filter domain.OrderFilter) (domain.PageResult[domain.Order], error)
	AdminFindOrder(ctx context.Context, ref string) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, next domain.OrderStatus, note string, actorID uint) (domain.Order, error)
	UpdateShipment(ctx context.Context, orderID uint, in orders.ShipmentUpdate, actorID uint) (domain.Shipment, error)
}

type ReturnAdmin interface {
	AdminListReturns(ctx context.Context, filter domain.ReturnFilter) (domain.PageResult[domain.Return], error)
	AdminGetReturn(ctx context.Context, id uint) (domain.Return, error)
	UpdateReturnStatus(ctx context.Context, id uint, next domain.ReturnStatus, notes string, actorID uint) (domain.Return, error)
}

type TransactionAdmin interface {
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) (domain.PageResult[domain.Transaction], error)
	AdminGetTransaction(ctx context.Context, id uint) (domain.Transaction, error)
	RefundOrder(ctx context.Context, orderID uint, amount decimal.Decimal, reason string) error
}

// LiveFeed takes ownership of an upgraded websocket connection.
type LiveFeed interface {
	Attach(conn *websocket.Conn)
}

type DashboardHandler struct {
	reports      ReportService
	orders       OrderAdmin
	returns      ReturnAdmin
	transactions TransactionAdmin
	live         LiveFeed
	upgrader     websocket.Upgrader
	validator    *validator.Validate
}

func NewDashboardHandler(
	reports ReportService,
	orderAdmin OrderAdmin,
	returnAdmin ReturnAdmin,
	transactions TransactionAdmin,
	live LiveFeed,
	allowedOrigins []string,
) *DashboardHandler {
	return &DashboardHandler{
		reports:      reports,
		orders:       orderAdmin,
		returns:      returnAdmin,
		transactions: transactions,
		live:         live,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      originChecker(allowedOrigins),
		},
		validator: validator.New(),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return false
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		logger.Warn("Rejected live feed origin", "origin", origin)
		return false
	}
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=1000"`
}

type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"required,max=500"`
}

func salesQueryFrom(c echo.Context) (dashboard.SalesQuery, error) {
	rng, err := dateRangeFrom(c)
	if err != nil {
		return dashboard.SalesQuery{}, err
	}
	return dashboard.SalesQuery{From: rng.From, To: rng.To, Period: c.QueryParam("period")}, nil
}

func orderFilterFrom(c echo.Context) (domain.OrderFilter, error) {
	rng, err := dateRangeFrom(c)
	if err != nil {
		return domain.OrderFilter{}, err
	}
	filter := domain.OrderFilter{
		Status: domain.OrderStatus(c.QueryParam("status")),
		Search: c.QueryParam("search"),
		Range:  rng,
		Page:   pageFrom(c),
	}
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, errInvalidQuery("user_id")
		}
		filter.UserID = uint(id)
	}
	return filter, nil
}

func actor(c echo.Context) uint {
	id, _ := currentUser(c)
	return id
}

func (h *DashboardHandler) Overview(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	overview, err := h.reports.Overview(ctx)
	if err != nil {
		return fail(c, "Failed to build dashboard overview", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(overview))
}

func (h *DashboardHandler) SalesReport(c echo.Context) error {
	q, err := salesQueryFrom(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest(err.Error()))
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	report, err := h.reports.SalesReport(ctx, q)
	if err != nil {
		return fail(c, "Failed to build sales report", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}

func (h *DashboardHandler) ProductReport(c echo.Context) error {
	q, err := salesQueryFrom(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest(err.Error()))
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	report, err := h.reports.ProductReport(ctx, q)
	if err != nil {
		return fail(c, "Failed to build product report", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}

func (h *DashboardHandler) ListOrders(c echo.Context) error {
	filter, err := orderFilterFrom(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest(err.Error()))
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.orders.AdminListOrders(ctx, filter)
	if err != nil {
		return fail(c, "Failed to list orders", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *DashboardHandler) GetOrder(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	order, err := h.orders.AdminFindOrder(ctx, c.Param("id"))
	if err != nil {
		return fail(c, "Failed to get order", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(order))
}

func (h *DashboardHandler) UpdateOrderStatus(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req StatusUpdateRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	order, err := h.orders.UpdateStatus(ctx, id, domain.OrderStatus(req.Status), req.Note, actor(c))
	if err != nil {
		return fail(c, "Failed to update order status", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(order))
}

func (h *DashboardHandler) UpdateShipment(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req orders.ShipmentUpdate
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	shipment, err := h.orders.UpdateShipment(ctx, id, req, actor(c))
	if err != nil {
		return fail(c, "Failed to update shipment", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(shipment))
}

// RefundOrder refunds through the order's gateway. A zero amount refunds
// the order total.
func (h *DashboardHandler) RefundOrder(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req RefundRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	amount := req.Amount
	if amount.IsZero() {
		order, err := h.orders.AdminFindOrder(ctx, strconv.FormatUint(uint64(id), 10))
		if err != nil {
			return fail(c, "Failed to get order", err)
		}
		amount = order.Total
	}

	if err := h.transactions.RefundOrder(ctx, id, amount, req.Reason); err != nil {
		return fail(c, "Failed to refund order", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"order_id": id,
		"amount":   amount,
	}))
}

func (h *DashboardHandler) ListReturns(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.returns.AdminListReturns(ctx, domain.ReturnFilter{
		Status: domain.ReturnStatus(c.QueryParam("status")),
		Page:   pageFrom(c),
	})
	if err != nil {
		return fail(c, "Failed to list returns", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *DashboardHandler) GetReturn(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	ret, err := h.returns.AdminGetReturn(ctx, id)
	if err != nil {
		return fail(c, "Failed to get return", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(ret))
}

func (h *DashboardHandler) UpdateReturnStatus(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	var req StatusUpdateRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	ret, err := h.returns.UpdateReturnStatus(ctx, id, domain.ReturnStatus(req.Status), req.Note, actor(c))
	if err != nil {
		return fail(c, "Failed to update return status", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(ret))
}

func (h *DashboardHandler) ListTransactions(c echo.Context) error {
	rng, err := dateRangeFrom(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest(err.Error()))
	}
	filter := domain.TransactionFilter{
		Gateway: c.QueryParam("gateway"),
		Status:  domain.TransactionStatus(c.QueryParam("status")),
		Range:   rng,
		Page:    pageFrom(c),
	}
	if v := c.QueryParam("order_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest("invalid order_id"))
		}
		filter.OrderID = uint(id)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.transactions.ListTransactions(ctx, filter)
	if err != nil {
		return fail(c, "Failed to list transactions", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *DashboardHandler) GetTransaction(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	txn, err := h.transactions.AdminGetTransaction(ctx, id)
	if err != nil {
		return fail(c, "Failed to get transaction", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(txn))
}

func (h *DashboardHandler) ListActivity(c echo.Context) error {
	rng, err := dateRangeFrom(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest(err.Error()))
	}
	filter := domain.ActivityFilter{
		Action:     c.QueryParam("action"),
		EntityType: c.QueryParam("entity_type"),
		Range:      rng,
		Page:       pageFrom(c),
	}
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest("invalid user_id"))
		}
		filter.UserID = uint(id)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.reports.ListActivity(ctx, filter)
	if err != nil {
		return fail(c, "Failed to list activity", err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

// attachment renders an export into memory first so a failure can still be
// reported with a proper status.
func attachment(c echo.Context, filename, contentType string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fail(c, "Failed to export "+filename, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func stamped(name, ext string) string {
	return name + "-" + time.Now().Format("20060102") + "." + ext
}

func (h *DashboardHandler) ExportOrders(c echo.Context) error {
	filter, err := orderFilterFrom(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest(err.Error()))
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	return attachment(c, stamped("orders", "csv"), mimeCSV, func(w io.Writer) error {
		return h.reports.ExportOrdersCSV(ctx, filter, w)
	})
}

func (h *DashboardHandler) ExportSales(c echo.Context) error {
	q, err := salesQueryFrom(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fres.Response.StatusBadRequest(err.Error()))
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	return attachment(c, stamped("sales", "csv"), mimeCSV, func(w io.Writer) error {
		return h.reports.ExportSalesCSV(ctx, q, w)
	})
}

func (h *DashboardHandler) ExportProducts(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	return attachment(c, stamped("products", "xlsx"), mimeXLSX, func(w io.Writer) error {
		return h.reports.ExportProductsXLSX(ctx, w)
	})
}

// Live upgrades to a websocket and hands the connection to the feed hub.
func (h *DashboardHandler) Live(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("Failed to upgrade live feed", "error", err.Error())
		return nil
	}
	logger.Info("Live feed client connected", "user_id", actor(c))
	h.live.Attach(conn)
	return nil
}
