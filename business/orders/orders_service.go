package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"abayaStore/business/pricing"
	"abayaStore/domain"
	"abayaStore/internal/events"
	"abayaStore/pkg/logger"
	"abayaStore/pkg/metrics"

	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint) (domain.Order, error)
	FindByNumber(ctx context.Context, number string) (domain.Order, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error)
	UpdateStatus(ctx context.Context, id uint, from, to domain.OrderStatus) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id uint, status domain.PaymentStatus) error
	AddStatusLog(ctx context.Context, entry *domain.OrderStatusLog) error
	FindShipment(ctx context.Context, orderID uint) (domain.Shipment, error)
	SaveShipment(ctx context.Context, shipment *domain.Shipment) error
	AddTracking(ctx context.Context, event *domain.ShipmentTracking) error
}

type CartRepository interface {
	FindByUser(ctx context.Context, userID uint) (domain.Cart, error)
	ClearItems(ctx context.Context, cartID uint) error
}

type StockRepository interface {
	DecrementStock(ctx context.Context, productID uint, n int) (bool, error)
	IncrementStock(ctx context.Context, productID uint, n int) error
}

type AddressRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Address, error)
}

type CouponRedeemer interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (domain.Coupon, decimal.Decimal, error)
	Redeem(ctx context.Context, couponID uint) error
}

type CurrencyProvider interface {
	GetDefault(ctx context.Context) (domain.Currency, error)
}

// Refunder returns money for an order through its payment gateway.
type Refunder interface {
	RefundOrder(ctx context.Context, orderID uint, amount decimal.Decimal, reason string) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, ev events.Event) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

var (
	ErrOrderNotFound        = fmt.Errorf("order %w", domain.ErrNotFound)
	ErrShipmentNotFound     = fmt.Errorf("shipment %w", domain.ErrNotFound)
	ErrEmptyCart            = fmt.Errorf("%w: your cart is empty", domain.ErrInvalidInput)
	ErrInsufficientStock    = fmt.Errorf("%w: insufficient stock", domain.ErrConflict)
	ErrProductUnavailable   = fmt.Errorf("%w: product is no longer available", domain.ErrInvalidInput)
	ErrInvalidPaymentMethod = fmt.Errorf("%w: unknown payment method", domain.ErrInvalidInput)
	ErrInvalidStatus        = fmt.Errorf("%w: unknown status", domain.ErrInvalidInput)
	ErrInvalidTransition    = fmt.Errorf("%w: status transition not allowed", domain.ErrInvalidState)
	ErrNotCancellable       = fmt.Errorf("%w: order cannot be cancelled at this stage", domain.ErrInvalidState)
	ErrStatusChanged        = fmt.Errorf("%w: order status changed, reload and retry", ErrInvalidTransition)
)

const (
	shippedDeliveryWindow    = 3 * 24 * time.Hour
	processingDeliveryWindow = 5 * 24 * time.Hour
	orderNumberAttempts      = 5
)

type CheckoutInput struct {
	ShippingAddressID uint                     `json:"shipping_address_id" validate:"required"`
	BillingAddressID  uint                     `json:"billing_address_id"`
	CouponCode        string                   `json:"coupon_code"`
	PaymentMethod     domain.PaymentMethodType `json:"payment_method" validate:"required"`
	Notes             string                   `json:"notes" validate:"max=1000"`
}

type ShipmentUpdate struct {
	Carrier           string                `json:"carrier"`
	TrackingNumber    string                `json:"tracking_number"`
	Status            domain.ShipmentStatus `json:"status" validate:"required"`
	Location          string                `json:"location"`
	Description       string                `json:"description"`
	EstimatedDelivery *time.Time            `json:"estimated_delivery"`
}

type ordersService struct {
	orderRepo  OrderRepository
	cartRepo   CartRepository
	stock      StockRepository
	addresses  AddressRepository
	coupons    CouponRedeemer
	currencies CurrencyProvider
	pricer     *pricing.Calculator
	publisher  Publisher
	refunder   Refunder
	tx         Transactor
	now        func() time.Time
}

func NewOrdersService(
	orderRepo OrderRepository,
	cartRepo CartRepository,
	stock StockRepository,
	addresses AddressRepository,
	coupons CouponRedeemer,
	currencies CurrencyProvider,
	pricer *pricing.Calculator,
	publisher Publisher,
	tx Transactor,
) *ordersService {
	return &ordersService{
		orderRepo:  orderRepo,
		cartRepo:   cartRepo,
		stock:      stock,
		addresses:  addresses,
		coupons:    coupons,
		currencies: currencies,
		pricer:     pricer,
		publisher:  publisher,
		tx:         tx,
		now:        time.Now,
	}
}

// SetRefunder wires the payment side after construction; payments itself
// depends on this service to mark orders paid.
func (s *ordersService) SetRefunder(r Refunder) {
	s.refunder = r
}

func (s *ordersService) publish(ctx context.Context, topic string, order domain.Order) {
	if s.publisher == nil {
		return
	}
	ev := events.Event{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      string(order.Status),
		Amount:      order.Total,
		Currency:    order.CurrencyCode,
	}
	if err := s.publisher.Publish(ctx, topic, ev); err != nil {
		logger.Error("Failed to publish order event", err, "topic", topic, "order_id", order.ID)
	}
}

// newOrderNumber returns an unused YYYYMM-NNNNNN number.
func (s *ordersService) newOrderNumber(ctx context.Context) (string, error) {
	prefix := s.now().Format("200601")
	for i := 0; i < orderNumberAttempts; i++ {
		number := fmt.Sprintf("%s-%06d", prefix, rand.IntN(1000000))
		exists, err := s.orderRepo.NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate an order number", domain.ErrConflict)
}

func (s *ordersService) ownedAddress(ctx context.Context, userID, id uint) (domain.Address, error) {
	addr, err := s.addresses.FindByID(ctx, id)
	if err != nil {
		return domain.Address{}, err
	}
	if addr.UserID != userID {
		return domain.Address{}, fmt.Errorf("%w: address belongs to another user", domain.ErrForbidden)
	}
	return addr, nil
}

func orderItemFrom(item domain.CartItem) domain.OrderItem {
	p := item.Product
	price := p.ActivePrice()
	oi := domain.OrderItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		SKU:         p.SKU,
		UnitPrice:   price,
		Quantity:    item.Quantity,
		Total:       domain.Round2(price.Mul(decimal.NewFromInt(int64(item.Quantity)))),
	}
	if item.Size != nil {
		oi.SizeName = item.Size.Name
	}
	if item.Color != nil {
		oi.ColorName = item.Color.Name
	}
	if item.Fabric != nil {
		oi.FabricName = item.Fabric.Name
	}
	return oi
}

func applyAddresses(order *domain.Order, shipping, billing domain.Address) {
	order.ShippingName = shipping.FullName
	order.ShippingPhone = shipping.Phone
	order.ShippingLine1 = shipping.Line1
	order.ShippingLine2 = shipping.Line2
	order.ShippingCity = shipping.City
	order.ShippingState = shipping.State
	order.ShippingPostalCode = shipping.PostalCode
	order.ShippingCountry = shipping.Country
	order.BillingName = billing.FullName
	order.BillingLine1 = billing.Line1
	order.BillingCity = billing.City
	order.BillingState = billing.State
	order.BillingPostalCode = billing.PostalCode
	order.BillingCountry = billing.Country
}

// Checkout turns the user's cart into a pending order. Stock, coupon usage,
// the order and the cart are all changed in one transaction.
func (s *ordersService) Checkout(ctx context.Context, userID uint, in CheckoutInput) (domain.Order, error) {
	if !in.PaymentMethod.Valid() {
		return domain.Order{}, ErrInvalidPaymentMethod
	}

	shipping, err := s.ownedAddress(ctx, userID, in.ShippingAddressID)
	if err != nil {
		return domain.Order{}, err
	}
	billing := shipping
	if in.BillingAddressID != 0 && in.BillingAddressID != in.ShippingAddressID {
		if billing, err = s.ownedAddress(ctx, userID, in.BillingAddressID); err != nil {
			return domain.Order{}, err
		}
	}

	currency, err := s.currencies.GetDefault(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	var order domain.Order
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.cartRepo.FindByUser(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		subtotal := decimal.Zero
		items := make([]domain.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.Product == nil || !item.Product.IsActive {
				return ErrProductUnavailable
			}
			ok, err := s.stock.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w for %s", ErrInsufficientStock, item.Product.Name)
			}

			oi := orderItemFrom(item)
			subtotal = subtotal.Add(oi.Total)
			items = append(items, oi)
		}

		discount := decimal.Zero
		if strings.TrimSpace(in.CouponCode) != "" {
			c, d, err := s.coupons.Validate(ctx, in.CouponCode, subtotal)
			if err != nil {
				return err
			}
			if err := s.coupons.Redeem(ctx, c.ID); err != nil {
				return err
			}
			order.CouponID = &c.ID
			order.CouponCode = c.Code
			discount = d
		}

		quote := s.pricer.Quote(subtotal, discount, shipping.State)

		number, err := s.newOrderNumber(ctx)
		if err != nil {
			return err
		}

		order.OrderNumber = number
		order.UserID = userID
		order.Status = domain.OrderPending
		order.PaymentStatus = domain.PaymentPending
		order.PaymentMethod = in.PaymentMethod
		order.Subtotal = quote.Subtotal
		order.DiscountAmount = quote.Discount
		order.ShippingCost = quote.Shipping
		order.TaxAmount = quote.Tax
		order.Total = quote.Total
		order.CurrencyCode = currency.Code
		order.Notes = strings.TrimSpace(in.Notes)
		order.Items = items
		applyAddresses(&order, shipping, billing)

		if err := s.orderRepo.Create(ctx, &order); err != nil {
			return err
		}

		created := userID
		if err := s.orderRepo.AddStatusLog(ctx, &domain.OrderStatusLog{
			OrderID:   order.ID,
			ToStatus:  domain.OrderPending,
			Note:      "Order created",
			CreatedBy: &created,
		}); err != nil {
			return err
		}

		return s.cartRepo.ClearItems(ctx, cart.ID)
	})
	if err != nil {
		logger.Warn("Checkout failed", "user_id", userID, "error", err.Error())
		return domain.Order{}, err
	}

	metrics.OrdersPlaced.Inc()
	s.publish(ctx, events.TopicOrderPlaced, order)
	logger.Info("Order placed", "order_number", order.OrderNumber, "user_id", userID, "total", order.Total.StringFixed(2))

	return order, nil
}

func (s *ordersService) find(ctx context.Context, ref string) (domain.Order, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return s.orderRepo.FindByID(ctx, uint(id))
	}
	return s.orderRepo.FindByNumber(ctx, ref)
}

func (s *ordersService) owned(ctx context.Context, userID uint, ref string) (domain.Order, error) {
	order, err := s.find(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, ErrOrderNotFound
		}
		return domain.Order{}, err
	}
	if order.UserID != userID {
		return domain.Order{}, ErrOrderNotFound
	}
	return order, nil
}

func (s *ordersService) ListOrders(ctx context.Context, userID uint, filter domain.OrderFilter) (domain.PageResult[domain.Order], error) {
	filter.UserID = userID
	return s.AdminListOrders(ctx, filter)
}

// GetOrder accepts either the numeric id or the order number.
func (s *ordersService) GetOrder(ctx context.Context, userID uint, ref string) (domain.Order, error) {
	return s.owned(ctx, userID, ref)
}

func (s *ordersService) restoreStock(ctx context.Context, items []domain.OrderItem) error {
	for _, item := range items {
		if err := s.stock.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// transition writes next only if the order still has the status it was
// read with.
func (s *ordersService) transition(ctx context.Context, order *domain.Order, next domain.OrderStatus, note string, actorID *uint) error {
	moved, err := s.orderRepo.UpdateStatus(ctx, order.ID, order.Status, next)
	if err != nil {
		return err
	}
	if !moved {
		return ErrStatusChanged
	}
	if err := s.orderRepo.AddStatusLog(ctx, &domain.OrderStatusLog{
		OrderID:    order.ID,
		FromStatus: order.Status,
		ToStatus:   next,
		Note:       note,
		CreatedBy:  actorID,
	}); err != nil {
		return err
	}
	order.Status = next
	metrics.OrderStatusChanges.WithLabelValues(string(next)).Inc()
	return nil
}

func (s *ordersService) CancelOrder(ctx context.Context, userID uint, ref, reason string) (domain.Order, error) {
	order, err := s.owned(ctx, userID, ref)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.CanBeCancelled() {
		return domain.Order{}, ErrNotCancellable
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "No reason provided"
	}
	wasPaid := order.PaymentStatus == domain.PaymentPaid

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.transition(ctx, &order, domain.OrderCancelled, "Order cancelled by customer. Reason: "+reason, &userID); err != nil {
			return err
		}
		if err := s.restoreStock(ctx, order.Items); err != nil {
			return err
		}
		if wasPaid {
			order.PaymentStatus = domain.PaymentRefunded
			return s.orderRepo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentRefunded)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to cancel order", err, "order_id", order.ID)
		return domain.Order{}, err
	}

	if wasPaid && s.refunder != nil {
		if err := s.refunder.RefundOrder(ctx, order.ID, order.Total, "order cancelled"); err != nil {
			logger.Error("Refund for cancelled order failed", err, "order_id", order.ID)
		}
	}

	s.publish(ctx, events.TopicOrderStatusChanged, order)
	return order, nil
}

func (s *ordersService) TrackOrder(ctx context.Context, userID uint, ref string) (domain.Shipment, error) {
	order, err := s.owned(ctx, userID, ref)
	if err != nil {
		return domain.Shipment{}, err
	}

	shipment, err := s.orderRepo.FindShipment(ctx, order.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Shipment{}, ErrShipmentNotFound
	}
	return shipment, err
}

func (s *ordersService) AdminListOrders(ctx context.Context, filter domain.OrderFilter) (domain.PageResult[domain.Order], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.PageResult[domain.Order]{}, ErrInvalidStatus
	}
	filter.Page = filter.Page.Normalize()

	list, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		logger.Error("Failed to list orders", err)
		return domain.PageResult[domain.Order]{}, err
	}
	return domain.NewPageResult(list, total, filter.Page), nil
}

func (s *ordersService) AdminGetOrder(ctx context.Context, id uint) (domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Order{}, ErrOrderNotFound
	}
	return order, err
}

// AdminFindOrder looks an order up by id or order number.
func (s *ordersService) AdminFindOrder(ctx context.Context, ref string) (domain.Order, error) {
	order, err := s.find(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Order{}, ErrOrderNotFound
	}
	return order, err
}

// ensureShipment returns the order's shipment, creating one in the given
// status when the order has none yet.
func (s *ordersService) ensureShipment(ctx context.Context, orderID uint, status domain.ShipmentStatus, eta time.Duration) (domain.Shipment, bool, error) {
	shipment, err := s.orderRepo.FindShipment(ctx, orderID)
	if err == nil {
		return shipment, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Shipment{}, false, err
	}

	estimated := s.now().Add(eta)
	shipment = domain.Shipment{
		OrderID:           orderID,
		Status:            status,
		EstimatedDelivery: &estimated,
	}
	if err := s.orderRepo.SaveShipment(ctx, &shipment); err != nil {
		return domain.Shipment{}, false, err
	}
	return shipment, true, s.orderRepo.AddTracking(ctx, &domain.ShipmentTracking{
		ShipmentID:  shipment.ID,
		Status:      status,
		Description: "Shipment created",
	})
}

// UpdateStatus moves an order through its state machine on behalf of staff.
func (s *ordersService) UpdateStatus(ctx context.Context, orderID uint, next domain.OrderStatus, note string, actorID uint) (domain.Order, error) {
	if !next.Valid() {
		return domain.Order{}, ErrInvalidStatus
	}

	order, err := s.AdminGetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.Status.CanTransitionTo(next) {
		return domain.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, next)
	}
	if note == "" {
		note = fmt.Sprintf("Status changed from %s to %s", order.Status, next)
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.transition(ctx, &order, next, note, &actorID); err != nil {
			return err
		}

		now := s.now()
		switch next {
		case domain.OrderShipped:
			shipment, _, err := s.ensureShipment(ctx, order.ID, domain.ShipmentPickedUp, shippedDeliveryWindow)
			if err != nil {
				return err
			}
			if shipment.ShippedAt == nil {
				shipment.ShippedAt = &now
			}
			if shipment.Status.CanTransitionTo(domain.ShipmentPickedUp) {
				estimated := now.Add(shippedDeliveryWindow)
				shipment.Status = domain.ShipmentPickedUp
				shipment.EstimatedDelivery = &estimated
				if err := s.orderRepo.AddTracking(ctx, &domain.ShipmentTracking{
					ShipmentID:  shipment.ID,
					Status:      domain.ShipmentPickedUp,
					Description: "Order shipped",
				}); err != nil {
					return err
				}
			}
			return s.orderRepo.SaveShipment(ctx, &shipment)

		case domain.OrderDelivered:
			shipment, _, err := s.ensureShipment(ctx, order.ID, domain.ShipmentDelivered, 0)
			if err != nil {
				return err
			}
			if shipment.Status == domain.ShipmentDelivered && shipment.DeliveredAt != nil {
				return nil
			}
			shipment.Status = domain.ShipmentDelivered
			shipment.DeliveredAt = &now
			if err := s.orderRepo.SaveShipment(ctx, &shipment); err != nil {
				return err
			}
			return s.orderRepo.AddTracking(ctx, &domain.ShipmentTracking{
				ShipmentID:  shipment.ID,
				Status:      domain.ShipmentDelivered,
				Description: "Delivered",
			})

		case domain.OrderCancelled:
			return s.restoreStock(ctx, order.Items)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to update order status", err, "order_id", orderID)
		return domain.Order{}, err
	}

	s.publish(ctx, events.TopicOrderStatusChanged, order)
	return s.AdminGetOrder(ctx, orderID)
}

// UpdateShipment records carrier details and a tracking event. Delivering
// the shipment also delivers a shipped order.
func (s *ordersService) UpdateShipment(ctx context.Context, orderID uint, in ShipmentUpdate, actorID uint) (domain.Shipment, error) {
	if !in.Status.Valid() {
		return domain.Shipment{}, ErrInvalidStatus
	}

	order, err := s.AdminGetOrder(ctx, orderID)
	if err != nil {
		return domain.Shipment{}, err
	}

	var shipment domain.Shipment
	delivered := false
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		shipment, _, err = s.ensureShipment(ctx, order.ID, domain.ShipmentProcessing, processingDeliveryWindow)
		if err != nil {
			return err
		}

		if in.Status != shipment.Status {
			if !shipment.Status.CanTransitionTo(in.Status) {
				return fmt.Errorf("%w: shipment %s to %s", ErrInvalidTransition, shipment.Status, in.Status)
			}
			shipment.Status = in.Status
		}

		if in.Carrier != "" {
			shipment.Carrier = in.Carrier
		}
		if in.TrackingNumber != "" {
			shipment.TrackingNumber = in.TrackingNumber
		}
		if in.EstimatedDelivery != nil {
			shipment.EstimatedDelivery = in.EstimatedDelivery
		}

		now := s.now()
		if shipment.Status == domain.ShipmentPickedUp && shipment.ShippedAt == nil {
			shipment.ShippedAt = &now
		}
		if shipment.Status == domain.ShipmentDelivered && shipment.DeliveredAt == nil {
			shipment.DeliveredAt = &now
		}

		if err := s.orderRepo.SaveShipment(ctx, &shipment); err != nil {
			return err
		}

		description := in.Description
		if description == "" {
			description = "Status updated to " + strings.ToLower(strings.ReplaceAll(string(in.Status), "_", " "))
		}
		if err := s.orderRepo.AddTracking(ctx, &domain.ShipmentTracking{
			ShipmentID:  shipment.ID,
			Status:      shipment.Status,
			Location:    in.Location,
			Description: description,
		}); err != nil {
			return err
		}

		if shipment.Status == domain.ShipmentDelivered && order.Status == domain.OrderShipped {
			delivered = true
			return s.transition(ctx, &order, domain.OrderDelivered, "Order marked as delivered with its shipment", &actorID)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to update shipment", err, "order_id", orderID)
		return domain.Shipment{}, err
	}

	if delivered {
		s.publish(ctx, events.TopicOrderStatusChanged, order)
	}
	return s.orderRepo.FindShipment(ctx, order.ID)
}

// MarkPaid records a successful payment. Repeated calls are no-ops. Money
// that arrives for a cancelled or refunded order is sent back.
func (s *ordersService) MarkPaid(ctx context.Context, orderID uint) error {
	order, err := s.AdminGetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == domain.OrderCancelled || order.Status == domain.OrderRefunded {
		return s.refundLatePayment(ctx, order)
	}
	if order.PaymentStatus == domain.PaymentPaid {
		return nil
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentPaid); err != nil {
			return err
		}
		order.PaymentStatus = domain.PaymentPaid

		if order.Status.CanTransitionTo(domain.OrderProcessing) {
			if err := s.transition(ctx, &order, domain.OrderProcessing, "Order status updated to processing after payment received", nil); err != nil {
				return err
			}
		}

		_, _, err := s.ensureShipment(ctx, order.ID, domain.ShipmentProcessing, processingDeliveryWindow)
		return err
	})
	if err != nil {
		logger.Error("Failed to mark order paid", err, "order_id", orderID)
		return err
	}

	s.publish(ctx, events.TopicOrderStatusChanged, order)
	return nil
}

// refundLatePayment sends back a payment that landed on a closed order. No
// shipment is created and the order status is left alone. When the refund
// fails the order is marked paid so the money stays visible.
func (s *ordersService) refundLatePayment(ctx context.Context, order domain.Order) error {
	logger.Warn("Payment received for closed order", "order_id", order.ID, "status", string(order.Status))

	if s.refunder == nil {
		return fmt.Errorf("%w: cannot refund payment on %s order", domain.ErrInvalidState, order.Status)
	}
	reason := "payment received after order was " + strings.ToLower(string(order.Status))
	err := s.refunder.RefundOrder(ctx, order.ID, order.Total, reason)
	if err == nil {
		return nil
	}

	logger.Error("Refund of late payment failed", err, "order_id", order.ID)
	if perr := s.orderRepo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentPaid); perr != nil {
		logger.Error("Failed to record late payment", perr, "order_id", order.ID)
	}
	return err
}

func (s *ordersService) MarkPaymentFailed(ctx context.Context, orderID uint) error {
	order, err := s.AdminGetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.PaymentStatus == domain.PaymentPaid {
		return fmt.Errorf("%w: order is already paid", domain.ErrInvalidState)
	}
	return s.orderRepo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentFailed)
}

// SetPaymentStatus is used by refunds to record REFUNDED or
// PARTIALLY_REFUNDED on the order.
func (s *ordersService) SetPaymentStatus(ctx context.Context, orderID uint, status domain.PaymentStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.orderRepo.UpdatePaymentStatus(ctx, orderID, status)
}

// MarkRefunded moves a delivered or completed order to REFUNDED after a
// full return.
func (s *ordersService) MarkRefunded(ctx context.Context, orderID uint, note string, actorID uint) error {
	order, err := s.AdminGetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(domain.OrderRefunded) {
		return nil
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.transition(ctx, &order, domain.OrderRefunded, note, &actorID); err != nil {
			return err
		}
		order.PaymentStatus = domain.PaymentRefunded
		return s.orderRepo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentRefunded)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.TopicOrderStatusChanged, order)
	return nil
}
