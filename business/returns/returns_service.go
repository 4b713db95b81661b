package returns

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"abayaStore/domain"
	"abayaStore/internal/events"
	"abayaStore/pkg/logger"

	"github.com/shopspring/decimal"
)

type ReturnRepository interface {
	Create(ctx context.Context, ret *domain.Return) error
	FindByID(ctx context.Context, id uint) (domain.Return, error)
	FindByOrder(ctx context.Context, orderID uint) ([]domain.Return, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, filter domain.ReturnFilter) ([]domain.Return, int64, error)
	Update(ctx context.Context, ret *domain.Return) error
}

// OrderService is the part of the orders service returns depend on.
type OrderService interface {
	AdminGetOrder(ctx context.Context, id uint) (domain.Order, error)
	MarkRefunded(ctx context.Context, orderID uint, note string, actorID uint) error
}

type StockRepository interface {
	IncrementStock(ctx context.Context, productID uint, n int) error
	DecrementStock(ctx context.Context, productID uint, n int) (bool, error)
}

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
	ErrReturnNotFound     = fmt.Errorf("return %w", domain.ErrNotFound)
	ErrOrderNotReturnable = fmt.Errorf("%w: only delivered or completed orders can be returned", domain.ErrInvalidState)
	ErrReturnExists       = fmt.Errorf("%w: a return already exists for this order", domain.ErrConflict)
	ErrUnknownOrderItem   = fmt.Errorf("%w: item does not belong to this order", domain.ErrInvalidInput)
	ErrInvalidQuantity    = fmt.Errorf("%w: return quantity must be between 1 and the purchased quantity", domain.ErrInvalidInput)
	ErrDuplicateItem      = fmt.Errorf("%w: item listed more than once", domain.ErrInvalidInput)
	ErrInvalidStatus      = fmt.Errorf("%w: unknown return status", domain.ErrInvalidInput)
	ErrInvalidTransition  = fmt.Errorf("%w: return status transition not allowed", domain.ErrInvalidState)
	ErrNotCancellable     = fmt.Errorf("%w: only requested returns can be cancelled", domain.ErrInvalidState)
	ErrRestockSold        = fmt.Errorf("%w: restocked goods have already been sold", domain.ErrConflict)
)

const codRefundNote = "Cash on delivery order: refund paid offline"

const returnNumberAttempts = 5

type ItemRequest struct {
	OrderItemID uint   `json:"order_item_id" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
	Reason      string `json:"reason" validate:"max=500"`
}

type ReturnRequest struct {
	OrderID uint          `json:"order_id" validate:"required"`
	Reason  string        `json:"reason" validate:"required,max=2000"`
	Items   []ItemRequest `json:"items" validate:"dive"`
}

type returnsService struct {
	repo      ReturnRepository
	orders    OrderService
	stock     StockRepository
	refunder  Refunder
	publisher Publisher
	tx        Transactor
	now       func() time.Time
}

func NewReturnsService(
	repo ReturnRepository,
	orders OrderService,
	stock StockRepository,
	refunder Refunder,
	publisher Publisher,
	tx Transactor,
) *returnsService {
	return &returnsService{
		repo:      repo,
		orders:    orders,
		stock:     stock,
		refunder:  refunder,
		publisher: publisher,
		tx:        tx,
		now:       time.Now,
	}
}

func (s *returnsService) publish(ctx context.Context, ret domain.Return, order domain.Order) {
	if s.publisher == nil {
		return
	}
	ev := events.Event{
		OrderID:      ret.OrderID,
		OrderNumber:  order.OrderNumber,
		UserID:       ret.UserID,
		ReturnID:     ret.ID,
		ReturnNumber: ret.ReturnNumber,
		Status:       string(ret.Status),
		Amount:       ret.RefundAmount,
		Currency:     order.CurrencyCode,
	}
	if err := s.publisher.Publish(ctx, events.TopicReturnUpdated, ev); err != nil {
		logger.Error("Failed to publish return event", err, "return_id", ret.ID)
	}
}

func (s *returnsService) newReturnNumber(ctx context.Context) (string, error) {
	prefix := "R" + s.now().Format("200601")
	for i := 0; i < returnNumberAttempts; i++ {
		number := fmt.Sprintf("%s-%06d", prefix, rand.IntN(1000000))
		exists, err := s.repo.NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a return number", domain.ErrConflict)
}

// buildItems checks the requested lines against the order. An empty request
// returns every line in full.
func buildItems(order domain.Order, req []ItemRequest) ([]domain.ReturnItem, decimal.Decimal, bool, error) {
	byID := make(map[uint]domain.OrderItem, len(order.Items))
	for _, it := range order.Items {
		byID[it.ID] = it
	}

	if len(req) == 0 {
		items := make([]domain.ReturnItem, 0, len(order.Items))
		for _, it := range order.Items {
			items = append(items, domain.ReturnItem{OrderItemID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity})
		}
		return items, order.Total, true, nil
	}

	seen := make(map[uint]bool, len(req))
	items := make([]domain.ReturnItem, 0, len(req))
	amount := decimal.Zero
	full := len(req) == len(order.Items)
	for _, r := range req {
		oi, ok := byID[r.OrderItemID]
		if !ok {
			return nil, decimal.Zero, false, ErrUnknownOrderItem
		}
		if seen[r.OrderItemID] {
			return nil, decimal.Zero, false, ErrDuplicateItem
		}
		seen[r.OrderItemID] = true
		if r.Quantity <= 0 || r.Quantity > oi.Quantity {
			return nil, decimal.Zero, false, ErrInvalidQuantity
		}
		if r.Quantity != oi.Quantity {
			full = false
		}

		items = append(items, domain.ReturnItem{
			OrderItemID: oi.ID,
			ProductID:   oi.ProductID,
			Quantity:    r.Quantity,
			Reason:      strings.TrimSpace(r.Reason),
		})
		amount = amount.Add(oi.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity))))
	}

	if full {
		return items, order.Total, true, nil
	}
	return items, domain.Round2(amount), false, nil
}

func (s *returnsService) RequestReturn(ctx context.Context, userID uint, in ReturnRequest) (domain.Return, error) {
	order, err := s.orders.AdminGetOrder(ctx, in.OrderID)
	if err != nil {
		return domain.Return{}, err
	}
	if order.UserID != userID {
		return domain.Return{}, fmt.Errorf("order %w", domain.ErrNotFound)
	}
	if !order.Status.IsReturnable() {
		return domain.Return{}, ErrOrderNotReturnable
	}

	items, amount, full, err := buildItems(order, in.Items)
	if err != nil {
		return domain.Return{}, err
	}

	var ret domain.Return
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		for _, r := range existing {
			if r.BlocksNewReturn() {
				return ErrReturnExists
			}
		}

		number, err := s.newReturnNumber(ctx)
		if err != nil {
			return err
		}

		ret = domain.Return{
			ReturnNumber: number,
			OrderID:      order.ID,
			UserID:       userID,
			Reason:       strings.TrimSpace(in.Reason),
			Status:       domain.ReturnRequested,
			RefundStatus: domain.RefundPending,
			RefundAmount: amount,
			FullOrder:    full,
			Items:        items,
		}
		return s.repo.Create(ctx, &ret)
	})
	if err != nil {
		logger.Warn("Return request rejected", "order_id", in.OrderID, "user_id", userID, "error", err.Error())
		return domain.Return{}, err
	}

	logger.Info("Return requested", "return_number", ret.ReturnNumber, "order_id", order.ID)
	s.publish(ctx, ret, order)
	return ret, nil
}

func (s *returnsService) ListReturns(ctx context.Context, userID uint, page domain.Page) (domain.PageResult[domain.Return], error) {
	return s.AdminListReturns(ctx, domain.ReturnFilter{UserID: userID, Page: page})
}

func (s *returnsService) GetReturn(ctx context.Context, userID, id uint) (domain.Return, error) {
	ret, err := s.AdminGetReturn(ctx, id)
	if err != nil {
		return domain.Return{}, err
	}
	if ret.UserID != userID {
		return domain.Return{}, ErrReturnNotFound
	}
	return ret, nil
}

func (s *returnsService) CancelReturn(ctx context.Context, userID, id uint) (domain.Return, error) {
	ret, err := s.GetReturn(ctx, userID, id)
	if err != nil {
		return domain.Return{}, err
	}
	if ret.Status != domain.ReturnRequested {
		return domain.Return{}, ErrNotCancellable
	}

	ret.Status = domain.ReturnCancelled
	ret.RefundStatus = domain.RefundCancelled
	if err := s.repo.Update(ctx, &ret); err != nil {
		logger.Error("Failed to cancel return", err, "return_id", id)
		return domain.Return{}, err
	}

	if order, err := s.orders.AdminGetOrder(ctx, ret.OrderID); err == nil {
		s.publish(ctx, ret, order)
	}
	return ret, nil
}

func (s *returnsService) AdminListReturns(ctx context.Context, filter domain.ReturnFilter) (domain.PageResult[domain.Return], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.PageResult[domain.Return]{}, ErrInvalidStatus
	}
	filter.Page = filter.Page.Normalize()

	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		logger.Error("Failed to list returns", err)
		return domain.PageResult[domain.Return]{}, err
	}
	return domain.NewPageResult(list, total, filter.Page), nil
}

func (s *returnsService) AdminGetReturn(ctx context.Context, id uint) (domain.Return, error) {
	ret, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Return{}, ErrReturnNotFound
	}
	return ret, err
}

// UpdateReturnStatus moves a return through its state machine. Receiving the
// goods restocks them and rejecting received goods takes the stock back out.
// Completing the return refunds the customer.
func (s *returnsService) UpdateReturnStatus(ctx context.Context, id uint, next domain.ReturnStatus, notes string, actorID uint) (domain.Return, error) {
	if !next.Valid() {
		return domain.Return{}, ErrInvalidStatus
	}

	ret, err := s.AdminGetReturn(ctx, id)
	if err != nil {
		return domain.Return{}, err
	}
	if !ret.Status.CanTransitionTo(next) {
		return domain.Return{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, ret.Status, next)
	}

	order, err := s.orders.AdminGetOrder(ctx, ret.OrderID)
	if err != nil {
		return domain.Return{}, err
	}

	if notes = strings.TrimSpace(notes); notes != "" {
		ret.AdminNotes = notes
	}
	prev := ret.Status
	ret.Status = next

	switch next {
	case domain.ReturnRejected:
		ret.RefundStatus = domain.RefundCancelled
	case domain.ReturnCancelled:
		ret.RefundStatus = domain.RefundCancelled
	case domain.ReturnCompleted:
		ret.RefundStatus = domain.RefundProcessing
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		switch {
		case next == domain.ReturnReceived:
			for _, item := range ret.Items {
				if err := s.stock.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		case next == domain.ReturnRejected && prev == domain.ReturnReceived:
			// the goods go back to the customer
			for _, item := range ret.Items {
				ok, err := s.stock.DecrementStock(ctx, item.ProductID, item.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: product %d", ErrRestockSold, item.ProductID)
				}
			}
		}
		return s.repo.Update(ctx, &ret)
	})
	if err != nil {
		logger.Error("Failed to update return status", err, "return_id", id)
		return domain.Return{}, err
	}

	if next == domain.ReturnCompleted {
		s.complete(ctx, &ret, order, actorID)
	}

	logger.Info("Return status updated", "return_number", ret.ReturnNumber, "status", string(ret.Status), "actor_id", actorID)
	s.publish(ctx, ret, order)
	return ret, nil
}

// complete refunds a completed return. A failed refund leaves the return
// COMPLETED with refund_status FAILED for staff to retry by hand. Cash on
// delivery orders have no gateway payment, so the refund is settled offline
// and only recorded here.
func (s *returnsService) complete(ctx context.Context, ret *domain.Return, order domain.Order, actorID uint) {
	ret.RefundStatus = domain.RefundCompleted
	if order.PaymentMethod == domain.MethodCOD {
		ret.AdminNotes = strings.TrimSpace(ret.AdminNotes + "\n" + codRefundNote)
		logger.Info("Cash on delivery return settled offline", "return_id", ret.ID, "amount", ret.RefundAmount.StringFixed(2))
	} else if s.refunder != nil && ret.RefundAmount.IsPositive() {
		if err := s.refunder.RefundOrder(ctx, ret.OrderID, ret.RefundAmount, "return "+ret.ReturnNumber); err != nil {
			logger.Error("Refund for return failed", err, "return_id", ret.ID)
			ret.RefundStatus = domain.RefundFailed
		}
	}

	if err := s.repo.Update(ctx, ret); err != nil {
		logger.Error("Failed to record refund status", err, "return_id", ret.ID)
	}

	if ret.FullOrder && ret.RefundStatus == domain.RefundCompleted {
		note := fmt.Sprintf("Refunded through return %s", ret.ReturnNumber)
		if err := s.orders.MarkRefunded(ctx, ret.OrderID, note, actorID); err != nil {
			logger.Error("Failed to mark order refunded", err, "order_id", ret.OrderID)
		}
	}
}
