package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"abayaStore/domain"
	"abayaStore/internal/events"
	"abayaStore/pkg/logger"
	"abayaStore/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentsRepository interface {
	CreatePayment(ctx context.Context, p *domain.Payment) error
	UpdatePayment(ctx context.Context, p *domain.Payment) error
	FindPayment(ctx context.Context, id uint) (domain.Payment, error)
	ListPayments(ctx context.Context, userID uint, page domain.Page) ([]domain.Payment, int64, error)

	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	FindTransaction(ctx context.Context, id uint) (domain.Transaction, error)
	// FindTransactionByReference matches a gateway order or transaction id.
	FindTransactionByReference(ctx context.Context, gateway, ref string) (domain.Transaction, error)
	// LatestTransaction returns the newest PAYMENT transaction of an order,
	// optionally limited to a gateway and a set of statuses.
	LatestTransaction(ctx context.Context, orderID uint, gateway string, statuses ...domain.TransactionStatus) (domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error)

	CreateRefund(ctx context.Context, r *domain.Refund) error
	RefundExists(ctx context.Context, gatewayRefundID string) (bool, error)

	// SaveWebhookEvent inserts the event unless (gateway, event_id) exists,
	// and reports whether it inserted.
	SaveWebhookEvent(ctx context.Context, ev *domain.WebhookEvent) (bool, error)
	FindWebhookEvent(ctx context.Context, gateway, eventID string) (domain.WebhookEvent, error)
	UpdateWebhookEvent(ctx context.Context, ev *domain.WebhookEvent) error
}

// OrderService is the part of the orders service payments drive.
type OrderService interface {
	GetOrder(ctx context.Context, userID uint, ref string) (domain.Order, error)
	AdminGetOrder(ctx context.Context, id uint) (domain.Order, error)
	AdminFindOrder(ctx context.Context, ref string) (domain.Order, error)
	MarkPaid(ctx context.Context, orderID uint) error
	MarkPaymentFailed(ctx context.Context, orderID uint) error
	SetPaymentStatus(ctx context.Context, orderID uint, status domain.PaymentStatus) error
}

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, ev events.Event) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

var (
	ErrTransactionNotFound  = fmt.Errorf("transaction %w", domain.ErrNotFound)
	ErrAlreadyPaid          = fmt.Errorf("%w: order is already paid", domain.ErrInvalidState)
	ErrOrderNotPayable      = fmt.Errorf("%w: order can no longer be paid", domain.ErrInvalidState)
	ErrCashOnDelivery       = fmt.Errorf("%w: cash on delivery orders are paid on delivery", domain.ErrInvalidInput)
	ErrInvalidTransition    = fmt.Errorf("%w: transaction status transition not allowed", domain.ErrInvalidState)
	ErrInvalidRefundAmount  = fmt.Errorf("%w: refund amount must be positive", domain.ErrInvalidInput)
	ErrRefundExceedsPayment = fmt.Errorf("%w: refund exceeds the refundable amount", domain.ErrInvalidInput)
	ErrPaymentSignature     = fmt.Errorf("%w: payment signature mismatch", domain.ErrInvalidInput)
)

type InitiateInput struct {
	OrderID uint   `json:"order_id" validate:"required"`
	Gateway string `json:"gateway" validate:"omitempty,oneof=stripe razorpay xendit"`
}

type InitiateResult struct {
	Payment     domain.Payment       `json:"payment"`
	Transaction domain.Transaction   `json:"transaction"`
	Intent      domain.PaymentIntent `json:"intent"`
}

type RazorpayVerifyInput struct {
	OrderID           uint   `json:"order_id" validate:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature         string `json:"razorpay_signature" validate:"required"`
}

type paymentsService struct {
	repo      PaymentsRepository
	orders    OrderService
	users     UserFinder
	gateways  *Registry
	publisher Publisher
	tx        Transactor
	now       func() time.Time
}

func NewPaymentsService(
	repo PaymentsRepository,
	orders OrderService,
	users UserFinder,
	gateways *Registry,
	publisher Publisher,
	tx Transactor,
) *paymentsService {
	return &paymentsService{
		repo:      repo,
		orders:    orders,
		users:     users,
		gateways:  gateways,
		publisher: publisher,
		tx:        tx,
		now:       time.Now,
	}
}

func (s *paymentsService) publish(ctx context.Context, topic string, order domain.Order, tx domain.Transaction) {
	if s.publisher == nil {
		return
	}
	ev := events.Event{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      string(tx.Status),
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Gateway:     tx.Gateway,
	}
	if err := s.publisher.Publish(ctx, topic, ev); err != nil {
		logger.Error("Failed to publish payment event", err, "topic", topic, "transaction_id", tx.ID)
	}
}

// InitiatePayment starts a gateway payment for an order awaiting payment.
func (s *paymentsService) InitiatePayment(ctx context.Context, userID uint, in InitiateInput) (InitiateResult, error) {
	order, err := s.orders.GetOrder(ctx, userID, strconv.FormatUint(uint64(in.OrderID), 10))
	if err != nil {
		return InitiateResult{}, err
	}
	switch {
	case order.PaymentMethod == domain.MethodCOD:
		return InitiateResult{}, ErrCashOnDelivery
	case order.PaymentStatus != domain.PaymentPending && order.PaymentStatus != domain.PaymentFailed:
		return InitiateResult{}, ErrAlreadyPaid
	case order.Status == domain.OrderCancelled || order.Status == domain.OrderRefunded:
		return InitiateResult{}, ErrOrderNotPayable
	}

	gw, err := s.gateways.Get(in.Gateway)
	if err != nil {
		return InitiateResult{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return InitiateResult{}, err
	}

	payment := domain.Payment{
		OrderID:  order.ID,
		UserID:   userID,
		Gateway:  gw.Name(),
		Method:   order.PaymentMethod,
		Amount:   order.Total,
		Currency: order.CurrencyCode,
		Status:   domain.PaymentPending,
	}
	var txn domain.Transaction
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreatePayment(ctx, &payment); err != nil {
			return err
		}
		txn = domain.Transaction{
			PaymentID: payment.ID,
			OrderID:   order.ID,
			Gateway:   gw.Name(),
			Type:      domain.TxTypePayment,
			Amount:    order.Total,
			Currency:  order.CurrencyCode,
			Status:    domain.TxInitiated,
		}
		return s.repo.CreateTransaction(ctx, &txn)
	})
	if err != nil {
		logger.Error("Failed to record payment", err, "order_id", order.ID)
		return InitiateResult{}, err
	}

	intent, err := gw.CreatePayment(ctx, domain.PaymentRequest{
		PaymentID:      payment.ID,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Amount:         order.Total,
		Currency:       order.CurrencyCode,
		CustomerName:   user.FullName,
		CustomerEmail:  user.Email,
		Description:    "Order " + order.OrderNumber,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		logger.Error("Gateway rejected payment", err, "gateway", gw.Name(), "order_id", order.ID)
		metrics.PaymentsTotal.WithLabelValues(gw.Name(), string(domain.TxFailed)).Inc()

		txn.Status = domain.TxFailed
		txn.ErrorMessage = err.Error()
		payment.Status = domain.PaymentFailed
		if uerr := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.UpdateTransaction(ctx, &txn); err != nil {
				return err
			}
			return s.repo.UpdatePayment(ctx, &payment)
		}); uerr != nil {
			logger.Error("Failed to record failed payment", uerr, "transaction_id", txn.ID)
		}
		return InitiateResult{}, fmt.Errorf("%s payment could not be started: %w", gw.Name(), err)
	}

	txn.GatewayOrderID = intent.GatewayOrderID
	txn.GatewayResponse = datatypes.JSON(intent.Raw)
	txn.Status = domain.TxProcessing
	payment.GatewayPaymentID = intent.GatewayOrderID
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateTransaction(ctx, &txn); err != nil {
			return err
		}
		return s.repo.UpdatePayment(ctx, &payment)
	})
	if err != nil {
		logger.Error("Failed to store gateway reference", err, "transaction_id", txn.ID)
		return InitiateResult{}, err
	}

	metrics.PaymentsTotal.WithLabelValues(gw.Name(), string(domain.TxProcessing)).Inc()
	logger.Info("Payment initiated", "gateway", gw.Name(), "order_id", order.ID, "transaction_id", txn.ID)
	return InitiateResult{Payment: payment, Transaction: txn, Intent: intent}, nil
}

// VerifyRazorpayPayment completes a Razorpay checkout from the signed result
// the browser posts back.
func (s *paymentsService) VerifyRazorpayPayment(ctx context.Context, userID uint, in RazorpayVerifyInput) (domain.Transaction, error) {
	gw, err := s.gateways.Get(domain.GatewayRazorpay)
	if err != nil {
		return domain.Transaction{}, err
	}
	verifier, ok := gw.(SignatureVerifier)
	if !ok {
		return domain.Transaction{}, ErrUnsupportedGateway
	}

	order, err := s.orders.GetOrder(ctx, userID, strconv.FormatUint(uint64(in.OrderID), 10))
	if err != nil {
		return domain.Transaction{}, err
	}

	txn, err := s.repo.FindTransactionByReference(ctx, domain.GatewayRazorpay, in.RazorpayOrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Transaction{}, ErrTransactionNotFound
		}
		return domain.Transaction{}, err
	}
	if txn.OrderID != order.ID {
		return domain.Transaction{}, ErrTransactionNotFound
	}

	if !verifier.VerifyPaymentSignature(in.RazorpayOrderID, in.RazorpayPaymentID, in.Signature) {
		logger.Warn("Razorpay payment signature mismatch", "order_id", order.ID, "transaction_id", txn.ID)
		return domain.Transaction{}, ErrPaymentSignature
	}

	if err := s.complete(ctx, &txn, in.RazorpayPaymentID, nil); err != nil {
		return domain.Transaction{}, err
	}
	return txn, nil
}

// complete marks a transaction and its payment successful and the order
// paid. It is safe to call again for an already completed transaction.
func (s *paymentsService) complete(ctx context.Context, txn *domain.Transaction, gatewayPaymentID string, raw []byte) error {
	if txn.Status != domain.TxCompleted {
		if !txn.Status.CanTransitionTo(domain.TxCompleted) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, txn.Status, domain.TxCompleted)
		}

		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			txn.Status = domain.TxCompleted
			txn.ErrorMessage = ""
			if gatewayPaymentID != "" {
				txn.GatewayTransactionID = gatewayPaymentID
			}
			if len(raw) > 0 {
				txn.GatewayResponse = datatypes.JSON(raw)
			}
			if err := s.repo.UpdateTransaction(ctx, txn); err != nil {
				return err
			}
			return s.setPaymentStatus(ctx, txn.PaymentID, domain.PaymentPaid, gatewayPaymentID)
		})
		if err != nil {
			return err
		}
		metrics.PaymentsTotal.WithLabelValues(txn.Gateway, string(domain.TxCompleted)).Inc()
	}

	if err := s.orders.MarkPaid(ctx, txn.OrderID); err != nil {
		logger.Error("Failed to mark order paid", err, "order_id", txn.OrderID)
		return err
	}

	if order, err := s.orders.AdminGetOrder(ctx, txn.OrderID); err == nil {
		s.publish(ctx, events.TopicPaymentCompleted, order, *txn)
	}
	logger.Info("Payment completed", "gateway", txn.Gateway, "order_id", txn.OrderID, "transaction_id", txn.ID)
	return nil
}

func (s *paymentsService) fail(ctx context.Context, txn *domain.Transaction, message string) error {
	if txn.Status == domain.TxFailed {
		return nil
	}
	if !txn.Status.CanTransitionTo(domain.TxFailed) {
		logger.Warn("Ignoring failure for settled transaction", "transaction_id", txn.ID, "status", string(txn.Status))
		return nil
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		txn.Status = domain.TxFailed
		txn.ErrorMessage = message
		if err := s.repo.UpdateTransaction(ctx, txn); err != nil {
			return err
		}
		return s.setPaymentStatus(ctx, txn.PaymentID, domain.PaymentFailed, "")
	})
	if err != nil {
		return err
	}

	if err := s.orders.MarkPaymentFailed(ctx, txn.OrderID); err != nil {
		logger.Warn("Order payment status left unchanged", "order_id", txn.OrderID, "error", err.Error())
	}

	metrics.PaymentsTotal.WithLabelValues(txn.Gateway, string(domain.TxFailed)).Inc()
	if order, err := s.orders.AdminGetOrder(ctx, txn.OrderID); err == nil {
		s.publish(ctx, events.TopicPaymentFailed, order, *txn)
	}
	return nil
}

func (s *paymentsService) setPaymentStatus(ctx context.Context, paymentID uint, status domain.PaymentStatus, gatewayPaymentID string) error {
	payment, err := s.repo.FindPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	payment.Status = status
	if gatewayPaymentID != "" {
		payment.GatewayPaymentID = gatewayPaymentID
	}
	return s.repo.UpdatePayment(ctx, &payment)
}

// resolveTransaction finds the payment transaction a webhook talks about,
// falling back to the order named in the event metadata.
func (s *paymentsService) resolveTransaction(ctx context.Context, gateway string, ev domain.GatewayEvent) (domain.Transaction, error) {
	if ev.Reference != "" {
		txn, err := s.repo.FindTransactionByReference(ctx, gateway, ev.Reference)
		if err == nil {
			return txn, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Transaction{}, err
		}
	}
	if ev.OrderRef == "" {
		return domain.Transaction{}, ErrTransactionNotFound
	}

	order, err := s.orders.AdminFindOrder(ctx, ev.OrderRef)
	if err != nil {
		return domain.Transaction{}, err
	}
	txn, err := s.repo.LatestTransaction(ctx, order.ID, gateway)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Transaction{}, ErrTransactionNotFound
	}
	return txn, err
}

// HandleWebhook verifies, records and applies a gateway callback. Each
// (gateway, event id) pair is applied at most once.
func (s *paymentsService) HandleWebhook(ctx context.Context, gateway string, headers http.Header, body []byte) error {
	if gateway == "" {
		return ErrUnsupportedGateway
	}
	gw, err := s.gateways.Get(gateway)
	if err != nil {
		return err
	}
	name := gw.Name()

	if err := gw.VerifyWebhook(headers, body); err != nil {
		metrics.WebhookEvents.WithLabelValues(name, "invalid_signature").Inc()
		logger.Warn("Rejected webhook with a bad signature", "gateway", name)
		if errors.Is(err, domain.ErrInvalidSignature) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	ev, err := gw.ParseWebhook(body)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(name, "invalid_payload").Inc()
		return err
	}

	record := domain.WebhookEvent{
		Gateway:   name,
		EventID:   ev.ID,
		EventType: ev.Type,
		Payload:   datatypes.JSON(body),
	}
	inserted, err := s.repo.SaveWebhookEvent(ctx, &record)
	if err != nil {
		return err
	}
	if !inserted {
		record, err = s.repo.FindWebhookEvent(ctx, name, ev.ID)
		if err != nil {
			return err
		}
		if record.Processed {
			metrics.WebhookEvents.WithLabelValues(name, "duplicate").Inc()
			logger.Info("Skipping already processed webhook", "gateway", name, "event_id", ev.ID)
			return nil
		}
	}

	procErr := s.apply(ctx, name, ev, body)

	if procErr != nil {
		record.ErrorMessage = procErr.Error()
		metrics.WebhookEvents.WithLabelValues(name, "error").Inc()
		logger.Error("Webhook processing failed", procErr, "gateway", name, "event_id", ev.ID, "type", ev.Type)
	} else {
		processedAt := s.now()
		record.Processed = true
		record.ProcessedAt = &processedAt
		record.ErrorMessage = ""
		metrics.WebhookEvents.WithLabelValues(name, "processed").Inc()
	}
	if err := s.repo.UpdateWebhookEvent(ctx, &record); err != nil {
		logger.Error("Failed to update webhook event", err, "webhook_event_id", record.ID)
	}
	return procErr
}

func (s *paymentsService) apply(ctx context.Context, gateway string, ev domain.GatewayEvent, body []byte) error {
	if ev.Kind == domain.EventIgnored {
		return nil
	}

	txn, err := s.resolveTransaction(ctx, gateway, ev)
	if err != nil {
		return err
	}

	switch ev.Kind {
	case domain.EventPaymentSucceeded:
		return s.complete(ctx, &txn, ev.PaymentID, body)
	case domain.EventPaymentFailed:
		return s.fail(ctx, &txn, ev.Message)
	case domain.EventRefunded:
		if ev.RefundID != "" {
			exists, err := s.repo.RefundExists(ctx, ev.RefundID)
			if err != nil {
				return err
			}
			if exists {
				return nil
			}
		}
		amount := ev.Amount
		if ev.Cumulative {
			amount = amount.Sub(txn.RefundedAmount)
		}
		if !amount.IsPositive() {
			return nil
		}
		if amount.GreaterThan(txn.Refundable()) {
			amount = txn.Refundable()
		}
		return s.recordRefund(ctx, &txn, amount, "refund reported by "+gateway, domain.RefundResult{
			GatewayRefundID: ev.RefundID,
			Status:          domain.RefundCompleted,
			Raw:             body,
		})
	}
	return nil
}

// RefundOrder refunds amount of an order's completed payment through its
// gateway. Orders without a completed gateway payment are left alone.
func (s *paymentsService) RefundOrder(ctx context.Context, orderID uint, amount decimal.Decimal, reason string) error {
	if !amount.IsPositive() {
		return ErrInvalidRefundAmount
	}

	txn, err := s.repo.LatestTransaction(ctx, orderID, "", domain.TxCompleted, domain.TxPartiallyRefunded)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Info("No gateway payment to refund", "order_id", orderID)
		return nil
	}
	if err != nil {
		return err
	}
	if amount.GreaterThan(txn.Refundable()) {
		return fmt.Errorf("%w: %s left", ErrRefundExceedsPayment, txn.Refundable().StringFixed(2))
	}

	gw, err := s.gateways.Get(txn.Gateway)
	if err != nil {
		return err
	}

	result, err := gw.Refund(ctx, domain.RefundRequest{
		GatewayTransactionID: txn.GatewayTransactionID,
		GatewayOrderID:       txn.GatewayOrderID,
		Amount:               amount,
		Currency:             txn.Currency,
		Reason:               reason,
		IdempotencyKey:       uuid.NewString(),
	})
	if err != nil {
		logger.Error("Gateway refund failed", err, "gateway", gw.Name(), "order_id", orderID)
		return fmt.Errorf("refund through %s failed: %w", gw.Name(), err)
	}
	if result.Status == domain.RefundFailed {
		return fmt.Errorf("refund through %s was declined", gw.Name())
	}

	return s.recordRefund(ctx, &txn, amount, reason, result)
}

// recordRefund stores a refund against a payment transaction and moves the
// transaction, payment and order to (partially) refunded.
func (s *paymentsService) recordRefund(ctx context.Context, txn *domain.Transaction, amount decimal.Decimal, reason string, result domain.RefundResult) error {
	refunded := txn.RefundedAmount.Add(amount)
	next := domain.TxPartiallyRefunded
	paymentStatus := domain.PaymentPartiallyRefunded
	if refunded.GreaterThanOrEqual(txn.Amount) {
		next = domain.TxRefunded
		paymentStatus = domain.PaymentRefunded
	}
	if !txn.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, txn.Status, next)
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		refundTx := domain.Transaction{
			PaymentID:            txn.PaymentID,
			OrderID:              txn.OrderID,
			ParentID:             &txn.ID,
			Gateway:              txn.Gateway,
			Type:                 domain.TxTypeRefund,
			GatewayTransactionID: result.GatewayRefundID,
			Amount:               amount,
			Currency:             txn.Currency,
			Status:               domain.TxCompleted,
			GatewayResponse:      datatypes.JSON(result.Raw),
		}
		if err := s.repo.CreateTransaction(ctx, &refundTx); err != nil {
			return err
		}

		status := result.Status
		if status == "" {
			status = domain.RefundCompleted
		}
		if err := s.repo.CreateRefund(ctx, &domain.Refund{
			TransactionID:   txn.ID,
			OrderID:         txn.OrderID,
			Amount:          amount,
			Reason:          reason,
			Status:          status,
			GatewayRefundID: result.GatewayRefundID,
		}); err != nil {
			return err
		}

		txn.RefundedAmount = refunded
		txn.Status = next
		if err := s.repo.UpdateTransaction(ctx, txn); err != nil {
			return err
		}
		if err := s.setPaymentStatus(ctx, txn.PaymentID, paymentStatus, ""); err != nil {
			return err
		}
		return s.orders.SetPaymentStatus(ctx, txn.OrderID, paymentStatus)
	})
	if err != nil {
		logger.Error("Failed to record refund", err, "transaction_id", txn.ID)
		return err
	}

	metrics.PaymentsTotal.WithLabelValues(txn.Gateway, string(next)).Inc()
	logger.Info("Refund recorded", "order_id", txn.OrderID, "amount", amount.StringFixed(2), "status", string(next))
	return nil
}

func (s *paymentsService) ListPayments(ctx context.Context, userID uint, page domain.Page) (domain.PageResult[domain.Payment], error) {
	page = page.Normalize()
	list, total, err := s.repo.ListPayments(ctx, userID, page)
	if err != nil {
		logger.Error("Failed to list payments", err, "user_id", userID)
		return domain.PageResult[domain.Payment]{}, err
	}
	return domain.NewPageResult(list, total, page), nil
}

// GetTransaction returns a transaction on one of the user's orders.
func (s *paymentsService) GetTransaction(ctx context.Context, userID, id uint) (domain.Transaction, error) {
	txn, err := s.AdminGetTransaction(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	order, err := s.orders.AdminGetOrder(ctx, txn.OrderID)
	if err != nil || order.UserID != userID {
		return domain.Transaction{}, ErrTransactionNotFound
	}
	return txn, nil
}

func (s *paymentsService) AdminGetTransaction(ctx context.Context, id uint) (domain.Transaction, error) {
	txn, err := s.repo.FindTransaction(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Transaction{}, ErrTransactionNotFound
	}
	return txn, err
}

func (s *paymentsService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) (domain.PageResult[domain.Transaction], error) {
	filter.Page = filter.Page.Normalize()
	list, total, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		logger.Error("Failed to list transactions", err)
		return domain.PageResult[domain.Transaction]{}, err
	}
	return domain.NewPageResult(list, total, filter.Page), nil
}
