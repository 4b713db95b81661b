package domain

type (
	OrderStatus       string
	PaymentStatus     string
	ShipmentStatus    string
	ReturnStatus      string
	RefundStatus      string
	TransactionStatus string
	TransactionType   string
	PaymentMethodType string
)

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderRefunded   OrderStatus = "REFUNDED"
	OrderOnHold     OrderStatus = "ON_HOLD"
	OrderCompleted  OrderStatus = "COMPLETED"
)

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

const (
	ShipmentProcessing     ShipmentStatus = "PROCESSING"
	ShipmentReadyForPickup ShipmentStatus = "READY_FOR_PICKUP"
	ShipmentPickedUp       ShipmentStatus = "PICKED_UP"
	ShipmentInTransit      ShipmentStatus = "IN_TRANSIT"
	ShipmentOutForDelivery ShipmentStatus = "OUT_FOR_DELIVERY"
	ShipmentDelivered      ShipmentStatus = "DELIVERED"
	ShipmentFailedDelivery ShipmentStatus = "FAILED_DELIVERY"
	ShipmentReturned       ShipmentStatus = "RETURNED"
)

const (
	ReturnRequested ReturnStatus = "REQUESTED"
	ReturnApproved  ReturnStatus = "APPROVED"
	ReturnReceived  ReturnStatus = "RECEIVED"
	ReturnRejected  ReturnStatus = "REJECTED"
	ReturnCompleted ReturnStatus = "COMPLETED"
	ReturnCancelled ReturnStatus = "CANCELLED"
)

const (
	RefundPending    RefundStatus = "PENDING"
	RefundProcessing RefundStatus = "PROCESSING"
	RefundCompleted  RefundStatus = "COMPLETED"
	RefundFailed     RefundStatus = "FAILED"
	RefundCancelled  RefundStatus = "CANCELLED"
)

const (
	TxInitiated         TransactionStatus = "INITIATED"
	TxProcessing        TransactionStatus = "PROCESSING"
	TxCompleted         TransactionStatus = "COMPLETED"
	TxFailed            TransactionStatus = "FAILED"
	TxRefunded          TransactionStatus = "REFUNDED"
	TxPartiallyRefunded TransactionStatus = "PARTIALLY_REFUNDED"
	TxCancelled         TransactionStatus = "CANCELLED"
)

const (
	TxTypePayment TransactionType = "PAYMENT"
	TxTypeRefund  TransactionType = "REFUND"
)

const (
	MethodCreditCard   PaymentMethodType = "CREDIT_CARD"
	MethodDebitCard    PaymentMethodType = "DEBIT_CARD"
	MethodUPI          PaymentMethodType = "UPI"
	MethodNetBanking   PaymentMethodType = "NET_BANKING"
	MethodWallet       PaymentMethodType = "WALLET"
	MethodCOD          PaymentMethodType = "COD"
	MethodBankTransfer PaymentMethodType = "BANK_TRANSFER"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled, OrderOnHold},
	OrderProcessing: {OrderShipped, OrderCancelled, OrderOnHold},
	OrderOnHold:     {OrderPending, OrderProcessing, OrderCancelled},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {OrderCompleted, OrderRefunded},
	OrderCompleted:  {OrderRefunded},
}

var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentProcessing:     {ShipmentReadyForPickup, ShipmentPickedUp},
	ShipmentReadyForPickup: {ShipmentPickedUp},
	ShipmentPickedUp:       {ShipmentInTransit},
	ShipmentInTransit:      {ShipmentOutForDelivery, ShipmentFailedDelivery},
	ShipmentOutForDelivery: {ShipmentDelivered, ShipmentFailedDelivery},
	ShipmentFailedDelivery: {ShipmentOutForDelivery, ShipmentReturned},
}

var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnRequested: {ReturnApproved, ReturnRejected, ReturnCancelled},
	ReturnApproved:  {ReturnReceived, ReturnCancelled},
	ReturnReceived:  {ReturnCompleted, ReturnRejected},
}

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TxInitiated:         {TxProcessing, TxCompleted, TxFailed, TxCancelled},
	TxProcessing:        {TxCompleted, TxFailed, TxCancelled},
	TxCompleted:         {TxRefunded, TxPartiallyRefunded},
	TxPartiallyRefunded: {TxPartiallyRefunded, TxRefunded},
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered,
		OrderCancelled, OrderRefunded, OrderOnHold, OrderCompleted:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return contains(orderTransitions[s], next)
}

func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanBeCancelled reports whether a customer may still cancel.
func (s OrderStatus) CanBeCancelled() bool {
	return s == OrderPending || s == OrderProcessing
}

// IsReturnable reports whether a return may be requested.
func (s OrderStatus) IsReturnable() bool {
	return s == OrderDelivered || s == OrderCompleted
}

// CountsAsSale is true for statuses included in revenue reports.
func (s OrderStatus) CountsAsSale() bool {
	return s == OrderCompleted || s == OrderDelivered || s == OrderShipped
}

func SaleStatuses() []OrderStatus {
	return []OrderStatus{OrderCompleted, OrderDelivered, OrderShipped}
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded, PaymentPartiallyRefunded:
		return true
	}
	return false
}

func (s ShipmentStatus) Valid() bool {
	_, ok := shipmentTransitions[s]
	return ok || s == ShipmentDelivered || s == ShipmentReturned
}

func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	return contains(shipmentTransitions[s], next)
}

func (s ReturnStatus) Valid() bool {
	switch s {
	case ReturnRequested, ReturnApproved, ReturnReceived, ReturnRejected, ReturnCompleted, ReturnCancelled:
		return true
	}
	return false
}

func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	return contains(returnTransitions[s], next)
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return contains(transactionTransitions[s], next)
}

func (m PaymentMethodType) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodUPI, MethodNetBanking, MethodWallet, MethodCOD, MethodBankTransfer:
		return true
	}
	return false
}
