package postgres

import (
	"context"
	"errors"
	"fmt"

	"abayaStore/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentsRepository struct {
	DB *gorm.DB
}

func NewPaymentsRepository(db *gorm.DB) *PaymentsRepository {
	return &PaymentsRepository{
		DB: db,
	}
}

func (r *PaymentsRepository) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return conn(ctx, r.DB).Create(p).Error
}

func (r *PaymentsRepository) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	row := conn(ctx, r.DB).Save(p)
	if err := row.Error; err != nil {
		return err
	}
	if row.RowsAffected == 0 {
		return fmt.Errorf("payment %w", domain.ErrNotFound)
	}
	return nil
}

func (r *PaymentsRepository) FindPayment(ctx context.Context, id uint) (domain.Payment, error) {
	var p domain.Payment
	if err := conn(ctx, r.DB).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Payment{}, fmt.Errorf("payment %w", domain.ErrNotFound)
		}
		return domain.Payment{}, err
	}
	return p, nil
}

func (r *PaymentsRepository) ListPayments(ctx context.Context, userID uint, page domain.Page) ([]domain.Payment, int64, error) {
	var (
		payments []domain.Payment
		total    int64
	)

	q := conn(ctx, r.DB).Model(&domain.Payment{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&payments).Error
	return payments, total, err
}

func (r *PaymentsRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return conn(ctx, r.DB).Create(tx).Error
}

func (r *PaymentsRepository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return conn(ctx, r.DB).Save(tx).Error
}

func (r *PaymentsRepository) findTransaction(q *gorm.DB) (domain.Transaction, error) {
	var tx domain.Transaction
	if err := q.First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Transaction{}, fmt.Errorf("transaction %w", domain.ErrNotFound)
		}
		return domain.Transaction{}, err
	}
	return tx, nil
}

func (r *PaymentsRepository) FindTransaction(ctx context.Context, id uint) (domain.Transaction, error) {
	return r.findTransaction(conn(ctx, r.DB).Where("id = ?", id))
}

func (r *PaymentsRepository) FindTransactionByReference(ctx context.Context, gateway, ref string) (domain.Transaction, error) {
	return r.findTransaction(conn(ctx, r.DB).
		Where("gateway = ? AND type = ?", gateway, domain.TxTypePayment).
		Where("(gateway_order_id = ? OR gateway_transaction_id = ?)", ref, ref).
		Order("created_at DESC"))
}

func (r *PaymentsRepository) LatestTransaction(ctx context.Context, orderID uint, gateway string, statuses ...domain.TransactionStatus) (domain.Transaction, error) {
	q := conn(ctx, r.DB).Where("order_id = ? AND type = ?", orderID, domain.TxTypePayment)
	if gateway != "" {
		q = q.Where("gateway = ?", gateway)
	}
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	return r.findTransaction(q.Order("created_at DESC, id DESC"))
}

func (r *PaymentsRepository) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error) {
	var (
		list  []domain.Transaction
		total int64
	)

	q := conn(ctx, r.DB).Model(&domain.Transaction{})
	if filter.Gateway != "" {
		q = q.Where("gateway = ?", filter.Gateway)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OrderID != 0 {
		q = q.Where("order_id = ?", filter.OrderID)
	}
	if !filter.Range.From.IsZero() {
		q = q.Where("created_at >= ?", filter.Range.From)
	}
	if !filter.Range.To.IsZero() {
		q = q.Where("created_at < ?", filter.Range.To)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Size).
		Find(&list).Error
	return list, total, err
}

func (r *PaymentsRepository) CreateRefund(ctx context.Context, refund *domain.Refund) error {
	return conn(ctx, r.DB).Create(refund).Error
}

func (r *PaymentsRepository) RefundExists(ctx context.Context, gatewayRefundID string) (bool, error) {
	var count int64
	err := conn(ctx, r.DB).Model(&domain.Refund{}).Where("gateway_refund_id = ?", gatewayRefundID).Count(&count).Error
	return count > 0, err
}

func (r *PaymentsRepository) SaveWebhookEvent(ctx context.Context, ev *domain.WebhookEvent) (bool, error) {
	row := conn(ctx, r.DB).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "gateway"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(ev)
	if err := row.Error; err != nil {
		return false, err
	}
	return row.RowsAffected == 1, nil
}

func (r *PaymentsRepository) FindWebhookEvent(ctx context.Context, gateway, eventID string) (domain.WebhookEvent, error) {
	var ev domain.WebhookEvent
	err := conn(ctx, r.DB).Where("gateway = ? AND event_id = ?", gateway, eventID).First(&ev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.WebhookEvent{}, fmt.Errorf("webhook event %w", domain.ErrNotFound)
		}
		return domain.WebhookEvent{}, err
	}
	return ev, nil
}

func (r *PaymentsRepository) UpdateWebhookEvent(ctx context.Context, ev *domain.WebhookEvent) error {
	return conn(ctx, r.DB).Model(ev).Select("processed", "processed_at", "error_message").Updates(ev).Error
}
