package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"abayaStore/domain"
	"abayaStore/pkg/logger"

	"github.com/shopspring/decimal"
)

type CurrencyRepository interface {
	ListActive(ctx context.Context) ([]domain.Currency, error)
	ListAll(ctx context.Context) ([]domain.Currency, error)
	FindByCode(ctx context.Context, code string) (domain.Currency, error)
	FindDefault(ctx context.Context) (domain.Currency, error)
	Create(ctx context.Context, c *domain.Currency) error
	Update(ctx context.Context, c *domain.Currency) error
	ClearDefault(ctx context.Context, exceptID uint) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type currencyService struct {
	repo CurrencyRepository
	tx   Transactor
}

func NewCurrencyService(repo CurrencyRepository, tx Transactor) *currencyService {
	return &currencyService{repo: repo, tx: tx}
}

// GetDefault never fails on a missing default; the store then prices in INR.
func (s *currencyService) GetDefault(ctx context.Context) (domain.Currency, error) {
	c, err := s.repo.FindDefault(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.FallbackCurrency(), nil
		}
		logger.Error("Failed to load default currency", err)
		return domain.Currency{}, err
	}
	return c, nil
}

func (s *currencyService) ListActive(ctx context.Context) ([]domain.Currency, error) {
	return s.repo.ListActive(ctx)
}

func (s *currencyService) ListAll(ctx context.Context) ([]domain.Currency, error) {
	return s.repo.ListAll(ctx)
}

// GetByCode returns an active currency.
func (s *currencyService) GetByCode(ctx context.Context, code string) (domain.Currency, error) {
	c, err := s.repo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return domain.Currency{}, err
	}
	if !c.IsActive {
		return domain.Currency{}, fmt.Errorf("currency %w", domain.ErrNotFound)
	}
	return c, nil
}

// resolve falls back to the default currency for an empty, unknown or
// inactive code.
func (s *currencyService) resolve(ctx context.Context, code string) (domain.Currency, error) {
	if code != "" {
		c, err := s.GetByCode(ctx, code)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Currency{}, err
		}
	}
	return s.GetDefault(ctx)
}

// ConvertFromDefault converts a catalogue price into the requested
// currency for display.
func (s *currencyService) ConvertFromDefault(ctx context.Context, amount decimal.Decimal, code string) (decimal.Decimal, domain.Currency, error) {
	base, err := s.GetDefault(ctx)
	if err != nil {
		return decimal.Zero, domain.Currency{}, err
	}

	target, err := s.resolve(ctx, code)
	if err != nil {
		return decimal.Zero, domain.Currency{}, err
	}

	converted, err := Convert(amount, base, target)
	if err != nil {
		return decimal.Zero, domain.Currency{}, err
	}

	return converted, target, nil
}

type Conversion struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Result    decimal.Decimal `json:"result"`
	Formatted string          `json:"formatted"`
}

func (s *currencyService) ConvertBetween(ctx context.Context, amount decimal.Decimal, fromCode, toCode string) (Conversion, error) {
	from, err := s.resolve(ctx, fromCode)
	if err != nil {
		return Conversion{}, err
	}
	to, err := s.resolve(ctx, toCode)
	if err != nil {
		return Conversion{}, err
	}

	result, err := Convert(amount, from, to)
	if err != nil {
		return Conversion{}, err
	}

	return Conversion{
		Amount:    amount,
		From:      from.Code,
		To:        to.Code,
		Result:    result,
		Formatted: Format(result, to),
	}, nil
}

func validateCurrency(c *domain.Currency) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if len(c.Code) != 3 {
		return fmt.Errorf("%w: currency code must be 3 letters", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(c.Name) == "" || c.Symbol == "" {
		return fmt.Errorf("%w: currency name and symbol are required", domain.ErrInvalidInput)
	}
	if !c.ExchangeRate.IsPositive() {
		return fmt.Errorf("%w: exchange rate must be greater than 0", domain.ErrInvalidInput)
	}
	if c.IsDefault && !c.IsActive {
		return fmt.Errorf("%w: the default currency must be active", domain.ErrInvalidInput)
	}
	return nil
}

func (s *currencyService) CreateCurrency(ctx context.Context, c *domain.Currency) (*domain.Currency, error) {
	if err := validateCurrency(c); err != nil {
		return nil, err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		if c.IsDefault {
			return s.repo.ClearDefault(ctx, c.ID)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to create currency", err)
		return nil, err
	}

	return c, nil
}

func (s *currencyService) UpdateCurrency(ctx context.Context, code string, data *domain.Currency) (*domain.Currency, error) {
	existing, err := s.repo.FindByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, err
	}

	data.ID = existing.ID
	data.Code = existing.Code
	if err := validateCurrency(data); err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, data); err != nil {
			return err
		}
		if data.IsDefault {
			return s.repo.ClearDefault(ctx, data.ID)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to update currency", err)
		return nil, err
	}

	return data, nil
}

// SetDefault flags code as the only default currency.
func (s *currencyService) SetDefault(ctx context.Context, code string) (*domain.Currency, error) {
	c, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	c.IsDefault = true
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.ClearDefault(ctx, c.ID); err != nil {
			return err
		}
		return s.repo.Update(ctx, &c)
	})
	if err != nil {
		logger.Error("Failed to set default currency", err)
		return nil, err
	}

	logger.Info("default currency changed", "code", c.Code)

	return &c, nil
}
