package user

import (
	"context"
	"fmt"

	"abayaStore/domain"
	"abayaStore/pkg/logger"

	"github.com/pobyzaarif/goshortcute"
)

type AddressRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]domain.Address, error)
	FindByID(ctx context.Context, id uint) (domain.Address, error)
	Create(ctx context.Context, address *domain.Address) error
	Update(ctx context.Context, address *domain.Address) error
	Delete(ctx context.Context, id uint) error
	CountByUser(ctx context.Context, userID uint, addrType string) (int64, error)
	ClearDefault(ctx context.Context, userID uint, addrType string, exceptID uint) error
}

type PaymentMethodRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]domain.PaymentMethod, error)
	FindByID(ctx context.Context, id uint) (domain.PaymentMethod, error)
	Create(ctx context.Context, method *domain.PaymentMethod) error
	Delete(ctx context.Context, id uint) error
	CountByUser(ctx context.Context, userID uint) (int64, error)
	ClearDefault(ctx context.Context, userID uint, exceptID uint) error
	SetDefault(ctx context.Context, id uint) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type addressService struct {
	addressRepo AddressRepository
	methodRepo  PaymentMethodRepository
	tx          Transactor
	tokenKey    string
}

func NewAddressService(addressRepo AddressRepository, methodRepo PaymentMethodRepository, tx Transactor, tokenKey string) *addressService {
	return &addressService{
		addressRepo: addressRepo,
		methodRepo:  methodRepo,
		tx:          tx,
		tokenKey:    tokenKey,
	}
}

func (s *addressService) ListAddresses(ctx context.Context, userID uint) ([]domain.Address, error) {
	return s.addressRepo.ListByUser(ctx, userID)
}

func (s *addressService) owned(ctx context.Context, userID, id uint) (domain.Address, error) {
	addr, err := s.addressRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Address{}, err
	}
	if addr.UserID != userID {
		return domain.Address{}, fmt.Errorf("%w: address belongs to another user", domain.ErrForbidden)
	}
	return addr, nil
}

// GetAddress returns an address owned by userID.
func (s *addressService) GetAddress(ctx context.Context, userID, id uint) (domain.Address, error) {
	return s.owned(ctx, userID, id)
}

// CreateAddress stores a new address. The first address of a type becomes
// the default, and an explicit default clears the previous one.
func (s *addressService) CreateAddress(ctx context.Context, userID uint, addr *domain.Address) (*domain.Address, error) {
	if addr.Type == "" {
		addr.Type = domain.AddressShipping
	}
	if addr.Type != domain.AddressShipping && addr.Type != domain.AddressBilling {
		return nil, fmt.Errorf("%w: address type must be SHIPPING or BILLING", domain.ErrInvalidInput)
	}
	addr.UserID = userID

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		count, err := s.addressRepo.CountByUser(ctx, userID, addr.Type)
		if err != nil {
			return err
		}
		if count == 0 {
			addr.IsDefault = true
		}

		if err := s.addressRepo.Create(ctx, addr); err != nil {
			return err
		}

		if addr.IsDefault {
			return s.addressRepo.ClearDefault(ctx, userID, addr.Type, addr.ID)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to create address", err)
		return nil, err
	}

	return addr, nil
}

func (s *addressService) UpdateAddress(ctx context.Context, userID, id uint, data *domain.Address) (*domain.Address, error) {
	existing, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	data.ID = existing.ID
	data.UserID = userID
	if data.Type == "" {
		data.Type = existing.Type
	}
	data.CreatedAt = existing.CreatedAt

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.addressRepo.Update(ctx, data); err != nil {
			return err
		}
		if data.IsDefault {
			return s.addressRepo.ClearDefault(ctx, userID, data.Type, data.ID)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to update address", err)
		return nil, err
	}

	return data, nil
}

func (s *addressService) DeleteAddress(ctx context.Context, userID, id uint) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.addressRepo.Delete(ctx, id)
}

func (s *addressService) SetDefaultAddress(ctx context.Context, userID, id uint) (*domain.Address, error) {
	addr, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	addr.IsDefault = true
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.addressRepo.ClearDefault(ctx, userID, addr.Type, addr.ID); err != nil {
			return err
		}
		return s.addressRepo.Update(ctx, &addr)
	})
	if err != nil {
		logger.Error("Failed to set default address", err)
		return nil, err
	}

	return &addr, nil
}

func (s *addressService) ListPaymentMethods(ctx context.Context, userID uint) ([]domain.PaymentMethod, error) {
	return s.methodRepo.ListByUser(ctx, userID)
}

// AddPaymentMethod stores a saved method. The raw gateway token is kept
// AES encrypted and never leaves the service.
func (s *addressService) AddPaymentMethod(ctx context.Context, userID uint, method *domain.PaymentMethod, gatewayToken string) (*domain.PaymentMethod, error) {
	if !method.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method type %q", domain.ErrInvalidInput, method.Type)
	}
	method.UserID = userID

	if gatewayToken != "" {
		encrypted, err := goshortcute.AESCBCEncrypt([]byte(gatewayToken), []byte(s.tokenKey))
		if err != nil {
			logger.Error("Failed to encrypt payment token", err)
			return nil, fmt.Errorf("failed to encrypt payment token: %w", err)
		}
		method.EncryptedToken = goshortcute.StringtoBase64Encode(encrypted)
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		count, err := s.methodRepo.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count == 0 {
			method.IsDefault = true
		}
		if err := s.methodRepo.Create(ctx, method); err != nil {
			return err
		}
		if method.IsDefault {
			return s.methodRepo.ClearDefault(ctx, userID, method.ID)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to add payment method", err)
		return nil, err
	}

	return method, nil
}

// PaymentToken decrypts the stored gateway token of a saved method.
func (s *addressService) PaymentToken(ctx context.Context, userID, id uint) (string, error) {
	method, err := s.ownedMethod(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if method.EncryptedToken == "" {
		return "", nil
	}
	return goshortcute.AESCBCDecrypt([]byte(goshortcute.StringtoBase64Decode(method.EncryptedToken)), []byte(s.tokenKey))
}

func (s *addressService) ownedMethod(ctx context.Context, userID, id uint) (domain.PaymentMethod, error) {
	method, err := s.methodRepo.FindByID(ctx, id)
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	if method.UserID != userID {
		return domain.PaymentMethod{}, fmt.Errorf("%w: payment method belongs to another user", domain.ErrForbidden)
	}
	return method, nil
}

func (s *addressService) DeletePaymentMethod(ctx context.Context, userID, id uint) error {
	if _, err := s.ownedMethod(ctx, userID, id); err != nil {
		return err
	}
	return s.methodRepo.Delete(ctx, id)
}

func (s *addressService) SetDefaultPaymentMethod(ctx context.Context, userID, id uint) error {
	if _, err := s.ownedMethod(ctx, userID, id); err != nil {
		return err
	}

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.methodRepo.ClearDefault(ctx, userID, id); err != nil {
			return err
		}
		return s.methodRepo.SetDefault(ctx, id)
	})
}
