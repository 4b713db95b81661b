package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"abayaStore/domain"
	"abayaStore/internal/repository/redis"
	"abayaStore/pkg/logger"
	"abayaStore/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/pobyzaarif/goshortcute"
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uint) error
	UpdateEmailVerification(ctx context.Context, id uint, isVerified bool) error
	UpdateLoginState(ctx context.Context, id uint, attempts int, lastFailed, lockedUntil *time.Time) error
}

// TokenRepository keeps issued tokens so they can be revoked before expiry.
type TokenRepository interface {
	StoreToken(ctx context.Context, userID, token string, data redis.TokenData, ttl time.Duration) error
	ValidateToken(ctx context.Context, token string) (string, error)
	RevokeToken(ctx context.Context, userID, token string) error
}

// NotificationRepository contract interface
type NotificationRepository interface {
	SendEmail(toName, toEmail, subject, message string) (err error)
}

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrEmailNotVerified   = errors.New("email address has not been verified")
	ErrAccountLocked      = errors.New("account locked due to too many failed login attempts")
	ErrInvalidVerifyLink  = errors.New("invalid or expired url")
	ErrInvalidRole        = errors.New("invalid role")
	ErrRoleChangeNotAdmin = errors.New("only admins can change roles")
)

type userService struct {
	userRepo                UserRepository
	tokenRepo               TokenRepository
	validate                *validator.Validate
	notifRepo               NotificationRepository
	appEmailVerificationKey string
	appDeploymentUrl        string
	now                     func() time.Time
}

const (
	verificationCodeTTL      = 5
	maxLoginAttempts         = 5
	loginAttemptWindow       = 5 * time.Minute
	lockoutDuration          = 5 * time.Minute
	SubjectRegisterAccount   = "Activate Your Account!"
	EmailBodyRegisterAccount = `Hello %v, activate your account by opening the link below</br></br>%v</br>note: the link is valid for %v minutes`
)

func NewUserService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	validate *validator.Validate,
	notifRepo NotificationRepository,
	appEmailVerificationKey string,
	appDeploymentUrl string,
) *userService {
	return &userService{
		userRepo:                userRepo,
		tokenRepo:               tokenRepo,
		validate:                validate,
		notifRepo:               notifRepo,
		appEmailVerificationKey: appEmailVerificationKey,
		appDeploymentUrl:        appDeploymentUrl,
		now:                     time.Now,
	}
}

var validRoles = map[string]bool{
	domain.RoleCustomer: true,
	domain.RoleStaff:    true,
	domain.RoleAdmin:    true,
}

func (s *userService) Register(ctx context.Context, user *domain.User) (domain.User, error) {
	if err := s.validate.Var(user.Email, "required,email"); err != nil {
		logger.Error("Invalid email format", err)
		return domain.User{}, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}

	if err := s.validate.Var(user.Password, "required,min=6"); err != nil {
		logger.Error("Invalid user password", err)
		return domain.User{}, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrInvalidInput)
	}

	email := strings.ToLower(strings.TrimSpace(user.Email))

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existingUser.ID > 0 {
		logger.Error("Email already exists", "email", email)
		return domain.User{}, ErrEmailExists
	}

	passwordHash, err := utils.HashPassword(user.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return domain.User{}, errors.New("failed to hash password")
	}

	newUser := domain.User{
		FullName:   user.FullName,
		Email:      email,
		Phone:      user.Phone,
		Password:   string(passwordHash),
		IsVerified: false,
		Role:       domain.RoleCustomer,
	}

	if err := s.userRepo.Create(ctx, &newUser); err != nil {
		logger.Error("Failed to create new user", err)
		return domain.User{}, err
	}

	activationLink, err := s.verificationLink(newUser.Email)
	if err != nil {
		logger.Error("Failed to build verification link", err)
		return domain.User{}, err
	}

	err = s.notifRepo.SendEmail(newUser.FullName, newUser.Email, SubjectRegisterAccount, fmt.Sprintf(EmailBodyRegisterAccount, newUser.FullName, activationLink, verificationCodeTTL))
	if err != nil {
		logger.Warn("Failed to send verification email", err)
	}

	newUser.Password = ""
	return newUser, nil
}

func (s *userService) verificationLink(email string) (string, error) {
	expAt := s.now().Add(time.Minute * verificationCodeTTL).Unix()

	verificationCode := fmt.Sprintf("%v|%v", email, expAt)
	encrypted, err := goshortcute.AESCBCEncrypt([]byte(verificationCode), []byte(s.appEmailVerificationKey))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt verification code: %w", err)
	}

	return s.appDeploymentUrl + "/api/v1/users/email-verification/" + goshortcute.StringtoBase64Encode(encrypted), nil
}

func (s *userService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (string, domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		logger.Error("Invalid user credentials", err)
		return "", domain.User{}, err
	}

	now := s.now()
	if user.IsLocked(now) {
		logger.Warn("Login attempt on locked account", "user_id", user.ID)
		return "", domain.User{}, ErrAccountLocked
	}

	if !utils.CheckPassword(password, user.Password) {
		locked := s.recordFailedLogin(ctx, user, now)
		logger.Error("User password incorrect", "user_id", user.ID)
		if locked {
			return "", domain.User{}, ErrAccountLocked
		}
		return "", domain.User{}, ErrIncorrectPassword
	}

	if !user.IsVerified {
		logger.Error("Email address has not been verified", "user_id", user.ID)
		return "", domain.User{}, ErrEmailNotVerified
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		if err := s.userRepo.UpdateLoginState(ctx, user.ID, 0, nil, nil); err != nil {
			logger.Warn("Failed to reset login attempts", err)
		}
	}

	token, err := s.issueToken(ctx, user, ipAddress, userAgent)
	if err != nil {
		return "", domain.User{}, err
	}

	user.Password = ""
	return token, user, nil
}

// recordFailedLogin bumps the attempt counter and reports whether the
// account is now locked. Attempts outside the window start a new count.
func (s *userService) recordFailedLogin(ctx context.Context, user domain.User, now time.Time) bool {
	attempts := user.FailedLoginAttempts
	if user.LastFailedLogin == nil || now.Sub(*user.LastFailedLogin) > loginAttemptWindow {
		attempts = 0
	}
	attempts++

	var lockedUntil *time.Time
	if attempts >= maxLoginAttempts {
		until := now.Add(lockoutDuration)
		lockedUntil = &until
	}

	if err := s.userRepo.UpdateLoginState(ctx, user.ID, attempts, &now, lockedUntil); err != nil {
		logger.Error("Failed to record failed login", err)
	}

	return lockedUntil != nil
}

func (s *userService) issueToken(ctx context.Context, user domain.User, ipAddress, userAgent string) (string, error) {
	userIdStr := strconv.FormatUint(uint64(user.ID), 10)
	token, err := utils.GenerateJWT(userIdStr, user.Role)
	if err != nil {
		logger.Error("Failed to generated token", err)
		return "", errors.New("failed to generate token")
	}

	ttl := utils.TokenTTL()
	now := s.now()
	err = s.tokenRepo.StoreToken(ctx, userIdStr, token, redis.TokenData{
		UserID:    userIdStr,
		Role:      user.Role,
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}, ttl)
	if err != nil {
		logger.Error("Failed to store token", err)
		return "", errors.New("failed to store session")
	}

	return token, nil
}

func (s *userService) ValidateTokenFromRedis(ctx context.Context, token string) (string, error) {
	return s.tokenRepo.ValidateToken(ctx, token)
}

func (s *userService) RefreshToken(ctx context.Context, oldToken, ipAddress, userAgent string) (string, domain.User, error) {
	claims, err := utils.ParseJWT(oldToken)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("%w: invalid token", domain.ErrForbidden)
	}

	userID, err := s.tokenRepo.ValidateToken(ctx, oldToken)
	if err != nil || userID != claims.UserID {
		return "", domain.User{}, fmt.Errorf("%w: token expired or revoked", domain.ErrForbidden)
	}

	id, err := strconv.ParseUint(userID, 10, 64)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("%w: invalid token subject", domain.ErrForbidden)
	}

	user, err := s.userRepo.FindByID(ctx, uint(id))
	if err != nil {
		return "", domain.User{}, err
	}

	if err := s.tokenRepo.RevokeToken(ctx, userID, oldToken); err != nil {
		logger.Warn("Failed to revoke old token", err)
	}

	token, err := s.issueToken(ctx, user, ipAddress, userAgent)
	if err != nil {
		return "", domain.User{}, err
	}

	user.Password = ""
	return token, user, nil
}

func (s *userService) Logout(ctx context.Context, userID uint, token string) error {
	if err := s.tokenRepo.RevokeToken(ctx, strconv.FormatUint(uint64(userID), 10), token); err != nil {
		logger.Error("Failed to revoke token", err)
		return err
	}
	return nil
}

func (s *userService) VerifyEmail(ctx context.Context, verificationCodeEncrypt string) error {
	strDecode := goshortcute.StringtoBase64Decode(verificationCodeEncrypt)
	verificationCodeDecrypt, err := goshortcute.AESCBCDecrypt([]byte(strDecode), []byte(s.appEmailVerificationKey))
	if err != nil {
		logger.Error("Verifying email error", err)
		return ErrInvalidVerifyLink
	}

	verificationCode := strings.Split(verificationCodeDecrypt, "|")
	if len(verificationCode) != 2 {
		logger.Error("Verifying email error", verificationCodeDecrypt)
		return ErrInvalidVerifyLink
	}

	email := verificationCode[0]
	ts, err := strconv.ParseInt(verificationCode[1], 10, 64)
	if err != nil {
		logger.Error("Verifying email error", verificationCodeDecrypt)
		return ErrInvalidVerifyLink
	}

	if s.now().After(time.Unix(ts, 0)) {
		return ErrInvalidVerifyLink
	}

	getUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		logger.Error("Verifying email error", err)
		return errors.New("failed to get user by email")
	}

	if getUser.IsVerified {
		logger.Warn("verify email err", "email verified already")
		return ErrInvalidVerifyLink
	}

	if err := s.userRepo.UpdateEmailVerification(ctx, getUser.ID, true); err != nil {
		logger.Error("Verify email err", err)
		return err
	}

	return nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to get user by ID", err)
		return domain.User{}, err
	}

	user.Password = ""
	return user, nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to get all users", err)
		return nil, err
	}

	for i := range users {
		users[i].Password = ""
	}

	return users, nil
}

// UpdateUser applies non-empty fields. Only an admin actor may change roles.
func (s *userService) UpdateUser(ctx context.Context, id uint, updateData *domain.User, actorRole string) (domain.User, error) {
	existingUser, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("User not found for update", err)
		return domain.User{}, err
	}

	if updateData.FullName != "" {
		existingUser.FullName = updateData.FullName
	}

	if updateData.Phone != "" {
		existingUser.Phone = updateData.Phone
	}

	if updateData.Password != "" {
		if err := s.validate.Var(updateData.Password, "required,min=6"); err != nil {
			logger.Error("Invalid password", err)
			return domain.User{}, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrInvalidInput)
		}

		passwordHash, err := utils.HashPassword(updateData.Password)
		if err != nil {
			logger.Error("Failed to hash password", err)
			return domain.User{}, errors.New("failed to hash password")
		}
		existingUser.Password = string(passwordHash)
	}

	if updateData.Role != "" && updateData.Role != existingUser.Role {
		if actorRole != domain.RoleAdmin {
			return domain.User{}, ErrRoleChangeNotAdmin
		}
		if !validRoles[updateData.Role] {
			return domain.User{}, ErrInvalidRole
		}
		existingUser.Role = updateData.Role
	}

	if err := s.userRepo.Update(ctx, &existingUser); err != nil {
		logger.Error("Failed to update user", err)
		return domain.User{}, err
	}

	existingUser.Password = ""
	return existingUser, nil
}

// DeleteUser soft deletes a user
func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		logger.Error("User not found for deletion", err)
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		logger.Error("Failed to delete user", err)
		return err
	}

	return nil
}
