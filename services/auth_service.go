package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"motomar-api/logger"
	"motomar-api/models"
	"motomar-api/repositories"
	"motomar-api/utils"
)

// lastAccessDebounce bounds how often an account's last access is written.
const lastAccessDebounce = time.Minute

type RegisterInput struct {
	Email        string  `json:"email" binding:"required"`
	Password     string  `json:"password" binding:"required"`
	FirstName    string  `json:"first_name" binding:"required"`
	LastName     string  `json:"last_name" binding:"required"`
	Phone        *string `json:"phone"`
	NationalID   *string `json:"national_id"`
	City         string  `json:"city"`
	Department   string  `json:"department"`
	Address      string  `json:"address"`
	AcceptPolicy bool    `json:"accept_policy"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResult struct {
	Account   *models.Account `json:"user"`
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type Profile struct {
	Account  *models.Account            `json:"user"`
	Stats    *repositories.AccountStats `json:"stats"`
	Listings []models.Listing           `json:"listings"`
}

type AuthService struct {
	accounts *repositories.AccountRepository
	listings *repositories.ListingRepository
	tokens   *TokenService
	mailer   Mailer
	async    func(func())
	now      func() time.Time
}

func NewAuthService(accounts *repositories.AccountRepository, listings *repositories.ListingRepository, tokens *TokenService, mailer Mailer) *AuthService {
	return &AuthService{
		accounts: accounts,
		listings: listings,
		tokens:   tokens,
		mailer:   mailer,
		async:    runAsync,
		now:      time.Now,
	}
}

// IdentityOf builds the token identity of an account.
func IdentityOf(a *models.Account) Identity {
	return Identity{
		AccountID: a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Verified:  a.EmailVerified,
		Role:      a.Role,
	}
}

func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	input.Email = models.NormalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			input.Phone = nil
		} else {
			input.Phone = &phone
		}
	}

	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	field, err := s.accounts.ConflictingField(input.Email, input.Phone)
	if err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	switch field {
	case "email":
		return nil, utils.NewConflict("An account with this email already exists", "email")
	case "phone":
		return nil, utils.NewConflict("An account with this phone number already exists", "phone")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	account := &models.Account{
		ID:               uuid.New().String(),
		Email:            input.Email,
		Password:         hash,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Phone:            input.Phone,
		NationalID:       input.NationalID,
		City:             strings.TrimSpace(input.City),
		Department:       strings.TrimSpace(input.Department),
		Address:          strings.TrimSpace(input.Address),
		Role:             models.RoleUser,
		Active:           true,
		PolicyAcceptedAt: &now,
		LastAccessAt:     &now,
	}
	if err := s.accounts.Create(account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	result, err := s.authResult(account)
	if err != nil {
		return nil, err
	}

	s.async(func() {
		if err := s.mailer.SendWelcomeEmail(account.Email, account.FirstName); err != nil {
			logger.Log.Warnw("welcome email failed", "account_id", account.ID, "error", err)
		}
	})

	logger.Log.Infow("account registered", "account_id", account.ID)
	return result, nil
}

func validateRegistration(input RegisterInput) error {
	var fields []utils.FieldError
	required := map[string]string{
		"email":      input.Email,
		"password":   input.Password,
		"first_name": input.FirstName,
		"last_name":  input.LastName,
	}
	for _, name := range []string{"email", "password", "first_name", "last_name"} {
		if required[name] == "" {
			fields = append(fields, utils.FieldError{Field: name, Message: "is required"})
		}
	}

	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		fields = append(fields, utils.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if input.Password != "" {
		problems, _ := utils.PasswordStrength(input.Password)
		for _, p := range problems {
			fields = append(fields, utils.FieldError{Field: "password", Message: p})
		}
	}
	if !input.AcceptPolicy {
		fields = append(fields, utils.FieldError{Field: "accept_policy", Message: "the data processing policy must be accepted"})
	}

	if len(fields) > 0 {
		return utils.NewValidationError("Registration data is invalid", fields...)
	}
	return nil
}

// Login verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(input LoginInput, clientIP string) (*AuthResult, error) {
	invalid := utils.NewUnauthorized(utils.CodeInvalidCredentials, "Invalid email or password")

	account, err := s.accounts.FindByEmail(input.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	if !utils.CheckPassword(account.Password, input.Password) {
		return nil, invalid
	}
	if !account.Active {
		return nil, utils.NewForbidden(utils.CodeAccountDisabled, "This account has been disabled")
	}

	now := s.now()
	if err := s.accounts.TouchLastAccess(account.ID, now, 0); err != nil {
		logger.Log.Warnw("failed to update last access", "account_id", account.ID, "error", err)
	}
	account.LastAccessAt = &now

	result, err := s.authResult(account)
	if err != nil {
		return nil, err
	}

	s.async(func() {
		if err := s.mailer.SendLoginNotice(account.Email, account.FirstName, clientIP, now); err != nil {
			logger.Log.Warnw("login notice failed", "account_id", account.ID, "error", err)
		}
	})

	return result, nil
}

// Touch records access by an authenticated account at most once per minute.
func (s *AuthService) Touch(accountID string) {
	if err := s.accounts.TouchLastAccess(accountID, s.now(), lastAccessDebounce); err != nil {
		logger.Log.Warnw("failed to update last access", "account_id", accountID, "error", err)
	}
}

// Account loads an account by id for the authentication gate.
func (s *AuthService) Account(accountID string) (*models.Account, error) {
	account, err := s.accounts.FindByID(accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewUnauthorized(utils.CodeAccountNotFound, "Account no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func (s *AuthService) Profile(accountID string) (*Profile, error) {
	account, err := s.accounts.FindByID(accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFound("Account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	stats, err := s.accounts.Stats(accountID)
	if err != nil {
		return nil, fmt.Errorf("account stats: %w", err)
	}

	listings, err := s.listings.FindBySeller(accountID, repositories.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("account listings: %w", err)
	}

	return &Profile{Account: account, Stats: stats, Listings: listings}, nil
}

func (s *AuthService) authResult(account *models.Account) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(IdentityOf(account))
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "Failed to generate token")
	}
	return &AuthResult{Account: account, Token: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}
