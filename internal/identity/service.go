package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// Config tunes the identity service.
type Config struct {
	// FoldEmail lower-cases emails before storage and lookup so uniqueness
	// is case-insensitive.
	FoldEmail bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Service wraps registration and authentication rules.
type Service struct {
	repo   Repository
	cfg    Config
	logger *slog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService constructs a new Service.
func NewService(repo Repository, cfg Config, logger *slog.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cfg: cfg, logger: logger.With(slog.String("component", "identity"))}
}

// NormalizeEmail trims the address and, when configured, lower-cases it.
func (s *Service) NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if s.cfg.FoldEmail {
		email = cases.Lower(language.Und).String(email)
	}
	return email
}

// Register validates the profile, rejects taken emails and stores a bcrypt
// hash of the password. Failures are reported in the result, never as an
// error.
func (s *Service) Register(ctx context.Context, p Profile) RegisterResult {
	p.Email = s.NormalizeEmail(p.Email)
	p.Name = strings.TrimSpace(p.Name)
	if err := shared.ValidateStruct(p); err != nil {
		return RegisterResult{Message: err.Error()}
	}

	exists, err := s.repo.EmailExists(ctx, p.Email)
	if err != nil {
		s.logger.Error("register: email lookup", slog.Any("error", err))
		return RegisterResult{Message: MsgSystemError}
	}
	if exists {
		return RegisterResult{Message: MsgEmailTaken}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cfg.BcryptCost)
	if err != nil {
		s.logger.Error("register: hash password", slog.Any("error", err))
		return RegisterResult{Message: MsgSystemError}
	}
	id, err := s.repo.CreateUser(ctx, User{
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: string(hash),
		Phone:        p.Phone,
		Address:      p.Address,
		City:         p.City,
		Status:       StatusActive,
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			return RegisterResult{Message: MsgEmailTaken}
		}
		s.logger.Error("register: insert user", slog.Any("error", err))
		return RegisterResult{Message: MsgSystemError}
	}
	s.logger.Info("user registered", slog.Int64("user_id", id))
	return RegisterResult{Success: true, UserID: id, Message: MsgRegistered}
}

// Login authenticates an active user. Unknown emails, inactive users and
// wrong passwords all yield shared.ErrInvalidCredentials after one bcrypt
// comparison. The returned user carries no password hash.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindActiveByEmail(ctx, s.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.placeholderHash(), []byte(password))
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("identity: login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	user.PasswordHash = ""
	return user, nil
}

// GetUser returns a user without the password hash.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile overwrites name and contact fields and returns the result.
func (s *Service) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error) {
	upd.Name = strings.TrimSpace(upd.Name)
	if err := shared.ValidateStruct(upd); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// placeholderHash is compared against when no user matched, at the
// configured cost.
func (s *Service) placeholderHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("storefront-placeholder-password"), s.cfg.BcryptCost)
		if err != nil {
			s.logger.Error("generate placeholder hash", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
