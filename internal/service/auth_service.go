package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/civicchain/civic-service/internal/auth"
	"github.com/civicchain/civic-service/internal/config"
	"github.com/civicchain/civic-service/internal/domain"
	"github.com/civicchain/civic-service/internal/events"
	"github.com/civicchain/civic-service/internal/repository"
	"github.com/civicchain/civic-service/internal/wallet"
	apperrors "github.com/civicchain/civic-service/pkg/util"
)

// AuthService coordinates registration and login flows. It is the
// identity boundary: everything past it works with an already-resolved
// (user_id, role) pair.
type AuthService struct {
	users      repository.UserRepository
	wallets    wallet.Provider
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Wallets    wallet.Provider
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		wallets:    deps.Wallets,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     deps.Logger,
	}
}

// TokenManager exposes the shared token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterUser creates a new account with default reputation. Wallet
// provisioning is best-effort: its failure is logged and never blocks
// registration.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string, role domain.UserRole) (*domain.User, string, time.Time, error) {
	if role == "" {
		role = domain.RoleCitizen
	}
	if !role.Valid() {
		return nil, "", time.Time{}, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Reputation:   domain.DefaultReputation,
		// Non-nil so the badges column binds as an empty array, not NULL.
		Badges: []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
		}
		return nil, "", time.Time{}, err
	}

	s.provisionWallet(ctx, user)

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:   events.EventUserCreated,
		UserID: user.ID,
		Payload: events.UserCreatedPayload{
			Role:       user.Role,
			Reputation: user.Reputation,
			WalletRef:  user.WalletRef,
		},
	})
	return user, token, exp, nil
}

// LoginUser authenticates a user and issues a role-bearing token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// GetProfile returns the user's current snapshot.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNoRows(err, "user")
	}
	return user, nil
}

func (s *AuthService) provisionWallet(ctx context.Context, user *domain.User) {
	if s.wallets == nil {
		return
	}
	ref, err := s.wallets.CreateWallet(ctx, user.ID)
	if err != nil {
		s.logger.Warn("wallet provisioning failed",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return
	}
	if err := s.users.SetWalletRef(ctx, user.ID, ref); err != nil {
		s.logger.Warn("persist wallet ref failed",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return
	}
	user.WalletRef = &ref
}
