// Package auth is the user directory: registration, login, token issuance
// and validation. It shares the store module's database handle and exposes
// its operations as request-reply services.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"

	"github.com/example/chat-backend/domain/user"
)

// DBProvider hands out the shared database connection. Valid after the
// providing module has started.
type DBProvider interface {
	DB() *gorm.DB
}

// Module provides authentication services.
type Module struct {
	dbProvider DBProvider
	db         *gorm.DB
	service    *AuthService
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new auth module.
func NewModule() *Module {
	return &Module{}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "auth"
}

// SetDBProvider injects the database owner (called from main.go). The store
// module starts first, so its handle is open by the time Start runs here.
func (m *Module) SetDBProvider(p DBProvider) {
	m.dbProvider = p
}

// Start migrates the user table and builds the service.
func (m *Module) Start(_ context.Context) error {
	if m.dbProvider == nil {
		return fmt.Errorf("database provider not set")
	}
	m.db = m.dbProvider.DB()
	if m.db == nil {
		return fmt.Errorf("database not available")
	}

	if err := m.db.AutoMigrate(&user.User{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}

	repo := NewUserRepository(m.db)
	hasher := NewPasswordHasher()
	m.service = NewAuthService(repo, hasher, NewJWTManager(loadJWTConfig()))

	log.Println("[auth] Module started")
	return nil
}

// Stop shuts down the module. The database handle belongs to the store
// module and is closed there.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// Health checks the shared database connection.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}

	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// RegisterServices registers the auth request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	log.Println("[auth] Registered services: register, login, validate-token, get-user")
	return nil
}

func userInfo(u *user.User) UserInfo {
	return UserInfo{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func (m *Module) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (AuthResponse, error) {
	u, token, err := m.service.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{Token: token, User: userInfo(u)}, nil
}

func (m *Module) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (AuthResponse, error) {
	u, token, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{Token: token, User: userInfo(u)}, nil
}

func (m *Module) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		// Validation failures are a response, not a transport error.
		return ValidateTokenResponse{Valid: false, Error: errMsg}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   claims.Role,
	}, nil
}

func (m *Module) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	u, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return GetUserResponse{}, err
	}
	return GetUserResponse{User: userInfo(u)}, nil
}

// loadJWTConfig loads token configuration from environment variables.
func loadJWTConfig() JWTConfig {
	config := DefaultJWTConfig()
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.SecretKey = secret
	}
	return config
}
