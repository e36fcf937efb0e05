package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"
	"go-roastery-api/internal/ws"
	"go-roastery-api/pkg/jwt"
	"go-roastery-api/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error)
	ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
	Heartbeat(ctx context.Context, userID uuid.UUID) error
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

// RegisterRequest is the storefront signup form. A company name also opens a CRM lead.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FullName    string `json:"full_name" validate:"required,max=255"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
	Locale      string `json:"locale" validate:"max=10"`
	CompanyName string `json:"company_name" validate:"max=255"`
}

type authService struct {
	userRepo          repository.UserRepository
	roleRepo          repository.RoleRepository
	businessRepo      repository.BusinessRepository
	db                *gorm.DB
	tokens            *jwt.Manager
	inactivityTimeout time.Duration
	wsHub             *ws.Hub
	logger            *zap.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	businessRepo repository.BusinessRepository,
	db *gorm.DB,
	tokens *jwt.Manager,
	inactivityTimeout time.Duration,
	hub *ws.Hub,
	logger *zap.Logger,
) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		userRepo:          userRepo,
		roleRepo:          roleRepo,
		businessRepo:      businessRepo,
		db:                db,
		tokens:            tokens,
		inactivityTimeout: inactivityTimeout,
		wsHub:             hub,
		logger:            logger.Named("auth"),
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

// startSession rotates the token version so older tokens stop working
func (s *authService) startSession(ctx context.Context, user *model.User) (*LoginResponse, error) {
	now := time.Now()
	user.TokenVersion = uuid.New().String()
	user.LastSeenAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storageErr(err, "session")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), user.PrivilegeCodes(), user.TokenVersion)
	if err != nil {
		return nil, ErrUnexpected
	}

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.PrivilegeCodes(),
	}, nil
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}
	email := strings.ToLower(req.Email)
	if existing, _ := s.userRepo.FindByEmail(ctx, email); existing != nil {
		return nil, ErrEmailExists
	}
	role, err := s.roleRepo.FindByCode(ctx, model.RoleCustomer)
	if err != nil {
		return nil, storageErr(err, "customer role")
	}

	user := &model.User{
		Email:       email,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Locale:      req.Locale,
		RoleID:      &role.ID,
		IsActive:    true,
	}
	user.ID = uuid.New()
	user.Audit(user.ID.String())
	if err := user.SetPassword(req.Password); err != nil {
		return nil, ErrUnexpected
	}

	company := strings.TrimSpace(req.CompanyName)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.CreateTx(tx, user); err != nil {
			return err
		}
		if company == "" {
			return nil
		}
		business := &model.Business{
			Name:        company,
			ContactName: req.FullName,
			Email:       email,
			Phone:       req.PhoneNumber,
			Stage:       model.StageLead,
			Source:      model.SourceSignup,
			Tags:        []string{},
			ProfileID:   &user.ID,
		}
		business.Audit(user.ID.String())
		return s.businessRepo.Create(tx, business)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, storageErr(err, "user")
	}

	s.logger.Info("Customer registered", zap.String("user_id", user.ID.String()), zap.Bool("business", company != ""))
	if company != "" {
		s.wsHub.Publish(ws.Event{
			Type:    "crm",
			Action:  "business_created",
			Data:    map[string]interface{}{"name": company, "source": model.SourceSignup, "profile_id": user.ID},
			Message: "New business signup: " + company,
		})
	}

	user.Role = role
	return s.startSession(ctx, user)
}

func (s *authService) ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return validationf("new password must be at least 8 characters")
	}
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return ErrUnexpected
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return storageErr(err, "user")
	}
	// sign out every device
	return storageErr(s.userRepo.UpdateTokenVersion(ctx, user.ID, uuid.New().String()), "user")
}

// ValidateToken resolves a token to its user. Staff sessions also expire
// after the configured inactivity window; shoppers do not.
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrNotAuthenticated
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	if user.IsStaff() && s.inactivityTimeout > 0 {
		if user.LastSeenAt == nil || time.Since(*user.LastSeenAt) > s.inactivityTimeout {
			return nil, ErrSessionTimeout
		}
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.PrivilegeCodes(),
	}, nil
}

func (s *authService) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.UpdateLastSeen(ctx, userID); err != nil {
		return storageErr(err, "user")
	}
	s.wsHub.Publish(ws.Event{
		Type: "user_status_update",
		Data: map[string]interface{}{
			"user_id":      userID.String(),
			"status":       "online",
			"last_seen_at": time.Now(),
		},
	})
	return nil
}
