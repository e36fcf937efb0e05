package service

import (
	"context"
	"strings"

	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"
	"go-roastery-api/pkg/validator"

	"github.com/google/uuid"
)

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, actor Actor) (*model.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID, actor Actor) error
	UpdateUserPrivileges(ctx context.Context, userID uuid.UUID, privilegeCodes []string, actor Actor) (*model.User, error)
	GetAllUsers(ctx context.Context, staffOnly bool) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	GetRoles(ctx context.Context) ([]model.Role, error)
	GetPrivileges(ctx context.Context) ([]model.Privilege, error)
}

type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FullName    string `json:"full_name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
	Locale      string `json:"locale" validate:"max=10"`
	RoleID      uint   `json:"role_id" validate:"required"`
}

type UpdateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=8"`
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number" validate:"max=20"`
	Locale      string  `json:"locale" validate:"max=10"`
	RoleID      uint    `json:"role_id" validate:"required"`
	IsActive    *bool   `json:"is_active"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
	}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, actor Actor) (*model.User, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}

	email := strings.ToLower(req.Email)
	if existing, _ := s.userRepo.FindByEmail(ctx, email); existing != nil {
		return nil, ErrEmailExists
	}

	role, err := s.roleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, storageErr(err, "role")
	}

	user := &model.User{
		Email:       email,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Locale:      req.Locale,
		RoleID:      &req.RoleID,
		IsActive:    true,
		Privileges:  role.Privileges, // privileges follow the role on create
	}
	user.Audit(actor.AuditID())

	if err := user.SetPassword(req.Password); err != nil {
		return nil, ErrUnexpected
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, storageErr(err, "user")
	}
	return s.userRepo.FindByID(ctx, user.ID)
}

func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.User, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	email := strings.ToLower(req.Email)
	if email != user.Email {
		if existing, _ := s.userRepo.FindByEmail(ctx, email); existing != nil {
			return nil, ErrEmailExists
		}
	}

	role, err := s.roleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, storageErr(err, "role")
	}
	roleChanged := user.RoleID == nil || *user.RoleID != req.RoleID

	user.Email = email
	user.FullName = req.FullName
	user.PhoneNumber = req.PhoneNumber
	user.Locale = req.Locale
	user.RoleID = &req.RoleID
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = actor.AuditID()

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, ErrUnexpected
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storageErr(err, "user")
	}
	// a role change resets privileges to the role's defaults
	if roleChanged {
		if err := s.userRepo.UpdatePrivileges(ctx, userID, role.Privileges); err != nil {
			return nil, storageErr(err, "user privileges")
		}
	}

	return s.userRepo.FindByID(ctx, userID)
}

func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID, actor Actor) error {
	if userID == actor.ID {
		return validationf("you cannot delete your own account")
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return ErrUserNotFound
	}
	return storageErr(s.userRepo.Delete(ctx, userID, actor.AuditID()), "user")
}

func (s *userService) UpdateUserPrivileges(ctx context.Context, userID uuid.UUID, privilegeCodes []string, actor Actor) (*model.User, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, ErrUserNotFound
	}

	privileges, err := s.privilegeRepo.FindByCodes(ctx, privilegeCodes)
	if err != nil {
		return nil, storageErr(err, "privileges")
	}
	if len(privileges) != len(privilegeCodes) {
		return nil, validationf("unknown privilege code in %v", privilegeCodes)
	}

	if err := s.userRepo.UpdatePrivileges(ctx, userID, privileges); err != nil {
		return nil, storageErr(err, "user privileges")
	}
	return s.userRepo.FindByID(ctx, userID)
}

func (s *userService) GetAllUsers(ctx context.Context, staffOnly bool) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx, staffOnly)
	if err != nil {
		return nil, storageErr(err, "users")
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) GetRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.roleRepo.FindAll(ctx)
	return roles, storageErr(err, "roles")
}

func (s *userService) GetPrivileges(ctx context.Context) ([]model.Privilege, error) {
	privileges, err := s.privilegeRepo.FindAll(ctx)
	return privileges, storageErr(err, "privileges")
}
