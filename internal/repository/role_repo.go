package repository

import (
	"context"
	"errors"

	"go-roastery-api/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll(ctx context.Context) ([]model.Role, error)
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByCode(ctx context.Context, code string) (*model.Role, error)
	Create(ctx context.Context, role *model.Role) error
	SeedDefaults(ctx context.Context) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Preload("Privileges").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Preload("Privileges").First(&role, id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(ctx context.Context, code string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) Create(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

// SeedDefaults creates missing roles and attaches their default privileges.
// MASTER_ADMIN gets everything, ADMIN everything but user management, CUSTOMER nothing.
func (r *roleRepo) SeedDefaults(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	var privileges []model.Privilege
	if err := db.Find(&privileges).Error; err != nil {
		return err
	}

	for _, defaultRole := range model.DefaultRoles {
		role := defaultRole
		err := db.Where("code = ?", role.Code).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var grant []model.Privilege
		switch role.Code {
		case model.RoleMasterAdmin:
			grant = privileges
		case model.RoleAdmin:
			for _, p := range privileges {
				if !model.UserManagementPrivileges[p.Code] {
					grant = append(grant, p)
				}
			}
		}
		if len(grant) > 0 {
			if err := db.Model(&role).Association("Privileges").Replace(grant); err != nil {
				return err
			}
		}
	}
	return nil
}
