package model

type Agent struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Email    string `gorm:"type:varchar(255);uniqueIndex" json:"email" validate:"required,email"`
	Phone    string `gorm:"type:varchar(30)" json:"phone"`
	IsActive bool   `gorm:"not null" json:"is_active"`
}
