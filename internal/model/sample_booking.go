package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingDelivered BookingStatus = "delivered"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingDelivered, BookingCancelled:
		return true
	}
	return false
}

// SampleBooking is a prospect's request for a tasting sample
type SampleBooking struct {
	BaseModel
	ContactName   string        `gorm:"type:varchar(255);not null" json:"contact_name"`
	CompanyName   string        `gorm:"type:varchar(255)" json:"company_name"`
	Email         string        `gorm:"type:varchar(255);not null" json:"email"`
	Phone         string        `gorm:"type:varchar(30)" json:"phone"`
	Address       string        `gorm:"type:text" json:"address"`
	RequestedDate time.Time     `gorm:"type:date;not null" json:"requested_date"`
	Status        BookingStatus `gorm:"type:varchar(20);not null;index;default:pending" json:"status"`
	Notes         string        `gorm:"type:text" json:"notes"`
}
