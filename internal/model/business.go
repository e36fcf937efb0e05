package model

import "github.com/google/uuid"

type PipelineStage string

const (
	StageLead         PipelineStage = "lead"
	StageContacted    PipelineStage = "contacted"
	StageSampleSent   PipelineStage = "sample_sent"
	StageNegotiating  PipelineStage = "negotiating"
	StageActiveClient PipelineStage = "active_client"
	StageChurned      PipelineStage = "churned"
)

// PipelineStages in display order
var PipelineStages = []PipelineStage{
	StageLead, StageContacted, StageSampleSent, StageNegotiating, StageActiveClient, StageChurned,
}

func (s PipelineStage) Valid() bool {
	for _, st := range PipelineStages {
		if s == st {
			return true
		}
	}
	return false
}

type BusinessSource string

const (
	SourceManual        BusinessSource = "manual"
	SourceSampleBooking BusinessSource = "sample_booking"
	SourceSignup        BusinessSource = "signup"
	SourceReferral      BusinessSource = "referral"
)

type Business struct {
	BaseModel
	Name            string         `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	ContactName     string         `gorm:"type:varchar(255)" json:"contact_name"`
	Email           string         `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	Phone           string         `gorm:"type:varchar(30)" json:"phone"`
	Address         string         `gorm:"type:text" json:"address"`
	Stage           PipelineStage  `gorm:"type:varchar(20);not null;index" json:"stage"`
	Source          BusinessSource `gorm:"type:varchar(20);not null" json:"source" validate:"omitempty,oneof=manual sample_booking signup referral"`
	Tags            []string       `gorm:"type:text;serializer:json" json:"tags"`
	Notes           string         `gorm:"type:text" json:"notes"`
	ProfileID       *uuid.UUID     `gorm:"type:uuid;index" json:"profile_id,omitempty"`
	SampleBookingID *uuid.UUID     `gorm:"type:uuid;uniqueIndex" json:"sample_booking_id,omitempty"`
	Agents          []Agent        `gorm:"many2many:business_agents;" json:"agents,omitempty"`
}

// HasTag is a case-sensitive membership test
func (b *Business) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type ActivityType string

const (
	ActivityNote         ActivityType = "note"
	ActivityCall         ActivityType = "call"
	ActivityEmail        ActivityType = "email"
	ActivityMeeting      ActivityType = "meeting"
	ActivityStatusChange ActivityType = "status_change"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityNote, ActivityCall, ActivityEmail, ActivityMeeting, ActivityStatusChange:
		return true
	}
	return false
}

// BusinessActivity is an append-only log row; there is no update or delete path
type BusinessActivity struct {
	BaseModel
	BusinessID uuid.UUID    `gorm:"type:uuid;not null;index" json:"business_id"`
	Type       ActivityType `gorm:"type:varchar(20);not null" json:"type"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	FromStage  string       `gorm:"type:varchar(20)" json:"from_stage,omitempty"`
	ToStage    string       `gorm:"type:varchar(20)" json:"to_stage,omitempty"`
}
