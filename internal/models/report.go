package models

import "time"

// Report is a user-submitted complaint about another user
type Report struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Reason         string    `json:"reason" gorm:"size:1000;not null"`
	ReporterID     uint      `json:"reporter_id" gorm:"not null;index"`
	ReportedUserID uint      `json:"reported_user_id" gorm:"not null;index"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateReportRequest defines the request body for reporting a user
type CreateReportRequest struct {
	ReportedUserID uint   `json:"reported_user_id" validate:"required"`
	Reason         string `json:"reason" validate:"required,notblank,max=1000"`
}
