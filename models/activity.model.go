package models

import (
	"time"

	"gorm.io/gorm"
)

// Activity review status
const (
	ActivityPending   = "pending"
	ActivityApproved  = "approved"
	ActivityRejected  = "rejected"
	ActivityFlagged   = "flagged"
	ActivityCertified = "certified"
)

// Email delivery status for an issued certificate
const (
	EmailPending = "PENDING"
	EmailSent    = "SENT"
	EmailFailed  = "FAILED"
)

// Activity is a student-submitted achievement record subject to faculty review.
// Certificate content itself (hash, PDF, QR) lives on Certificate; the fields
// below only carry denormalized copies for quick display.
type Activity struct {
	gorm.Model
	StudentID        uint      `gorm:"index;not null"`
	Student          User      `gorm:"foreignKey:StudentID"`
	Title            string    `gorm:"not null"`
	Description      string    `gorm:"default:''"`
	Category         string    `gorm:"default:''"`
	OrganizingBody   string    `gorm:"default:''"`
	AchievementLevel string    `gorm:"default:'College'"` // College, University, State, National, International
	EventDate        time.Time `json:"event_date"`
	Status           string    `gorm:"default:'pending';index"`

	// Review fields
	ReviewedBy      *uint      `json:"reviewed_by"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	FacultyComment  string     `gorm:"default:''"`
	RejectionReason string     `gorm:"default:''"`

	// Set by the issuance workflow only after a Certificate is durably persisted
	CertificateID   *uint      `json:"certificate_id"`
	CertificateRef  string     `gorm:"default:''"` // denormalized human-readable certificate identifier
	CertificateHash string     `gorm:"default:''"`
	CertifiedBy     *uint      `json:"certified_by"`
	CertifiedAt     *time.Time `json:"certified_at"`

	// Email delivery state machine: PENDING -> SENT, or PENDING -> FAILED -> (resend) -> SENT|FAILED
	EmailStatus   string     `gorm:"default:''"`
	EmailError    string     `gorm:"default:''"`
	EmailSentAt   *time.Time `json:"email_sent_at"`
	ResendAttempts int       `gorm:"default:0"`
}
