package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Certificate lifecycle status
const (
	CertActive  = "active"
	CertRevoked = "revoked"
	CertExpired = "expired"
	CertPending = "pending"
)

// GenesisPreviousHash is the previous-hash sentinel for a student's first certificate.
const GenesisPreviousHash = "0"

// Certificate is the authoritative record of an issued credential.
// CertificateHash, BlockNumber, PreviousHash and IssuedAt are immutable once
// persisted; only status, counters and timestamps may change afterwards.
type Certificate struct {
	gorm.Model
	CertificateID    string `gorm:"uniqueIndex;not null"`
	ActivityID       uint   `gorm:"uniqueIndex;not null"` // one certificate per activity
	Activity         Activity
	StudentID        uint `gorm:"index;not null;uniqueIndex:idx_student_block"`
	Student          User `gorm:"foreignKey:StudentID"`
	IssuedBy         uint `gorm:"not null"`
	Title            string
	OrganizingBody   string
	AchievementLevel string
	EventDate        time.Time

	// Chain fields: per-student sequential index plus hash linkage.
	// The composite unique index on (student_id, block_number) is the backstop
	// against two concurrent issuances claiming the same chain position.
	CertificateHash string `gorm:"uniqueIndex;not null"`
	PreviousHash    string `gorm:"not null"`
	BlockNumber     int    `gorm:"not null;uniqueIndex:idx_student_block"`
	VerificationCode string `gorm:"uniqueIndex;not null"`

	// Artifacts
	PDFPath  string `gorm:"not null"` // a certificate without a renderable artifact is invalid
	QRCodeURL string `gorm:"default:''"`

	Status           string `gorm:"default:'active';index"`
	IsRevoked        bool   `gorm:"default:false"`
	RevocationReason string `gorm:"default:''"`

	IssuedAt  time.Time `gorm:"not null;index"` // the exact timestamp hashed into CertificateHash
	ExpiresAt *time.Time

	// Counters are only ever mutated through atomic SQL increments.
	VerificationCount int `gorm:"default:0"`
	DownloadCount     int `gorm:"default:0"`
	ViewCount         int `gorm:"default:0"`
	LastVerifiedAt    *time.Time
	LastDownloadedAt  *time.Time
	LastViewedAt      *time.Time

	Metadata datatypes.JSON `json:"metadata"` // issuing IP, user agent, issued-from
}

// IsValid reports whether the certificate is currently honored: active,
// not revoked, and not past its expiry.
func (cert *Certificate) IsValid() bool {
	return cert.Status == CertActive && !cert.IsRevoked &&
		(cert.ExpiresAt == nil || cert.ExpiresAt.After(time.Now()))
}

// IsExpired reports whether the expiry date has passed.
func (cert *Certificate) IsExpired() bool {
	return cert.ExpiresAt != nil && cert.ExpiresAt.Before(time.Now())
}

// CertificateVerification is one append-only entry in a certificate's
// verification history. Rows are inserted on every verification attempt that
// resolves a certificate, regardless of the verification outcome.
type CertificateVerification struct {
	gorm.Model
	CertificateID uint      `gorm:"index;not null"` // FK to Certificate primary key
	VerifiedAt    time.Time `gorm:"not null"`
	VerifiedBy    string    `gorm:"default:'public'"`
	IPAddress     string    `gorm:"default:''"`
	UserAgent     string    `gorm:"default:''"`
}
