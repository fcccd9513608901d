package utils

import (
	"certify/models"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

// CertificateHash computes the content hash of a certificate over a canonical
// fixed-order payload. Every field here must be retrievable from the persisted
// Certificate/Activity so that verification can recompute the exact same
// digest later; in particular issuedAt is the stored issuance timestamp, never
// the current time.
func CertificateHash(studentID, activityID uint, title string, eventDate, issuedAt time.Time) string {
	payload := fmt.Sprintf("%d|%d|%s|%s|%d",
		studentID,
		activityID,
		title,
		eventDate.UTC().Format(time.RFC3339),
		issuedAt.UnixMilli(),
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ChainLink is the chain position of the certificate about to be issued.
type ChainLink struct {
	BlockNumber  int
	PreviousHash string
}

// NextChainLink reads the student's most recently issued certificate and
// returns the next chain position: blockNumber+1 linked to the previous hash,
// or block 1 with the genesis sentinel when the student has no certificates.
// Callers must hold the student's chain lock across this read and the
// subsequent insert.
func NextChainLink(db *gorm.DB, studentID uint) (ChainLink, error) {
	var prev models.Certificate
	err := db.Where("student_id = ?", studentID).Order("block_number desc").First(&prev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ChainLink{BlockNumber: 1, PreviousHash: models.GenesisPreviousHash}, nil
		}
		return ChainLink{}, err
	}
	return ChainLink{BlockNumber: prev.BlockNumber + 1, PreviousHash: prev.CertificateHash}, nil
}

// Block number and previous hash depend on reading the student's latest
// certificate, so concurrent issuance for the same student must be serialized.
var studentChainLocks sync.Map

// LockStudentChain acquires the per-student issuance lock and returns the
// unlock function.
func LockStudentChain(studentID uint) func() {
	v, _ := studentChainLocks.LoadOrStore(studentID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// IsChainConflict reports whether err is a uniqueness violation on insert,
// i.e. two issuances raced to the same chain position or certificate key. The
// composite (student_id, block_number) index raises this even if the keyed
// lock is bypassed (e.g. multiple processes against one database).
func IsChainConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
