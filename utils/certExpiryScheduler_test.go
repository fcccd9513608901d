package utils

import (
	"testing"
	"time"

	"certify/database"
	"certify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpireCertificatesSweep(t *testing.T) {
	db := newTestDB(t)
	database.Database = database.DbInstance{Db: db}

	past := time.Now().AddDate(0, 0, -1)
	future := time.Now().AddDate(1, 0, 0)

	expired := seedCertificate(t, db, 1, 1, "hash-expired")
	require.NoError(t, db.Model(expired).Update("expires_at", past).Error)

	current := seedCertificate(t, db, 1, 2, "hash-current")
	require.NoError(t, db.Model(current).Update("expires_at", future).Error)

	revoked := seedCertificate(t, db, 1, 3, "hash-revoked")
	require.NoError(t, db.Model(revoked).Updates(map[string]interface{}{
		"status":     models.CertRevoked,
		"is_revoked": true,
		"expires_at": past,
	}).Error)

	ExpireCertificates()

	var got models.Certificate
	require.NoError(t, db.First(&got, expired.ID).Error)
	assert.Equal(t, models.CertExpired, got.Status)

	got = models.Certificate{}
	require.NoError(t, db.First(&got, current.ID).Error)
	assert.Equal(t, models.CertActive, got.Status)

	// Revoked stays revoked; expiry never overwrites a revocation.
	got = models.Certificate{}
	require.NoError(t, db.First(&got, revoked.ID).Error)
	assert.Equal(t, models.CertRevoked, got.Status)

	// Chain fields are untouched by the sweep.
	got = models.Certificate{}
	require.NoError(t, db.First(&got, expired.ID).Error)
	assert.Equal(t, "hash-expired", got.CertificateHash)
	assert.Equal(t, 1, got.BlockNumber)
}
