package certificateController_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"certify/config"
	"certify/database"
	"certify/middleware"
	"certify/models"
	certificateRoutes "certify/routers/certificateRoutes"
	"certify/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestApp wires a fresh in-memory database, test config, fake mailer and
// fake renderer behind the real route chain.
func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB, *fakeMailer) {
	t.Helper()

	config.AppConfig = &config.Config{
		Port:             "3000",
		JWTKey:           "test-secret",
		EmailSender:      "certificates@example.edu",
		AppURL:           "http://localhost:3000",
		CertificateDir:   t.TempDir(),
		EmailTimeoutSec:  2,
		RenderTimeoutSec: 2,
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	mailer := &fakeMailer{}
	prevMail := utils.Mail
	utils.Mail = mailer
	prevRenderer := utils.CertRenderer
	utils.CertRenderer = &fakeRenderer{}
	t.Cleanup(func() {
		utils.Mail = prevMail
		utils.CertRenderer = prevRenderer
	})

	app := fiber.New()
	certificateRoutes.SetupCertificateRoutes(app)
	return app, db, mailer
}

// fakeMailer records deliveries and can be told to fail.
type fakeMailer struct {
	mu       sync.Mutex
	failWith error

	certSent []utils.CertificateEmailData
	sentTo   []string
}

func (m *fakeMailer) SendCertificateIssued(_ context.Context, email, _ string, data utils.CertificateEmailData) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return "", m.failWith
	}
	if _, err := os.Stat(data.PDFPath); err != nil {
		return "", errors.New("certificate file not found: " + data.PDFPath)
	}
	m.certSent = append(m.certSent, data)
	m.sentTo = append(m.sentTo, email)
	return "msg-test-1", nil
}

func (m *fakeMailer) SendActivityApproved(_ context.Context, email, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentTo = append(m.sentTo, email)
	return m.failWith
}

func (m *fakeMailer) SendActivityRejected(_ context.Context, email, _, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentTo = append(m.sentTo, email)
	return m.failWith
}

func (m *fakeMailer) setFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *fakeMailer) deliveries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.certSent)
}

// fakeRenderer writes a small placeholder artifact instead of a real PDF.
type fakeRenderer struct{}

func (r *fakeRenderer) RenderCertificate(_ context.Context, data utils.CertificateData) (string, string, error) {
	dir := config.AppConfig.CertificateDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}
	path := filepath.Join(dir, data.CertificateID+".pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 test artifact"), 0644); err != nil {
		return "", "", err
	}
	url := fmt.Sprintf("%s/certificates/verify/%s", config.AppConfig.AppURL, data.CertificateID)
	return path, url, nil
}

func seedUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.edu", name, uuid.NewString()[:8]),
		Role:     role,
		Password: "hashed-password",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedApprovedActivity(t *testing.T, db *gorm.DB, studentID uint, title string) *models.Activity {
	t.Helper()
	now := time.Now()
	activity := &models.Activity{
		StudentID:        studentID,
		Title:            title,
		OrganizingBody:   "IEEE Student Branch",
		AchievementLevel: "National",
		EventDate:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:           models.ActivityApproved,
		ReviewedAt:       &now,
	}
	require.NoError(t, db.Create(activity).Error)
	return activity
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	require.NoError(t, err)
	return token
}

// doJSON performs a request against the app and decodes the JSON response.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := map[string]interface{}{}
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "" &&
		resp.Header.Get("Content-Type") != "application/pdf" {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

// issueCertificate runs the single-step issue endpoint and returns the
// persisted certificate.
func issueCertificate(t *testing.T, app *fiber.App, db *gorm.DB, issuerToken string, activityID uint) *models.Certificate {
	t.Helper()

	code, body := doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/issue/%d", activityID), issuerToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"], "issue response: %v", body)

	var cert models.Certificate
	require.NoError(t, db.Where("activity_id = ?", activityID).First(&cert).Error)
	return &cert
}
