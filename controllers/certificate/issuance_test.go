package certificateController_test

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"

	"certify/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftThenSubmitIssuesGenesisCertificate(t *testing.T) {
	app, db, mailer := setupTestApp(t)

	student := seedUser(t, db, "Asha", models.RoleStudent)
	faculty := seedUser(t, db, "DrRao", models.RoleFaculty)
	activity := seedApprovedActivity(t, db, student.ID, "National Hackathon Winner")
	token := tokenFor(t, faculty)

	// Phase 1: draft renders the artifact but writes nothing to the DB.
	code, body := doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/generate/%d", activity.ID), token, nil)
	require.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]interface{})
	certificateID := data["certificateId"].(string)
	filePath := data["filePath"].(string)
	assert.NotEmpty(t, certificateID)
	assert.Equal(t, student.Email, data["studentEmail"])

	_, err := os.Stat(filePath)
	require.NoError(t, err, "draft must leave the rendered artifact on disk")

	var count int64
	db.Model(&models.Certificate{}).Count(&count)
	assert.Zero(t, count, "draft must not persist a certificate")

	// Phase 2: submit commits the draft.
	code, body = doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/submit/%d", activity.ID), token,
		map[string]string{"certificateId": certificateID, "filePath": filePath})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["emailSent"])
	assert.Equal(t, "msg-test-1", body["messageId"])
	assert.Equal(t, float64(1), body["blockNumber"])

	var cert models.Certificate
	require.NoError(t, db.Where("certificate_id = ?", certificateID).First(&cert).Error)
	assert.Equal(t, 1, cert.BlockNumber)
	assert.Equal(t, models.GenesisPreviousHash, cert.PreviousHash)
	assert.Equal(t, student.ID, cert.StudentID)
	assert.Equal(t, faculty.ID, cert.IssuedBy)
	assert.NotEmpty(t, cert.VerificationCode)
	require.NotNil(t, cert.ExpiresAt)

	var updated models.Activity
	require.NoError(t, db.First(&updated, activity.ID).Error)
	assert.Equal(t, models.ActivityCertified, updated.Status)
	assert.Equal(t, cert.CertificateID, updated.CertificateRef)
	assert.Equal(t, cert.CertificateHash, updated.CertificateHash)
	assert.Equal(t, models.EmailSent, updated.EmailStatus)
	require.NotNil(t, updated.CertifiedAt)

	require.Equal(t, 1, mailer.deliveries())
	assert.Equal(t, cert.PDFPath, mailer.certSent[0].PDFPath)
}

func TestSecondCertificateExtendsChain(t *testing.T) {
	app, db, _ := setupTestApp(t)

	student := seedUser(t, db, "Asha", models.RoleStudent)
	faculty := seedUser(t, db, "DrRao", models.RoleFaculty)
	token := tokenFor(t, faculty)

	first := issueCertificate(t, app, db, token,
		seedApprovedActivity(t, db, student.ID, "Hackathon Winner").ID)
	second := issueCertificate(t, app, db, token,
		seedApprovedActivity(t, db, student.ID, "Paper Presentation").ID)

	assert.Equal(t, 1, first.BlockNumber)
	assert.Equal(t, models.GenesisPreviousHash, first.PreviousHash)
	assert.Equal(t, 2, second.BlockNumber)
	assert.Equal(t, first.CertificateHash, second.PreviousHash)
	assert.NotEqual(t, first.CertificateHash, second.CertificateHash)
}

func TestChainsAreIndependentPerStudent(t *testing.T) {
	app, db, _ := setupTestApp(t)

	studentA := seedUser(t, db, "Asha", models.RoleStudent)
	studentB := seedUser(t, db, "Vikram", models.RoleStudent)
	faculty := seedUser(t, db, "DrRao", models.RoleFaculty)
	token := tokenFor(t, faculty)

	issueCertificate(t, app, db, token, seedApprovedActivity(t, db, studentA.ID, "First A").ID)
	certB := issueCertificate(t, app, db, token, seedApprovedActivity(t, db, studentB.ID, "First B").ID)

	assert.Equal(t, 1, certB.BlockNumber)
	assert.Equal(t, models.GenesisPreviousHash, certB.PreviousHash)
}

func TestIssueTwiceForSameActivityConflicts(t *testing.T) {
	app, db, _ := setupTestApp(t)

	student := seedUser(t, db, "Asha", models.RoleStudent)
	faculty := seedUser(t, db, "DrRao", models.RoleFaculty)
	activity := seedApprovedActivity(t, db, student.ID, "Hackathon Winner")
	token := tokenFor(t, faculty)

	issueCertificate(t, app, db, token, activity.ID)

	code, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/issue/%d", activity.ID), token, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/submit/%d", activity.ID), token,
		map[string]string{"certificateId": "CERT-whatever", "filePath": "/tmp/nope.pdf"})
	assert.Equal(t, http.StatusConflict, code)

	var count int64
	db.Model(&models.Certificate{}).Where("activity_id = ?", activity.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDraftRequiresApprovedActivity(t *testing.T) {
	app, db, _ := setupTestApp(t)

	student := seedUser(t, db, "Asha", models.RoleStudent)
	faculty := seedUser(t, db, "DrRao", models.RoleFaculty)
	token := tokenFor(t, faculty)

	pending := seedApprovedActivity(t, db, student.ID, "Still Pending")
	require.NoError(t, db.Model(pending).Update("status", models.ActivityPending).Error)

	code, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/generate/%d", pending.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, app, http.MethodPost, "/certificates/generate/99999", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSubmitWithMissingArtifactFails(t *testing.T) {
	app, db, _ := setupTestApp(t)

	student := seedUser(t, db, "Asha", models.RoleStudent)
	faculty := seedUser(t, db, "DrRao", models.RoleFaculty)
	activity := seedApprovedActivity(t, db, student.ID, "Hackathon Winner")
	token := tokenFor(t, faculty)

	code, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/submit/%d", activity.ID), token,
		map[string]string{"certificateId": "CERT-gone", "filePath": "/tmp/does-not-exist.pdf"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	var count int64
	db.Model(&models.Certificate{}).Count(&count)
	assert.Zero(t, count)
}

func TestSubmitValidatesRequiredFields(t *testing.T) {
	app, db, _ := setupTestApp(t)

	student := seedUser(t, db, "Asha", models.RoleStudent)
	faculty := seedUser(t, db, "DrRao", models.RoleFaculty)
	activity := seedApprovedActivity(t, db, student.ID, "Hackathon Winner")
	token := tokenFor(t, faculty)

	code, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/submit/%d", activity.ID), token,
		map[string]string{"certificateId": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestIssuanceForbiddenForStudents(t *testing.T) {
	app, db, _ := setupTestApp(t)

	student := seedUser(t, db, "Asha", models.RoleStudent)
	activity := seedApprovedActivity(t, db, student.ID, "Hackathon Winner")
	token := tokenFor(t, student)

	code, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/issue/%d", activity.ID), token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/generate/%d", activity.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	var count int64
	db.Model(&models.Certificate{}).Count(&count)
	assert.Zero(t, count, "role check must run before any side effect")
}

func TestDeliveryFailureKeepsCertificate(t *testing.T) {
	app, db, mailer := setupTestApp(t)

	student := seedUser(t, db, "Asha", models.RoleStudent)
	faculty := seedUser(t, db, "DrRao", models.RoleFaculty)
	activity := seedApprovedActivity(t, db, student.ID, "Hackathon Winner")
	token := tokenFor(t, faculty)

	mailer.setFailure(errors.New("sendgrid returned status 503"))

	code, body := doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/issue/%d", activity.ID), token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["certificateSaved"])
	assert.Equal(t, false, body["emailSent"])
	assert.Contains(t, body["error"], "503")

	var cert models.Certificate
	require.NoError(t, db.Where("activity_id = ?", activity.ID).First(&cert).Error)
	assert.Equal(t, 1, cert.BlockNumber)

	var updated models.Activity
	require.NoError(t, db.First(&updated, activity.ID).Error)
	assert.Equal(t, models.ActivityCertified, updated.Status, "issuance must survive delivery failure")
	assert.Equal(t, models.EmailFailed, updated.EmailStatus)
	assert.Contains(t, updated.EmailError, "503")
}

func TestResendAfterDeliveryFailure(t *testing.T) {
	app, db, mailer := setupTestApp(t)

	student := seedUser(t, db, "Asha", models.RoleStudent)
	faculty := seedUser(t, db, "DrRao", models.RoleFaculty)
	activity := seedApprovedActivity(t, db, student.ID, "Hackathon Winner")
	token := tokenFor(t, faculty)

	mailer.setFailure(errors.New("sendgrid returned status 503"))
	doJSON(t, app, http.MethodPost, fmt.Sprintf("/certificates/issue/%d", activity.ID), token, nil)

	var cert models.Certificate
	require.NoError(t, db.Where("activity_id = ?", activity.ID).First(&cert).Error)

	// First resend still fails.
	code, body := doJSON(t, app, http.MethodPost, "/certificates/resend/"+cert.CertificateID, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["emailSent"])

	// Outage clears; second resend succeeds.
	mailer.setFailure(nil)
	code, body = doJSON(t, app, http.MethodPost, "/certificates/resend/"+cert.CertificateID, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["emailSent"])
	assert.Equal(t, "msg-test-1", body["messageId"])

	var updated models.Activity
	require.NoError(t, db.First(&updated, activity.ID).Error)
	assert.Equal(t, models.EmailSent, updated.EmailStatus)
	assert.Empty(t, updated.EmailError)
	assert.Equal(t, 2, updated.ResendAttempts)
	require.NotNil(t, updated.EmailSentAt)
}

func TestResendWithMissingArtifact(t *testing.T) {
	app, db, _ := setupTestApp(t)

	student := seedUser(t, db, "Asha", models.RoleStudent)
	faculty := seedUser(t, db, "DrRao", models.RoleFaculty)
	activity := seedApprovedActivity(t, db, student.ID, "Hackathon Winner")
	token := tokenFor(t, faculty)

	cert := issueCertificate(t, app, db, token, activity.ID)
	require.NoError(t, os.Remove(cert.PDFPath))

	code, _ := doJSON(t, app, http.MethodPost, "/certificates/resend/"+cert.CertificateID, token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = doJSON(t, app, http.MethodPost, "/certificates/resend/CERT-unknown", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetMyCertificates(t *testing.T) {
	app, db, _ := setupTestApp(t)

	student := seedUser(t, db, "Asha", models.RoleStudent)
	other := seedUser(t, db, "Vikram", models.RoleStudent)
	faculty := seedUser(t, db, "DrRao", models.RoleFaculty)
	issuerToken := tokenFor(t, faculty)

	issueCertificate(t, app, db, issuerToken, seedApprovedActivity(t, db, student.ID, "First").ID)
	issueCertificate(t, app, db, issuerToken, seedApprovedActivity(t, db, student.ID, "Second").ID)
	issueCertificate(t, app, db, issuerToken, seedApprovedActivity(t, db, other.ID, "Other Student").ID)

	code, body := doJSON(t, app, http.MethodGet, "/certificates/my-certificates", tokenFor(t, student), nil)
	require.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])

	list := data["certificates"].([]interface{})
	first := list[0].(map[string]interface{})
	second := list[1].(map[string]interface{})
	assert.Equal(t, float64(1), first["blockNumber"])
	assert.Equal(t, float64(2), second["blockNumber"])
	assert.Equal(t, first["hash"], second["previousHash"])
}
