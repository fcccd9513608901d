package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"time"

	"certify/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// CertificateEmailData carries the fields needed to deliver an issued
// certificate. Everything here is read back from persisted records, so a
// resend works long after the original request is gone.
type CertificateEmailData struct {
	CertificateID    string
	PDFPath          string
	Achievement      string
	OrganizingBody   string
	AchievementLevel string
	EventDate        time.Time
}

// Mailer delivers certificate and review notification emails. The certificate
// PDF is attached as binary content, not a link.
type Mailer interface {
	SendCertificateIssued(ctx context.Context, email, name string, data CertificateEmailData) (messageID string, err error)
	SendActivityApproved(ctx context.Context, email, name, achievement string) error
	SendActivityRejected(ctx context.Context, email, name, achievement, reason string) error
}

// Mail is the mailer used by the issuance workflow and review handlers.
// Tests swap it with a fake.
var Mail Mailer = &SendGridMailer{}

// SendGridMailer sends through the SendGrid v3 API.
type SendGridMailer struct{}

func (m *SendGridMailer) SendCertificateIssued(ctx context.Context, email, name string, data CertificateEmailData) (string, error) {
	pdfBytes, err := os.ReadFile(data.PDFPath)
	if err != nil {
		return "", fmt.Errorf("certificate file not found: %s", data.PDFPath)
	}

	from := mail.NewEmail("Certify", config.AppConfig.EmailSender)
	to := mail.NewEmail(name, email)
	subject := "Official Certificate - " + data.Achievement

	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your achievement has been officially verified and certified. The certificate is attached to this email.</p>
		<div class="info-box">
			<strong>%s</strong><br>
			Organized by: %s<br>
			Level: %s<br>
			Event Date: %s
		</div>
		<p>Certificate ID: <strong>%s</strong> — save this for future reference.</p>
		<p>Anyone can verify this certificate online using the ID or by scanning the QR code on the PDF.</p>
		<a href="%s/certificates/verify/%s" class="btn">Verify Online</a>
	`, name, data.Achievement, data.OrganizingBody, data.AchievementLevel,
		data.EventDate.Format("January 2, 2006"), data.CertificateID,
		config.AppConfig.AppURL, data.CertificateID)

	message := mail.NewSingleEmail(from, subject, to, "", getEmailTemplate("Your Certificate Is Ready!", body))

	attachment := mail.NewAttachment()
	attachment.SetContent(base64.StdEncoding.EncodeToString(pdfBytes))
	attachment.SetType("application/pdf")
	attachment.SetFilename(data.CertificateID + ".pdf")
	attachment.SetDisposition("attachment")
	message.AddAttachment(attachment)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridApiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return "", err
	}
	if response.StatusCode >= 400 {
		return "", fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	messageID := ""
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}

	log.Printf("[EMAIL] Certificate %s sent to %s (message id %s)", data.CertificateID, email, messageID)
	return messageID, nil
}

func (m *SendGridMailer) SendActivityApproved(ctx context.Context, email, name, achievement string) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<div class="info-box"><strong>%s</strong> has been approved!</div>
		<p>Your certificate will be generated and sent to your email shortly.</p>
	`, name, achievement)

	return m.send(ctx, email, name, "Application Approved!", getEmailTemplate("Application Approved!", body))
}

func (m *SendGridMailer) SendActivityRejected(ctx context.Context, email, name, achievement, reason string) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Unfortunately, your submission <strong>%s</strong> has been rejected.</p>
		<div class="info-box"><strong>Reason:</strong><br>%s</div>
		<p>You can resubmit your application with the necessary corrections.</p>
	`, name, achievement, reason)

	return m.send(ctx, email, name, "Application Status Update", getEmailTemplate("Application Rejected", body))
}

func (m *SendGridMailer) send(ctx context.Context, email, name, subject, html string) error {
	from := mail.NewEmail("Certify", config.AppConfig.EmailSender)
	to := mail.NewEmail(name, email)
	message := mail.NewSingleEmail(from, subject, to, "", html)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridApiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// getEmailTemplate wraps body content in the shared HTML shell
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1F40AF; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A1A2E; line-height: 1.6; }
			.content h2 { color: #1F40AF; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #1F40AF; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #1F40AF; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>CERTIFY</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				Certify - Credential Verification System<br>
				This is an automated email. Please do not reply to this address.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}
