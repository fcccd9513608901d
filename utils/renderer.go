package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"certify/config"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// CertificateData carries the fields rendered onto a certificate PDF.
type CertificateData struct {
	CertificateID    string
	StudentName      string
	Achievement      string
	OrganizingBody   string
	AchievementLevel string
	EventDate        time.Time
	IssuedAt         time.Time
}

// Renderer produces the certificate PDF artifact with an embedded QR code
// encoding the public verification URL. Implementations must not leave
// partial files behind on failure.
type Renderer interface {
	RenderCertificate(ctx context.Context, data CertificateData) (pdfPath string, verificationURL string, err error)
}

// CertRenderer is the renderer used by the issuance workflow. Tests swap it
// with a fake.
var CertRenderer Renderer = &PDFRenderer{}

// PDFRenderer renders an A4 portrait certificate with gofpdf.
type PDFRenderer struct{}

func (r *PDFRenderer) RenderCertificate(ctx context.Context, data CertificateData) (string, string, error) {
	if data.StudentName == "" || data.Achievement == "" || data.CertificateID == "" {
		return "", "", fmt.Errorf("missing required certificate fields")
	}

	verificationURL := fmt.Sprintf("%s/certificates/verify/%s", config.AppConfig.AppURL, data.CertificateID)

	qrPNG, err := qrcode.Encode(verificationURL, qrcode.High, 256)
	if err != nil {
		return "", "", fmt.Errorf("QR generation failed: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	// Double border
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(1.0)
	pdf.Rect(7, 7, pageW-14, pageH-14, "D")
	pdf.SetLineWidth(0.3)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")

	// QR code, top right
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("verify-qr", pageW-52, 16, 35, 35, false, opts, 0, "")
	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetXY(pageW-52, 52)
	pdf.CellFormat(35, 4, "SCAN TO VERIFY", "", 0, "C", false, 0, "")

	// Title block
	pdf.SetY(60)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 14, "CERTIFICATE OF ACHIEVEMENT", "", 1, "C", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(0, 7, "This is to certify that", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 12, strings.ToUpper(data.StudentName), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(0, 7, "has successfully completed", "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 10, strings.ToUpper(data.Achievement), "", "C", false)

	// Detail lines
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(51, 51, 51)
	level := data.AchievementLevel
	if level == "" {
		level = "College"
	}
	body := data.OrganizingBody
	if body == "" {
		body = "Unknown"
	}
	pdf.CellFormat(0, 6, "Achievement Level: "+level, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Organized by: "+body, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Event Date: "+data.EventDate.Format("January 2, 2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Issued on: "+data.IssuedAt.Format("January 2, 2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Certificate ID: "+data.CertificateID, "", 1, "L", false, 0, "")

	// Footer
	pdf.SetY(pageH - 25)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 5, "Certify - Credential Verification System", "", 1, "C", false, 0, "")

	if pdf.Err() {
		return "", "", fmt.Errorf("PDF layout failed: %w", pdf.Error())
	}

	// A timed-out render must fail closed before the artifact is written.
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	dir := config.AppConfig.CertificateDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}

	// Write to a temp file first so a failed render never leaves a readable
	// artifact at the final path.
	tmp, err := os.CreateTemp(dir, "render-*.pdf")
	if err != nil {
		return "", "", err
	}
	if err := pdf.Output(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("PDF output failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", err
	}

	finalPath := filepath.Join(dir, data.CertificateID+".pdf")
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		os.Remove(tmp.Name())
		return "", "", err
	}

	return finalPath, verificationURL, nil
}
