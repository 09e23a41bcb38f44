package receipt

import (
	"bytes"
	"fmt"
	"time"

	"campark/internal/session"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// FormatAmount renders an integer cent amount as "MYR 5.00". Negative amounts
// keep their sign in front of the number.
func FormatAmount(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, cents/100, cents%100)
}

func formatDuration(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

// Generate renders a completed session as a PDF receipt with an embedded QR
// code for gate-side verification.
func Generate(detail *session.SessionWithDetails, userName string) ([]byte, error) {
	var durationSeconds, feeCents int64
	if detail.DurationSeconds != nil {
		durationSeconds = *detail.DurationSeconds
	}
	if detail.FeeCents != nil {
		feeCents = *detail.FeeCents
	}

	qrData := fmt.Sprintf("session=%d&plate=%s&fee=%d&ts=%d",
		detail.ID, detail.LicensePlate, feeCents, time.Now().Unix())
	qrCode, err := qrcode.Encode(qrData, qrcode.Medium, 128)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	endTime := ""
	if detail.EndTime != nil {
		endTime = detail.EndTime.Format("02 Jan 2006 15:04")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 15, "Parking Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 8, fmt.Sprintf(
		"Name: %s\nLicense plate: %s\nLot: %s\nSpot: %s (row %s)\nEntry: %s\nExit: %s\nDuration: %s",
		userName,
		detail.LicensePlate,
		detail.LotName,
		detail.SpotNumber,
		detail.RowID,
		detail.StartTime.Format("02 Jan 2006 15:04"),
		endTime,
		formatDuration(durationSeconds),
	), "", "L", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Total: %s", FormatAmount(feeCents, detail.Currency)), "T", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Payment: %s", detail.PaymentStatus), "", 1, "L", false, 0, "")

	imgOpts := gofpdf.ImageOptions{ImageType: "png"}
	pdf.RegisterImageOptionsReader("qr", imgOpts, bytes.NewReader(qrCode))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imgOpts, 0, "")

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 10, "Keep this receipt for campus security checks.", "T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	return buf.Bytes(), nil
}
