package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"courtreserve/internal/catalog"
	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// ReceiptService renders a PDF receipt for one booking.
type ReceiptService struct {
	Booking  BookingService
	Users    UserStore
	Currency string
	Location *time.Location
	Now      Clock
}

type receiptData struct {
	Booking   models.Booking
	UserName  string
	UserEmail string
	IssuedAt  time.Time
}

func (s ReceiptService) Generate(ctx context.Context, bookingID string, actor domain.Actor) ([]byte, string, error) {
	b, err := s.Booking.Get(ctx, bookingID, actor)
	if err != nil {
		return nil, "", err
	}
	data := receiptData{Booking: *b, IssuedAt: s.Now.now()}
	if s.Users != nil {
		if u, err := s.Users.Get(ctx, b.UserID); err == nil {
			data.UserName, data.UserEmail = u.Name, u.Email
		}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "receipts", "generate", fmt.Sprintf("booking=%s by=%s", b.ID, actor.UserID))
	pdf, name, err := buildReceiptPDF(data, strings.ToUpper(safe(s.Currency, "THB")), locOrLocal(s.Location))
	if err != nil {
		return nil, "", domain.InternalError{Msg: "render receipt", Err: err}
	}
	return pdf, name, nil
}

func buildReceiptPDF(d receiptData, currency string, loc *time.Location) ([]byte, string, error) {
	b := d.Booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	header := []string{
		fmt.Sprintf("Receipt No : RCPT-%s", shortID(b.ID)),
		fmt.Sprintf("Issued     : %s", utils.FormatDateTime(d.IssuedAt, loc)),
		fmt.Sprintf("Customer   : %s", safe(d.UserName, b.UserID)),
		fmt.Sprintf("Email      : %s", safe(d.UserEmail, "-")),
		fmt.Sprintf("Court      : %s", safe(b.CourtName, fmt.Sprintf("Court %d", b.CourtID))),
		fmt.Sprintf("Date       : %s", b.Date),
		fmt.Sprintf("Status     : %s", b.Status),
	}
	for _, line := range header {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Slots:")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for i, h := range b.Hours {
		price, _ := catalog.PriceForHour(h)
		pdf.Cell(0, 6, fmt.Sprintf("%d) %02d:00 - %02d:00   %s", i+1, h, (h+1)%24, utils.FormatAmount(currency, price)))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	amounts := [][2]string{
		{"Subtotal", utils.FormatAmount(currency, b.Subtotal)},
	}
	if b.DiscountCode != "" {
		amounts = append(amounts, [2]string{"Discount (" + b.DiscountCode + ")", "-" + utils.FormatAmount(currency, b.DiscountAmount)})
	}
	amounts = append(amounts,
		[2]string{"Total", utils.FormatAmount(currency, b.TotalAmount)},
		[2]string{"Paid", utils.FormatAmount(currency, b.PaidAmount)},
		[2]string{"Remaining", utils.FormatAmount(currency, b.RemainingAmount)},
	)
	for _, row := range amounts {
		style := ""
		if row[0] == "Total" {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 12)
		pdf.Cell(60, 7, row[0])
		pdf.Cell(0, 7, row[1])
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	note := "Please show this receipt at the front desk before play."
	if b.Source == models.SourceManual {
		note = "Booked at the front desk. " + note
	}
	pdf.MultiCell(0, 6, note, "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("RECEIPT_%s_%s.pdf", b.Date, safeFilenamePart(shortID(b.ID)))
	return buf.Bytes(), filename, nil
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 12 {
		return strings.ToUpper(id[:12])
	}
	return strings.ToUpper(id)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
