package printer

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/mwalther/equipcore/internal/services/assets"
)

// Generator renders receipt and return-form PDFs. It implements
// assets.DocumentGenerator; the lifecycle engine only sees the bytes.
type Generator struct{}

// New creates a PDF generator.
func New() *Generator {
	return &Generator{}
}

// Receipt renders the handover receipt signed when equipment is assigned.
func (g *Generator) Receipt(data assets.DocumentData) ([]byte, error) {
	pdf, err := g.newDocument("Equipment Receipt", data)
	if err != nil {
		return nil, err
	}

	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, fmt.Sprintf(
		"I, %s, confirm receipt of the equipment listed above. I will treat it with care and return it upon request or at the end of my employment.",
		data.User.DisplayName()), "", "L", false)

	g.signatureBlock(pdf, data)
	return render(pdf)
}

// ReturnForm renders the acknowledgement issued when equipment comes back
// to stock.
func (g *Generator) ReturnForm(data assets.DocumentData) ([]byte, error) {
	pdf, err := g.newDocument("Equipment Return Form", data)
	if err != nil {
		return nil, err
	}

	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, fmt.Sprintf(
		"The equipment listed above was returned by %s and taken back to stock.",
		data.User.DisplayName()), "", "L", false)
	pdf.Ln(2)

	if len(data.ReturnItems) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Returned with:", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, item := range data.ReturnItems {
			mark := "missing"
			if item.Returned {
				mark = "ok"
			}
			qty := item.Quantity
			if qty == 0 {
				qty = 1
			}
			pdf.CellFormat(0, 5, fmt.Sprintf("  - %dx %s (%s)", qty, item.Name, mark), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}

	if data.Notes != "" {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Notes:", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, data.Notes, "", "L", false)
		pdf.Ln(2)
	}

	g.signatureBlock(pdf, data)
	return render(pdf)
}

// newDocument builds the shared page skeleton: company header, title,
// item table and an asset-tag QR code in the corner.
func (g *Generator) newDocument(title string, data assets.DocumentData) (*gofpdf.Fpdf, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// Company header
	pdf.SetFont("Arial", "B", 14)
	company := data.Company.CompanyName
	if company == "" {
		company = "Equipment Management"
	}
	pdf.CellFormat(0, 7, company, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range []string{data.Company.Street, data.Company.ZipCity, data.Company.Country} {
		if line != "" {
			pdf.CellFormat(0, 4, line, "", 1, "L", false, 0, "")
		}
	}

	// Asset tag QR, top right
	if data.Item.AssetTag != "" {
		png, err := qrcode.Encode(data.Item.AssetTag, qrcode.Low, 256)
		if err != nil {
			return nil, fmt.Errorf("encoding asset tag QR: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("asset_qr", opts, bytes.NewReader(png))
		pdf.ImageOptions("asset_qr", 166, 18, 24, 24, false, opts, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	rows := [][2]string{
		{"Asset tag", data.Item.AssetTag},
		{"Category", data.Item.Category},
		{"Manufacturer", data.Item.Manufacturer},
		{"Model", data.Item.Model},
		{"Serial number", data.Item.SerialNumber},
		{"Employee", data.User.DisplayName()},
		{"Date", data.Date.Format("2006-01-02")},
	}
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 6, row[0], "B", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, row[1], "B", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	return pdf, nil
}

// signatureBlock draws the captured signature if one was supplied,
// otherwise an empty signing line.
func (g *Generator) signatureBlock(pdf *gofpdf.Fpdf, data assets.DocumentData) {
	pdf.Ln(12)
	if data.Signature != "" {
		if png, err := base64.StdEncoding.DecodeString(data.Signature); err == nil {
			opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
			pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(png))
			pdf.ImageOptions("signature", 20, pdf.GetY(), 50, 0, true, opts, 0, "")
			pdf.Ln(2)
		}
	}
	pdf.CellFormat(70, 5, "", "T", 0, "L", false, 0, "")
	pdf.CellFormat(20, 5, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(70, 5, "", "T", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(70, 4, data.User.DisplayName(), "", 0, "L", false, 0, "")
	pdf.CellFormat(20, 4, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(70, 4, fmt.Sprintf("Date: %s", data.Date.Format("2006-01-02")), "", 1, "L", false, 0, "")
}

func render(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
