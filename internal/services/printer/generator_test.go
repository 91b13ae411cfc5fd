package printer

import (
	"bytes"
	"testing"
	"time"

	"github.com/mwalther/equipcore/internal/models"
	"github.com/mwalther/equipcore/internal/services/assets"
)

func sampleData() assets.DocumentData {
	return assets.DocumentData{
		Company: models.CompanySettings{
			CompanyName: "Acme GmbH",
			Street:      "Musterstr. 1",
			ZipCity:     "10115 Berlin",
		},
		User: models.User{Name: "Jane Doe", Username: "jane"},
		Item: models.Item{
			AssetTag:     "#000042",
			Category:     "Notebook",
			Manufacturer: "Lenovo",
			Model:        "X1",
			SerialNumber: "SN-1",
		},
		Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestReceiptProducesPDF(t *testing.T) {
	content, err := New().Receipt(sampleData())
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Errorf("output does not start with %%PDF, got %q", content[:8])
	}
	if len(content) < 1000 {
		t.Errorf("suspiciously small PDF: %d bytes", len(content))
	}
}

func TestReturnFormProducesPDF(t *testing.T) {
	data := sampleData()
	data.Notes = "Scratch on lid"
	data.ReturnItems = []assets.ReturnedItem{
		{Name: "Charger", Quantity: 1, Returned: true},
		{Name: "Dock", Quantity: 1, Returned: false},
	}

	content, err := New().ReturnForm(data)
	if err != nil {
		t.Fatalf("return form: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Errorf("output does not start with %%PDF")
	}
}

// A malformed signature must not break document generation; it is simply
// left off the page.
func TestInvalidSignatureIsIgnored(t *testing.T) {
	data := sampleData()
	data.Signature = "not-base64!!"

	if _, err := New().Receipt(data); err != nil {
		t.Fatalf("receipt with bad signature: %v", err)
	}
}
