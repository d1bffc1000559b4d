package catalog

import (
	"context"
	"errors"
	"testing"

	"go-pos-backoffice/internal/database/testdb"
	"go-pos-backoffice/internal/models"

	"github.com/shopspring/decimal"
)

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "bev", want: "BEV"},
		{in: " snk ", want: "SNK"},
		{in: "A1B", wantErr: ErrInvalidPrefix},
		{in: "AB", wantErr: ErrInvalidPrefix},
		{in: "", wantErr: ErrInvalidPrefix},
		{in: "TOOL", wantErr: ErrInvalidPrefix},
		{in: "A-B", wantErr: ErrInvalidPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePrefix(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextSKU(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)

	bev := models.Category{Name: "Beverages", Prefix: "BEV", Status: models.StatusActive}
	snk := models.Category{Name: "Snacks", Prefix: "SNK", Status: models.StatusActive}
	if err := db.Create(&bev).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&snk).Error; err != nil {
		t.Fatal(err)
	}

	first, err := NextSKU(ctx, db, bev)
	if err != nil {
		t.Fatal(err)
	}
	if first != "BEV0001" {
		t.Fatalf("first sku = %q, want BEV0001", first)
	}

	for _, name := range []string{"Cola", "Water", "Juice"} {
		p := &models.Product{Name: name, CategoryID: bev.ID, PriceUSD: decimal.NewFromInt(1)}
		if err := CreateProduct(ctx, db, p); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	// Another category does not affect the sequence.
	if err := CreateProduct(ctx, db, &models.Product{Name: "Chips", CategoryID: snk.ID}); err != nil {
		t.Fatal(err)
	}

	next, err := NextSKU(ctx, db, bev)
	if err != nil {
		t.Fatal(err)
	}
	if next != "BEV0004" {
		t.Errorf("next sku = %q, want BEV0004", next)
	}

	var chips models.Product
	db.Where("name = ?", "Chips").First(&chips)
	if chips.SKU != "SNK0001" {
		t.Errorf("chips sku = %q, want SNK0001", chips.SKU)
	}
}

func TestCreateProductKeepsExplicitSKU(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)

	cat := models.Category{Name: "Tools", Prefix: "TLS"}
	db.Create(&cat)

	p := &models.Product{Name: "Hammer", SKU: "CUSTOM-1", CategoryID: cat.ID}
	if err := CreateProduct(ctx, db, p); err != nil {
		t.Fatal(err)
	}
	if p.SKU != "CUSTOM-1" {
		t.Errorf("sku = %q", p.SKU)
	}
	if p.Status != models.StatusActive {
		t.Errorf("status = %q, want ACTIVE", p.Status)
	}

	err := CreateProduct(ctx, db, &models.Product{Name: "Ghost", CategoryID: 999})
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("err = %v, want ErrCategoryNotFound", err)
	}
}

func TestNextSKUPastFourDigits(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)

	cat := models.Category{Name: "Parts", Prefix: "PRT"}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatal(err)
	}
	// As text PRT9999 sorts after PRT10000.
	for _, sku := range []string{"PRT9998", "PRT10000", "PRT9999"} {
		if err := db.Create(&models.Product{Name: sku, SKU: sku, CategoryID: cat.ID}).Error; err != nil {
			t.Fatal(err)
		}
	}

	next, err := NextSKU(ctx, db, cat)
	if err != nil {
		t.Fatal(err)
	}
	if next != "PRT10001" {
		t.Errorf("next sku = %q, want PRT10001", next)
	}
}
