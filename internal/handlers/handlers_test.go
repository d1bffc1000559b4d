package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-pos-backoffice/internal/ai"
	"go-pos-backoffice/internal/auth"
	"go-pos-backoffice/internal/catalog"
	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/database"
	"go-pos-backoffice/internal/database/testdb"
	"go-pos-backoffice/internal/models"
	"go-pos-backoffice/internal/sales"
	"go-pos-backoffice/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.SetSecret("handlers-test-secret")

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	dir := t.TempDir()
	cfg := &config.Config{
		StorageProvider: config.StorageProviderLocal,
		UploadDir:       dir,
		Location:        time.UTC,
	}
	db := testdb.Open(t)
	h := New(cfg, db, nil, &storage.Local{Dir: dir, BaseURL: "/uploads"}, logger)

	r := gin.New()
	RegisterRoutes(r, h)
	return &testServer{db: db, router: r}
}

func (s *testServer) user(t *testing.T, username, role string) string {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	u := models.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.db.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	token, err := auth.GenerateToken(u.ID, u.Username, u.Role)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) create(t *testing.T, v any) {
	t.Helper()
	if err := s.db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.user(t, "root", models.RoleAdmin)

	tests := []struct {
		name     string
		body     any
		wantCode int
	}{
		{"valid credentials", LoginRequest{Username: "root", Password: "secret123"}, http.StatusOK},
		{"wrong password", LoginRequest{Username: "root", Password: "nope"}, http.StatusUnauthorized},
		{"unknown user", LoginRequest{Username: "ghost", Password: "secret123"}, http.StatusUnauthorized},
		{"missing fields", map[string]string{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/login", "", tt.body, nil)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp struct {
				Token string `json:"token"`
				Role  string `json:"role"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			claims, err := auth.ValidateToken(resp.Token)
			if err != nil || claims.Role != models.RoleAdmin {
				t.Errorf("token claims = %+v, %v", claims, err)
			}
		})
	}
}

func TestRoleEnforcement(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(t, "root", models.RoleAdmin)
	cashier := s.user(t, "caja1", models.RoleCashier)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{"no token", http.MethodGet, "/api/products", "", http.StatusUnauthorized},
		{"cashier lists products", http.MethodGet, "/api/products", cashier, http.StatusOK},
		{"cashier opens dashboard", http.MethodGet, "/api/reports/dashboard", cashier, http.StatusForbidden},
		{"cashier deletes customer", http.MethodDelete, "/api/customers/1", cashier, http.StatusForbidden},
		{"admin opens dashboard", http.MethodGet, "/api/reports/dashboard", admin, http.StatusOK},
		{"assistant without key", http.MethodPost, "/api/ask", admin, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body any
			if tt.method == http.MethodPost {
				body = AskRequest{Message: "hello"}
			}
			w := s.do(t, tt.method, tt.path, tt.token, body, nil)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestCheckoutEndToEnd(t *testing.T) {
	s := newTestServer(t)
	cashier := s.user(t, "caja1", models.RoleCashier)

	cat := models.Category{Name: "Drinks", Prefix: "DRK"}
	s.create(t, &cat)
	product := models.Product{Name: "Cola", SKU: "DRK0001", CategoryID: cat.ID, PriceUSD: decimal.RequireFromString("2.50"), Stock: 10}
	s.create(t, &product)
	customer := models.Customer{FirstName: "Luis"}
	s.create(t, &customer)
	cash := models.PaymentMethod{Name: "Cash USD", IsForeignCurrency: true}
	s.create(t, &cash)

	body := map[string]any{
		"customer_id": customer.ID,
		"lines": []map[string]any{
			{"product_id": product.ID, "quantity": 4, "price": "2.50", "total_detail": "10.00"},
		},
		"sub_total":   "10.00",
		"grand_total": "10.00",
		"payments":    []map[string]any{{"payment_method_id": cash.ID, "amount": "10.00"}},
	}
	key := map[string]string{idempotencyHeader: "register-1-0001"}

	first := s.do(t, http.MethodPost, "/api/checkout", cashier, body, key)
	if first.Code != http.StatusCreated {
		t.Fatalf("checkout status = %d: %s", first.Code, first.Body.String())
	}
	var resp struct {
		SaleID uint `json:"sale_id"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	again := s.do(t, http.MethodPost, "/api/checkout", cashier, body, key)
	if again.Code != http.StatusCreated {
		t.Fatalf("replay status = %d: %s", again.Code, again.Body.String())
	}
	var replay struct {
		SaleID uint `json:"sale_id"`
	}
	if err := json.Unmarshal(again.Body.Bytes(), &replay); err != nil {
		t.Fatal(err)
	}
	if replay.SaleID != resp.SaleID {
		t.Errorf("replayed sale = %d, want %d", replay.SaleID, resp.SaleID)
	}

	var got models.Product
	if err := s.db.First(&got, product.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.Stock != 6 {
		t.Errorf("stock = %d, want 6", got.Stock)
	}

	// Asking for more than is left is rejected and changes nothing.
	body["lines"] = []map[string]any{{"product_id": product.ID, "quantity": 7, "price": "2.50", "total_detail": "17.50"}}
	body["sub_total"], body["grand_total"] = "17.50", "17.50"
	body["payments"] = []map[string]any{{"payment_method_id": cash.ID, "amount": "17.50"}}
	w := s.do(t, http.MethodPost, "/api/checkout", cashier, body, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("oversell status = %d, want 422: %s", w.Code, w.Body.String())
	}

	receipt := s.do(t, http.MethodGet, fmt.Sprintf("/api/sales/%d/receipt", resp.SaleID), cashier, nil, nil)
	if receipt.Code != http.StatusOK || !bytes.HasPrefix(receipt.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("receipt status = %d, content type %q", receipt.Code, receipt.Header().Get("Content-Type"))
	}
}

func TestExchangeRates(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(t, "root", models.RoleAdmin)

	if w := s.do(t, http.MethodGet, "/api/exchange-rates/latest", admin, nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("latest with no rates = %d, want 404", w.Code)
	}

	rate := ExchangeRateInput{Date: "2024-06-01", RateUSDVES: decimal.RequireFromString("36.7512")}
	if w := s.do(t, http.MethodPost, "/api/exchange-rates", admin, rate, nil); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPost, "/api/exchange-rates", admin, rate, nil); w.Code != http.StatusConflict {
		t.Errorf("duplicate date status = %d, want 409", w.Code)
	}
	zero := ExchangeRateInput{Date: "2024-06-02", RateUSDVES: decimal.Zero}
	if w := s.do(t, http.MethodPost, "/api/exchange-rates", admin, zero, nil); w.Code != http.StatusBadRequest {
		t.Errorf("zero rate status = %d, want 400", w.Code)
	}

	w := s.do(t, http.MethodGet, "/api/exchange-rates/latest", admin, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("latest status = %d", w.Code)
	}
	var latest models.ExchangeRate
	if err := json.Unmarshal(w.Body.Bytes(), &latest); err != nil {
		t.Fatal(err)
	}
	if !latest.RateUSDVES.Equal(decimal.RequireFromString("36.7512")) {
		t.Errorf("latest rate = %s", latest.RateUSDVES)
	}
}

func TestCategoryAndCustomerRules(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(t, "root", models.RoleAdmin)

	w := s.do(t, http.MethodPost, "/api/categories", admin, CategoryInput{Name: "Food", Prefix: "fod"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create category = %d: %s", w.Code, w.Body.String())
	}
	var cat models.Category
	if err := json.Unmarshal(w.Body.Bytes(), &cat); err != nil {
		t.Fatal(err)
	}
	if cat.Prefix != "FOD" {
		t.Errorf("prefix = %q, want FOD", cat.Prefix)
	}
	if w := s.do(t, http.MethodPost, "/api/categories", admin, CategoryInput{Name: "food", Prefix: "FDS"}, nil); w.Code != http.StatusConflict {
		t.Errorf("duplicate name status = %d, want 409", w.Code)
	}

	// A product in the category blocks deleting it.
	w = s.do(t, http.MethodPost, "/api/products", admin, ProductInput{Name: "Bread", CategoryID: cat.ID, PriceUSD: decimal.NewFromInt(1)}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create product = %d: %s", w.Code, w.Body.String())
	}
	var product models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &product); err != nil {
		t.Fatal(err)
	}
	if product.SKU != "FOD0001" {
		t.Errorf("generated sku = %q, want FOD0001", product.SKU)
	}
	if w := s.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", cat.ID), admin, nil, nil); w.Code != http.StatusConflict {
		t.Errorf("delete used category = %d, want 409", w.Code)
	}

	customer := CustomerInput{FirstName: "María", LastName: "Gómez", TaxID: "v12345678"}
	if w := s.do(t, http.MethodPost, "/api/customers", admin, customer, nil); w.Code != http.StatusCreated {
		t.Fatalf("create customer = %d: %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPost, "/api/customers", admin, customer, nil); w.Code != http.StatusConflict {
		t.Errorf("duplicate tax id status = %d, want 409", w.Code)
	}
	noTaxID := CustomerInput{FirstName: "Pedro"}
	for i := 0; i < 2; i++ {
		if w := s.do(t, http.MethodPost, "/api/customers", admin, noTaxID, nil); w.Code != http.StatusCreated {
			t.Errorf("customer without tax id #%d = %d: %s", i+1, w.Code, w.Body.String())
		}
	}

	w = s.do(t, http.MethodGet, "/api/customers/search?term=12345", admin, nil, nil)
	var items []SearchItem
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Text != "María Gómez (V12345678)" {
		t.Errorf("search = %+v", items)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"sale not found", sales.ErrSaleNotFound, http.StatusNotFound},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"wrapped insufficient stock", &sales.ValidationError{Err: sales.ErrInsufficientStock, Details: "product 1"}, http.StatusUnprocessableEntity},
		{"credit limit", &sales.ValidationError{Err: sales.ErrCreditLimitExceeded}, http.StatusUnprocessableEntity},
		{"no exchange rate", sales.ErrNoExchangeRate, http.StatusUnprocessableEntity},
		{"duplicate key", gorm.ErrDuplicatedKey, http.StatusConflict},
		{"foreign key", gorm.ErrForeignKeyViolated, http.StatusConflict},
		{"lock busy", database.ErrLockNotObtained, http.StatusConflict},
		{"reference required", &sales.ValidationError{Err: sales.ErrReferenceRequired}, http.StatusBadRequest},
		{"bad quantity", catalog.ErrInvalidQuantity, http.StatusBadRequest},
		{"assistant disabled", ai.ErrDisabled, http.StatusServiceUnavailable},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
