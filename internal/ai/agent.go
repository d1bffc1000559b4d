package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-pos-backoffice/internal/database"
	"go-pos-backoffice/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

const (
	modelName = "gemini-2.0-flash-001"
	maxRounds = 5
)

var ErrDisabled = errors.New("assistant is not configured")

// Agent answers back-office questions through Gemini function calling.
type Agent struct {
	db     *gorm.DB
	apiKey string
	loc    *time.Location
	logger *logrus.Logger
}

func NewAgent(db *gorm.DB, apiKey string, loc *time.Location, logger *logrus.Logger) *Agent {
	if loc == nil {
		loc = time.UTC
	}
	return &Agent{db: db, apiKey: apiKey, loc: loc, logger: logger}
}

func (a *Agent) Enabled() bool {
	return a != nil && a.apiKey != ""
}

func (a *Agent) Ask(ctx context.Context, userMessage string) (string, error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.Tools = []*genai.Tool{{FunctionDeclarations: toolDeclarations}}

	today := time.Now().In(a.loc).Format("2006-01-02")
	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the back-office assistant of a store that sells in USD and VES.

	RULES:
	1. UPDATE: If a user asks to update a product by NAME, do NOT ask for the ID. Call 'check_inventory' with the name to find it, then 'update_product_price'.
	2. STOCK: For prices, stock or details of products use 'check_inventory'. For what needs restocking use 'low_stock'.
	3. CREDIT: For customers who owe money use 'pending_credit_sales'.
	4. SALES: For revenue in a period use 'get_sales_report'.
	Amounts are USD unless stated otherwise.

	USER: %s`, today, userMessage)

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	// Keep answering tool calls until the model replies with text.
	for round := 0; round < maxRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := a.callTool(ctx, call.Name, call.Args)
			if err != nil {
				a.logger.WithFields(logrus.Fields{"module": "ai", "tool": call.Name}).Warn(err.Error())
				result = map[string]any{"error": err.Error()}
			}
			parts = append(parts, genai.FunctionResponse{Name: call.Name, Response: plain(result)})
		}
		if resp, err = session.SendMessage(ctx, parts...); err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

// plain converts a tool result into the map/slice/scalar shapes the
// function-response protobuf accepts.
func plain(result map[string]any) map[string]any {
	b, err := json.Marshal(result)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{"error": err.Error()}
	}
	return out
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I could not produce an answer."
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "I completed the action."
	}
	return sb.String()
}

// --- DEFINE TOOLS ---

var toolDeclarations = []*genai.FunctionDeclaration{
	{
		Name:        "check_inventory",
		Description: "Search products. Returns ID, SKU, name, price in USD, stock and minimum stock. Leave term empty for the full list.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"term": {Type: genai.TypeString, Description: "Part of the product name or SKU"},
			},
		},
	},
	{
		Name:        "low_stock",
		Description: "List products whose stock is at or below their minimum.",
	},
	{
		Name:        "pending_credit_sales",
		Description: "List credit sales that still have a balance due, with customer and amount owed.",
	},
	{
		Name:        "get_sales_report",
		Description: "Get total revenue, IGTF collected and number of sales for a date range (inclusive).",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
				"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
			},
			Required: []string{"start_date", "end_date"},
		},
	},
	{
		Name:        "update_product_price",
		Description: "Update the USD price of a specific product using its ID",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"product_id": {Type: genai.TypeInteger, Description: "ID of the product"},
				"new_price":  {Type: genai.TypeNumber, Description: "New price in USD"},
			},
			Required: []string{"product_id", "new_price"},
		},
	},
}

func (a *Agent) callTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "check_inventory":
		return a.checkInventory(ctx, stringArg(args, "term"))
	case "low_stock":
		return a.lowStock(ctx)
	case "pending_credit_sales":
		return a.pendingCredit(ctx)
	case "get_sales_report":
		return a.salesReport(ctx, stringArg(args, "start_date"), stringArg(args, "end_date"))
	case "update_product_price":
		id, ok1 := numberArg(args, "product_id")
		price, ok2 := numberArg(args, "new_price")
		if !ok1 || !ok2 {
			return nil, errors.New("product_id and new_price are required numbers")
		}
		return a.updatePrice(ctx, uint(id), decimal.NewFromFloat(price))
	default:
		return nil, fmt.Errorf("unknown tool %q", name)
	}
}

type simpleProduct struct {
	ID       uint   `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	PriceUSD string `json:"price_usd"`
	Stock    int    `json:"stock"`
	StockMin int    `json:"stock_min"`
}

func toSimple(products []models.Product) []simpleProduct {
	list := make([]simpleProduct, 0, len(products))
	for _, p := range products {
		list = append(list, simpleProduct{
			ID:       p.ID,
			SKU:      p.SKU,
			Name:     p.Name,
			PriceUSD: p.PriceUSD.StringFixed(2),
			Stock:    p.Stock,
			StockMin: p.StockMin,
		})
	}
	return list
}

func (a *Agent) checkInventory(ctx context.Context, term string) (map[string]any, error) {
	q := a.db.WithContext(ctx).Order("name ASC").Limit(200)
	if term = strings.TrimSpace(term); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return map[string]any{"inventory": toSimple(products)}, nil
}

func (a *Agent) lowStock(ctx context.Context) (map[string]any, error) {
	products, err := database.LowStockProducts(ctx, a.db)
	if err != nil {
		return nil, err
	}
	return map[string]any{"low_stock": toSimple(products)}, nil
}

func (a *Agent) pendingCredit(ctx context.Context) (map[string]any, error) {
	sales, err := database.PendingCreditSales(ctx, a.db)
	if err != nil {
		return nil, err
	}
	type pending struct {
		SaleID   uint   `json:"sale_id"`
		Customer string `json:"customer"`
		Date     string `json:"date"`
		Total    string `json:"total_usd"`
		Balance  string `json:"balance_usd"`
		Status   string `json:"status"`
	}
	list := make([]pending, 0, len(sales))
	total := decimal.Zero
	for _, s := range sales {
		customer := ""
		if s.Customer != nil {
			customer = s.Customer.FullName()
		}
		list = append(list, pending{
			SaleID:   s.ID,
			Customer: customer,
			Date:     s.DateAdded.In(a.loc).Format("2006-01-02"),
			Total:    s.GrandTotal.StringFixed(2),
			Balance:  s.Balance().StringFixed(2),
			Status:   string(s.Status),
		})
		total = total.Add(s.Balance())
	}
	return map[string]any{"pending": list, "total_due_usd": total.StringFixed(2)}, nil
}

func (a *Agent) salesReport(ctx context.Context, startStr, endStr string) (map[string]any, error) {
	start, err1 := time.ParseInLocation("2006-01-02", startStr, a.loc)
	end, err2 := time.ParseInLocation("2006-01-02", endStr, a.loc)
	if err1 != nil || err2 != nil {
		return nil, errors.New("dates must be in YYYY-MM-DD format")
	}

	report, err := database.GetSalesReport(ctx, a.db, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"revenue_usd": report.TotalRevenue.StringFixed(2),
		"igtf_usd":    report.TotalIGTF.StringFixed(2),
		"sales_count": report.TotalCount,
	}, nil
}

func (a *Agent) updatePrice(ctx context.Context, productID uint, price decimal.Decimal) (map[string]any, error) {
	if !price.IsPositive() {
		return nil, errors.New("new_price must be greater than zero")
	}
	price = price.Round(2)
	result := a.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Update("price_usd", price)
	if result.Error != nil {
		return nil, result.Error
	}

	msg := "Success"
	if result.RowsAffected == 0 {
		msg = "Product ID not found"
	}
	return map[string]any{"status": msg, "new_price": price.StringFixed(2)}, nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
