package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Warehouse zones. Sale-ready stock lives in Gudang Jadi; stock awaiting
// processing (including rework at the painter) lives in Gudang Bahan.
const (
	WarehouseFinishedGoods = "Gudang Jadi"
	WarehouseRawMaterials  = "Gudang Bahan"
)

const StatusUnderPainting = "Under painting"

type Mode string

const (
	ModeReturn   Mode = "return"
	ModeExchange Mode = "exchange"
	ModeVoid     Mode = "void"
)

// Disposition targets for a broken-product row.
const (
	DisposeToSupplier = "supplier"
	DisposeToPainter  = "painter"
)

// ProductIdentity is the composite key identifying a distinct stock line.
// Two rows describe the same product iff all six fields match exactly
// (case-sensitive).
type ProductIdentity struct {
	Brand             string `json:"brand"`
	MotorType         string `json:"motor_type"`
	Part              string `json:"part"`
	AvailableColor    string `json:"available_color"`
	Supplier          string `json:"supplier"`
	WarehousePosition string `json:"warehouse_position"`
}

// Product is a stock ledger row.
type Product struct {
	ID                string          `json:"id"`
	Brand             string          `json:"brand"`
	MotorType         string          `json:"motor_type"`
	Part              string          `json:"part"`
	AvailableColor    string          `json:"available_color"`
	Supplier          string          `json:"supplier"`
	WarehousePosition string          `json:"warehouse_position"`
	Count             int             `json:"count"`
	SellPrice         decimal.Decimal `json:"sell_price"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	Status            string          `json:"status,omitempty"`
	DispatchNoteID    string          `json:"dispatch_note_id,omitempty"`
}

func (p Product) Identity() ProductIdentity {
	return ProductIdentity{
		Brand:             p.Brand,
		MotorType:         p.MotorType,
		Part:              p.Part,
		AvailableColor:    p.AvailableColor,
		Supplier:          p.Supplier,
		WarehousePosition: p.WarehousePosition,
	}
}

// Name renders the display name invoices carry for a product line.
func (p Product) Name() string {
	return p.Brand + " " + p.MotorType + " " + p.Part + " " + p.AvailableColor
}

// BrokenProduct aggregates defective or returned stock per product identity.
// The warehouse position is always pinned to the sales warehouse, so at most
// one row exists per identity.
type BrokenProduct struct {
	ID                string          `json:"id"`
	Brand             string          `json:"brand"`
	MotorType         string          `json:"motor_type"`
	Part              string          `json:"part"`
	AvailableColor    string          `json:"available_color"`
	Supplier          string          `json:"supplier"`
	WarehousePosition string          `json:"warehouse_position"`
	Count             int             `json:"count"`
	SellPrice         decimal.Decimal `json:"sell_price"`
	SourceProductID   string          `json:"source_product_id"`
}

func (b BrokenProduct) Identity() ProductIdentity {
	return ProductIdentity{
		Brand:             b.Brand,
		MotorType:         b.MotorType,
		Part:              b.Part,
		AvailableColor:    b.AvailableColor,
		Supplier:          b.Supplier,
		WarehousePosition: b.WarehousePosition,
	}
}

func (b BrokenProduct) Name() string {
	return b.Brand + " " + b.MotorType + " " + b.Part + " " + b.AvailableColor
}

// ReturnedProduct is the supplier-facing restock row a broken product folds
// into when disposed to the supplier. Keyed by the source product id; counts
// only ever merge by increment.
type ReturnedProduct struct {
	ProductID      string `json:"product_id"`
	Brand          string `json:"brand"`
	MotorType      string `json:"motor_type"`
	Part           string `json:"part"`
	AvailableColor string `json:"available_color"`
	Supplier       string `json:"supplier"`
	Count          int    `json:"count"`
}

type InvoiceItem struct {
	ProductID         string          `json:"product_id"`
	Amount            int             `json:"amount"`
	Price             decimal.Decimal `json:"price"`
	ProductName       string          `json:"product_name"`
	WarehousePosition string          `json:"warehouse_position"`
	IsReturned        bool            `json:"is_returned"`
}

type Invoice struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	Date          string          `json:"date"`
	PaymentMethod string          `json:"payment_method"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Items         []InvoiceItem   `json:"items"`
	// ReplacementFor carries the voided invoice number when this invoice was
	// created from a staged replacement draft.
	ReplacementFor string    `json:"replacement_for,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// LineTotal recomputes the invoice total from its items.
func (inv Invoice) LineTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Amount))))
	}
	return total
}

type DispatchItem struct {
	Amount    int    `json:"amount"`
	Color     string `json:"color"`
	ProductID string `json:"product_id"`
}

type DispatchNote struct {
	ID            string         `json:"id"`
	Date          string         `json:"date"`
	Painter       string         `json:"painter"`
	DispatchItems []DispatchItem `json:"dispatch_items"`
}

type SpecialPrice struct {
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
}

type Customer struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	SpecialPrices []SpecialPrice `json:"special_prices"`
}

// SpecialPriceFor returns the negotiated price for a product, if any.
func (c Customer) SpecialPriceFor(productID string) (decimal.Decimal, bool) {
	for _, sp := range c.SpecialPrices {
		if sp.ProductID == productID {
			return sp.Price, true
		}
	}
	return decimal.Zero, false
}

// ReplacementDraft is the staged follow-up transaction a void operation may
// carry. Keyed by the voided invoice number; consumed by SubmitReplacement.
type ReplacementDraft struct {
	InvoiceNumber string        `json:"invoice_number"`
	CustomerID    string        `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	PaymentMethod string        `json:"payment_method"`
	Items         []InvoiceItem `json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
}

type SelectedItem struct {
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
}

type ReplacementItem struct {
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
}

type ReplacementRequest struct {
	CustomerID    string            `json:"customer_id"`
	CustomerName  string            `json:"customer_name"`
	PaymentMethod string            `json:"payment_method"`
	Items         []ReplacementItem `json:"items"`
}

type ExecuteRequest struct {
	Mode          Mode                `json:"mode"`
	InvoiceNumber string              `json:"invoice_number"`
	Items         []SelectedItem      `json:"items"`
	Replacement   *ReplacementRequest `json:"replacement,omitempty"`
}

type ExecuteResponse struct {
	Mode          Mode     `json:"mode"`
	InvoiceNumber string   `json:"invoice_number"`
	Invoice       *Invoice `json:"invoice,omitempty"`
	DraftStaged   bool     `json:"draft_staged"`
}

type DisposeRequest struct {
	BrokenProductID string `json:"broken_product_id"`
	Target          string `json:"target"`
	PainterName     string `json:"painter_name,omitempty"`
}

type DisposeResponse struct {
	BrokenProductID string        `json:"broken_product_id"`
	Target          string        `json:"target"`
	DispatchNote    *DispatchNote `json:"dispatch_note,omitempty"`
}

type InvoiceLookupResponse struct {
	Found   bool     `json:"found"`
	Voided  bool     `json:"voided"`
	Invoice *Invoice `json:"invoice,omitempty"`
}

// PricedProduct is a product picker row with the price already resolved
// against a customer's negotiated prices.
type PricedProduct struct {
	Product      Product         `json:"product"`
	Price        decimal.Decimal `json:"price"`
	SpecialPrice bool            `json:"special_price"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
