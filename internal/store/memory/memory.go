package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"wms/backend/internal/domain"
	"wms/backend/internal/store"
	"wms/backend/internal/xid"
)

// Store is an in-memory Repository used for dev mode and tests. RunAtomic
// clones the entire state, runs the body against the clone, and swaps the
// clone in on success, so a failing body leaves nothing behind.
type Store struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	products          map[string]domain.Product
	invoices          map[string]domain.Invoice
	voidInvoices      map[string]domain.Invoice
	brokenProducts    map[string]domain.BrokenProduct
	returnedProducts  map[string]domain.ReturnedProduct
	dispatchNotes     map[string]domain.DispatchNote
	customers         map[string]domain.Customer
	replacementDrafts map[string]domain.ReplacementDraft
	auditLogs         []domain.AuditLog
}

func newState() *state {
	return &state{
		products:          make(map[string]domain.Product),
		invoices:          make(map[string]domain.Invoice),
		voidInvoices:      make(map[string]domain.Invoice),
		brokenProducts:    make(map[string]domain.BrokenProduct),
		returnedProducts:  make(map[string]domain.ReturnedProduct),
		dispatchNotes:     make(map[string]domain.DispatchNote),
		customers:         make(map[string]domain.Customer),
		replacementDrafts: make(map[string]domain.ReplacementDraft),
		auditLogs:         make([]domain.AuditLog, 0, 64),
	}
}

func (st *state) clone() *state {
	next := newState()
	for id, p := range st.products {
		next.products[id] = p
	}
	for id, inv := range st.invoices {
		next.invoices[id] = cloneInvoice(inv)
	}
	for id, inv := range st.voidInvoices {
		next.voidInvoices[id] = cloneInvoice(inv)
	}
	for id, bp := range st.brokenProducts {
		next.brokenProducts[id] = bp
	}
	for id, rp := range st.returnedProducts {
		next.returnedProducts[id] = rp
	}
	for id, note := range st.dispatchNotes {
		next.dispatchNotes[id] = cloneDispatchNote(note)
	}
	for id, c := range st.customers {
		next.customers[id] = cloneCustomer(c)
	}
	for id, draft := range st.replacementDrafts {
		next.replacementDrafts[id] = cloneDraft(draft)
	}
	next.auditLogs = append(next.auditLogs, st.auditLogs...)
	return next
}

func cloneInvoice(inv domain.Invoice) domain.Invoice {
	out := inv
	out.Items = make([]domain.InvoiceItem, len(inv.Items))
	copy(out.Items, inv.Items)
	return out
}

func cloneDispatchNote(note domain.DispatchNote) domain.DispatchNote {
	out := note
	out.DispatchItems = make([]domain.DispatchItem, len(note.DispatchItems))
	copy(out.DispatchItems, note.DispatchItems)
	return out
}

func cloneCustomer(c domain.Customer) domain.Customer {
	out := c
	out.SpecialPrices = make([]domain.SpecialPrice, len(c.SpecialPrices))
	copy(out.SpecialPrices, c.SpecialPrices)
	return out
}

func cloneDraft(draft domain.ReplacementDraft) domain.ReplacementDraft {
	out := draft
	out.Items = make([]domain.InvoiceItem, len(draft.Items))
	copy(out.Items, draft.Items)
	return out
}

func New() *Store {
	return &Store{state: newState()}
}

// NewSeeded builds a store with a small master-data set for dev/demo mode.
func NewSeeded() *Store {
	s := New()

	products := []domain.Product{
		{ID: "prod-halogen-red", Brand: "Menturo", MotorType: "Beat", Part: "Front Fender", AvailableColor: "Red", Supplier: "sup-wijaya", WarehousePosition: domain.WarehouseFinishedGoods, Count: 40, SellPrice: decimal.NewFromInt(150000), PurchasePrice: decimal.NewFromInt(100000)},
		{ID: "prod-halogen-black", Brand: "Menturo", MotorType: "Beat", Part: "Front Fender", AvailableColor: "Black", Supplier: "sup-wijaya", WarehousePosition: domain.WarehouseFinishedGoods, Count: 25, SellPrice: decimal.NewFromInt(150000), PurchasePrice: decimal.NewFromInt(100000)},
		{ID: "prod-cover-blue", Brand: "Rapido", MotorType: "Vario 125", Part: "Body Cover", AvailableColor: "Blue", Supplier: "sup-sentosa", WarehousePosition: domain.WarehouseFinishedGoods, Count: 12, SellPrice: decimal.NewFromInt(275000), PurchasePrice: decimal.NewFromInt(190000)},
		{ID: "prod-spoiler-raw", Brand: "Rapido", MotorType: "Vario 125", Part: "Rear Spoiler", AvailableColor: "Unpainted", Supplier: "sup-sentosa", WarehousePosition: domain.WarehouseRawMaterials, Count: 60, SellPrice: decimal.NewFromInt(90000), PurchasePrice: decimal.NewFromInt(55000)},
	}
	for _, p := range products {
		s.state.products[p.ID] = p
	}

	s.state.customers["cust-andre"] = domain.Customer{
		ID:   "cust-andre",
		Name: "Andre Motor",
		SpecialPrices: []domain.SpecialPrice{
			{ProductID: "prod-halogen-red", Price: decimal.NewFromInt(135000)},
		},
	}

	s.state.invoices["INV-001"] = domain.Invoice{
		ID:            "INV-001",
		CustomerID:    "cust-andre",
		CustomerName:  "Andre Motor",
		Date:          "2024-03-02",
		PaymentMethod: "Cash",
		TotalPrice:    decimal.NewFromInt(1025000),
		Items: []domain.InvoiceItem{
			{ProductID: "prod-halogen-red", Amount: 5, Price: decimal.NewFromInt(150000), ProductName: "Menturo Beat Front Fender Red", WarehousePosition: domain.WarehouseFinishedGoods},
			{ProductID: "prod-cover-blue", Amount: 1, Price: decimal.NewFromInt(275000), ProductName: "Rapido Vario 125 Body Cover Blue", WarehousePosition: domain.WarehouseFinishedGoods},
		},
		CreatedAt: time.Now().UTC(),
	}

	return s
}

func (s *Store) RunAtomic(_ context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&memTx{state: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// memTx operates on the working clone; reads hand out copies so a body
// cannot mutate state behind the Tx interface's back.
type memTx struct {
	state *state
}

func (t *memTx) GetProduct(id string) (*domain.Product, error) {
	p, ok := t.state.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (t *memTx) UpdateProductCount(id string, count int) error {
	p, ok := t.state.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if count < 0 {
		return store.ErrInsufficientStock
	}
	p.Count = count
	t.state.products[id] = p
	return nil
}

func (t *memTx) InsertOnDispatchProduct(product domain.Product) (string, error) {
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	t.state.products[product.ID] = product
	return product.ID, nil
}

func (t *memTx) GetInvoice(number string) (*domain.Invoice, error) {
	inv, ok := t.state.invoices[number]
	if !ok {
		return nil, store.ErrInvoiceNotFound
	}
	copied := cloneInvoice(inv)
	return &copied, nil
}

func (t *memTx) UpdateInvoice(invoice domain.Invoice) error {
	if _, ok := t.state.invoices[invoice.ID]; !ok {
		return store.ErrInvoiceNotFound
	}
	t.state.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (t *memTx) InsertInvoice(invoice domain.Invoice) error {
	if _, ok := t.state.invoices[invoice.ID]; ok {
		return store.ErrInvalidSelection
	}
	t.state.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (t *memTx) DeleteInvoice(number string) error {
	if _, ok := t.state.invoices[number]; !ok {
		return store.ErrInvoiceNotFound
	}
	delete(t.state.invoices, number)
	return nil
}

func (t *memTx) SetVoidInvoice(invoice domain.Invoice) error {
	t.state.voidInvoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (t *memTx) FindBrokenProduct(identity domain.ProductIdentity) (*domain.BrokenProduct, error) {
	for _, bp := range t.state.brokenProducts {
		if bp.Identity() == identity {
			copied := bp
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *memTx) GetBrokenProduct(id string) (*domain.BrokenProduct, error) {
	bp, ok := t.state.brokenProducts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := bp
	return &copied, nil
}

func (t *memTx) InsertBrokenProduct(record domain.BrokenProduct) (string, error) {
	if record.ID == "" {
		record.ID = xid.New("broken")
	}
	t.state.brokenProducts[record.ID] = record
	return record.ID, nil
}

func (t *memTx) UpdateBrokenProductCount(id string, count int) error {
	bp, ok := t.state.brokenProducts[id]
	if !ok {
		return store.ErrNotFound
	}
	bp.Count = count
	t.state.brokenProducts[id] = bp
	return nil
}

func (t *memTx) DeleteBrokenProduct(id string) error {
	if _, ok := t.state.brokenProducts[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.state.brokenProducts, id)
	return nil
}

func (t *memTx) MergeReturnedProduct(record domain.BrokenProduct) error {
	key := record.SourceProductID
	if key == "" {
		key = record.ID
	}
	existing, ok := t.state.returnedProducts[key]
	if !ok {
		t.state.returnedProducts[key] = domain.ReturnedProduct{
			ProductID:      key,
			Brand:          record.Brand,
			MotorType:      record.MotorType,
			Part:           record.Part,
			AvailableColor: record.AvailableColor,
			Supplier:       record.Supplier,
			Count:          record.Count,
		}
		return nil
	}
	existing.Count += record.Count
	t.state.returnedProducts[key] = existing
	return nil
}

func (t *memTx) InsertDispatchNote(note domain.DispatchNote) (string, error) {
	if note.ID == "" {
		note.ID = xid.New("dispatch")
	}
	t.state.dispatchNotes[note.ID] = cloneDispatchNote(note)
	return note.ID, nil
}

func (t *memTx) GetCustomer(id string) (*domain.Customer, error) {
	c, ok := t.state.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := cloneCustomer(c)
	return &copied, nil
}

func (t *memTx) SetReplacementDraft(draft domain.ReplacementDraft) error {
	t.state.replacementDrafts[draft.InvoiceNumber] = cloneDraft(draft)
	return nil
}

func (t *memTx) GetReplacementDraft(invoiceNumber string) (*domain.ReplacementDraft, error) {
	draft, ok := t.state.replacementDrafts[invoiceNumber]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := cloneDraft(draft)
	return &copied, nil
}

func (t *memTx) DeleteReplacementDraft(invoiceNumber string) error {
	if _, ok := t.state.replacementDrafts[invoiceNumber]; !ok {
		return store.ErrNotFound
	}
	delete(t.state.replacementDrafts, invoiceNumber)
	return nil
}

func (t *memTx) FindInvoiceByReplacementSource(invoiceNumber string) (*domain.Invoice, error) {
	for _, inv := range t.state.invoices {
		if inv.ReplacementFor == invoiceNumber {
			copied := cloneInvoice(inv)
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetInvoice(_ context.Context, number string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.state.invoices[number]
	if !ok {
		return nil, store.ErrInvoiceNotFound
	}
	copied := cloneInvoice(inv)
	return &copied, nil
}

func (s *Store) GetVoidInvoice(_ context.Context, number string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.state.voidInvoices[number]
	if !ok {
		return nil, store.ErrInvoiceNotFound
	}
	copied := cloneInvoice(inv)
	return &copied, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.state.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.state.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := cloneCustomer(c)
	return &copied, nil
}

func (s *Store) SearchProducts(_ context.Context, brand string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(brand))
	result := make([]domain.Product, 0, len(s.state.products))
	for _, p := range s.state.products {
		if needle != "" && !strings.HasPrefix(strings.ToLower(p.Brand), needle) {
			continue
		}
		result = append(result, p)
	}

	slices.SortFunc(result, func(a, b domain.Product) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return result, nil
}

func (s *Store) ListBrokenProducts(_ context.Context) ([]domain.BrokenProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.BrokenProduct, 0, len(s.state.brokenProducts))
	for _, bp := range s.state.brokenProducts {
		result = append(result, bp)
	}
	slices.SortFunc(result, func(a, b domain.BrokenProduct) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return result, nil
}

func (s *Store) ListReturnedProducts(_ context.Context) ([]domain.ReturnedProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ReturnedProduct, 0, len(s.state.returnedProducts))
	for _, rp := range s.state.returnedProducts {
		result = append(result, rp)
	}
	slices.SortFunc(result, func(a, b domain.ReturnedProduct) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return result, nil
}

func (s *Store) ListDispatchNotes(_ context.Context) ([]domain.DispatchNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DispatchNote, 0, len(s.state.dispatchNotes))
	for _, note := range s.state.dispatchNotes {
		result = append(result, cloneDispatchNote(note))
	}
	slices.SortFunc(result, func(a, b domain.DispatchNote) int {
		if a.Date == b.Date {
			return strings.Compare(a.ID, b.ID)
		}
		return strings.Compare(b.Date, a.Date)
	})
	return result, nil
}

func (s *Store) GetReplacementDraft(_ context.Context, invoiceNumber string) (*domain.ReplacementDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, ok := s.state.replacementDrafts[invoiceNumber]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := cloneDraft(draft)
	return &copied, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.state.auditLogs = append(s.state.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	logs := s.state.auditLogs
	if len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	result := make([]domain.AuditLog, len(logs))
	copy(result, logs)
	return result, nil
}
