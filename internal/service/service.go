package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"wms/backend/internal/cache"
	"wms/backend/internal/domain"
	"wms/backend/internal/store"
	"wms/backend/internal/xid"
)

var logger = log.WithField("component", "service")

type Service struct {
	repo           store.Repository
	searchCache    cache.SearchCache
	searchCacheTTL time.Duration
	salesWarehouse string
}

func New(repo store.Repository, searchCache cache.SearchCache, searchCacheTTL time.Duration, salesWarehouse string) *Service {
	if searchCache == nil {
		searchCache = cache.NoopSearchCache{}
	}
	if searchCacheTTL <= 0 {
		searchCacheTTL = 5 * time.Minute
	}
	if salesWarehouse == "" {
		salesWarehouse = domain.WarehouseFinishedGoods
	}

	return &Service{
		repo:           repo,
		searchCache:    searchCache,
		searchCacheTTL: searchCacheTTL,
		salesWarehouse: salesWarehouse,
	}
}

// Execute runs one return, exchange, or void against an invoice. The whole
// batch commits or none of it does.
func (s *Service) Execute(ctx context.Context, req domain.ExecuteRequest) (domain.ExecuteResponse, error) {
	req.InvoiceNumber = strings.TrimSpace(req.InvoiceNumber)
	if req.InvoiceNumber == "" {
		return domain.ExecuteResponse{}, store.ErrInvoiceNotFound
	}

	resp := domain.ExecuteResponse{Mode: req.Mode, InvoiceNumber: req.InvoiceNumber}
	var skipped []string

	var err error
	switch req.Mode {
	case domain.ModeReturn:
		if len(req.Items) == 0 {
			return resp, store.ErrInvalidSelection
		}
		err = s.repo.RunAtomic(ctx, func(tx store.Tx) error {
			updated, missing, txErr := s.executeReturn(tx, req.InvoiceNumber, req.Items)
			if txErr != nil {
				return txErr
			}
			resp.Invoice = updated
			skipped = missing
			return nil
		})
	case domain.ModeExchange:
		if len(req.Items) == 0 {
			return resp, store.ErrInvalidSelection
		}
		err = s.repo.RunAtomic(ctx, func(tx store.Tx) error {
			return s.executeExchange(tx, req.InvoiceNumber, req.Items)
		})
	case domain.ModeVoid:
		err = s.repo.RunAtomic(ctx, func(tx store.Tx) error {
			staged, txErr := s.executeVoid(tx, req.InvoiceNumber, req.Replacement)
			if txErr != nil {
				return txErr
			}
			resp.DraftStaged = staged
			return nil
		})
	default:
		return resp, fmt.Errorf("%w: unknown mode %q", store.ErrInvalidSelection, req.Mode)
	}
	if err != nil {
		return domain.ExecuteResponse{Mode: req.Mode, InvoiceNumber: req.InvoiceNumber}, err
	}

	for _, productID := range skipped {
		logger.WithField("product_id", productID).
			Warnf("return on invoice %s: stock record missing, consolidation skipped", req.InvoiceNumber)
	}
	if req.Mode == domain.ModeReturn || req.Mode == domain.ModeExchange {
		if err := s.searchCache.Invalidate(ctx); err != nil {
			logger.Warnf("invalidate search cache: %v", err)
		}
	}

	s.logAudit(ctx, string(req.Mode), "invoice", req.InvoiceNumber,
		fmt.Sprintf("items=%d,draft=%t", len(req.Items), resp.DraftStaged))
	return resp, nil
}

// executeReturn rewrites the invoice's item list and consolidates the
// returned units into the broken-product ledger. A selection covering a
// line's full amount removes the line; a partial one decrements it and flags
// it so the line cannot be returned twice.
func (s *Service) executeReturn(tx store.Tx, invoiceNumber string, selections []domain.SelectedItem) (*domain.Invoice, []string, error) {
	invoice, err := tx.GetInvoice(invoiceNumber)
	if err != nil {
		return nil, nil, err
	}

	returnedValue := decimal.Zero
	for _, sel := range selections {
		idx := findLine(invoice.Items, sel.ProductID)
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: product %s not on invoice", store.ErrInvalidSelection, sel.ProductID)
		}
		line := invoice.Items[idx]
		if line.IsReturned {
			return nil, nil, fmt.Errorf("%w: line %s already returned", store.ErrInvalidSelection, sel.ProductID)
		}
		if sel.Amount < 1 || sel.Amount > line.Amount {
			return nil, nil, fmt.Errorf("%w: amount %d out of range for %s", store.ErrInvalidSelection, sel.Amount, sel.ProductID)
		}

		returnedValue = returnedValue.Add(line.Price.Mul(decimal.NewFromInt(int64(sel.Amount))))
		if sel.Amount == line.Amount {
			invoice.Items = append(invoice.Items[:idx], invoice.Items[idx+1:]...)
		} else {
			line.Amount -= sel.Amount
			line.IsReturned = true
			invoice.Items[idx] = line
		}
	}

	newTotal := invoice.TotalPrice.Sub(returnedValue)
	if !newTotal.Equal(invoice.LineTotal()) {
		return nil, nil, store.ErrTotalPriceMismatch
	}
	invoice.TotalPrice = newTotal
	if err := tx.UpdateInvoice(*invoice); err != nil {
		return nil, nil, err
	}

	var skipped []string
	for _, sel := range selections {
		ok, err := s.consolidate(tx, sel.ProductID, sel.Amount)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			skipped = append(skipped, sel.ProductID)
		}
	}

	return invoice, skipped, nil
}

// executeExchange hands out fresh units for broken ones. Stock is checked
// and decremented per item; the invoice itself is left untouched.
func (s *Service) executeExchange(tx store.Tx, invoiceNumber string, selections []domain.SelectedItem) error {
	invoice, err := tx.GetInvoice(invoiceNumber)
	if err != nil {
		return err
	}

	for _, sel := range selections {
		idx := findLine(invoice.Items, sel.ProductID)
		if idx < 0 {
			return fmt.Errorf("%w: product %s not on invoice", store.ErrInvalidSelection, sel.ProductID)
		}
		line := invoice.Items[idx]
		if line.IsReturned {
			return fmt.Errorf("%w: line %s already returned", store.ErrInvalidSelection, sel.ProductID)
		}
		if sel.Amount < 1 || sel.Amount > line.Amount {
			return fmt.Errorf("%w: amount %d out of range for %s", store.ErrInvalidSelection, sel.Amount, sel.ProductID)
		}

		product, err := tx.GetProduct(sel.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: product %s has no stock record", store.ErrInvalidSelection, sel.ProductID)
			}
			return err
		}
		if product.Count < sel.Amount {
			return fmt.Errorf("%w: product %s has %d, need %d", store.ErrInsufficientStock, sel.ProductID, product.Count, sel.Amount)
		}
		if err := tx.UpdateProductCount(sel.ProductID, product.Count-sel.Amount); err != nil {
			return err
		}

		if _, err := s.consolidate(tx, sel.ProductID, sel.Amount); err != nil {
			return err
		}
	}

	return nil
}

// executeVoid removes the invoice, archives a snapshot with every line
// flagged returned, and optionally stages a replacement draft keyed by the
// voided number.
func (s *Service) executeVoid(tx store.Tx, invoiceNumber string, replacement *domain.ReplacementRequest) (bool, error) {
	invoice, err := tx.GetInvoice(invoiceNumber)
	if err != nil {
		return false, err
	}

	if err := tx.DeleteInvoice(invoiceNumber); err != nil {
		return false, err
	}

	snapshot := *invoice
	snapshot.Items = make([]domain.InvoiceItem, len(invoice.Items))
	copy(snapshot.Items, invoice.Items)
	for i := range snapshot.Items {
		snapshot.Items[i].IsReturned = true
	}
	if err := tx.SetVoidInvoice(snapshot); err != nil {
		return false, err
	}

	if replacement == nil || len(replacement.Items) == 0 {
		return false, nil
	}

	draft, err := s.buildReplacementDraft(tx, invoiceNumber, *replacement)
	if err != nil {
		return false, err
	}
	if err := tx.SetReplacementDraft(*draft); err != nil {
		return false, err
	}
	return true, nil
}

// buildReplacementDraft resolves draft line prices inside the void
// transaction: the customer's negotiated price when one exists, the list
// sell price otherwise.
func (s *Service) buildReplacementDraft(tx store.Tx, invoiceNumber string, req domain.ReplacementRequest) (*domain.ReplacementDraft, error) {
	var customer *domain.Customer
	if req.CustomerID != "" {
		found, err := tx.GetCustomer(req.CustomerID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		customer = found
	}

	items := make([]domain.InvoiceItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Amount < 1 {
			return nil, fmt.Errorf("%w: replacement amount %d for %s", store.ErrInvalidSelection, line.Amount, line.ProductID)
		}
		product, err := tx.GetProduct(line.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: replacement product %s", store.ErrInvalidSelection, line.ProductID)
			}
			return nil, err
		}

		price := product.SellPrice
		if customer != nil {
			if special, ok := customer.SpecialPriceFor(line.ProductID); ok {
				price = special
			}
		}
		items = append(items, domain.InvoiceItem{
			ProductID:         line.ProductID,
			Amount:            line.Amount,
			Price:             price,
			ProductName:       product.Name(),
			WarehousePosition: product.WarehousePosition,
		})
	}

	return &domain.ReplacementDraft{
		InvoiceNumber: invoiceNumber,
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		PaymentMethod: req.PaymentMethod,
		Items:         items,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// SubmitReplacement turns a staged draft into a real invoice and consumes
// the draft, atomically. Submitting the same voided number twice returns the
// invoice the first call created.
func (s *Service) SubmitReplacement(ctx context.Context, invoiceNumber string) (*domain.Invoice, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, store.ErrNotFound
	}

	var created *domain.Invoice
	err := s.repo.RunAtomic(ctx, func(tx store.Tx) error {
		draft, err := tx.GetReplacementDraft(invoiceNumber)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				existing, findErr := tx.FindInvoiceByReplacementSource(invoiceNumber)
				if findErr != nil {
					return err
				}
				created = existing
				return nil
			}
			return err
		}

		invoice := domain.Invoice{
			ID:             xid.New("inv"),
			CustomerID:     draft.CustomerID,
			CustomerName:   draft.CustomerName,
			Date:           time.Now().UTC().Format("2006-01-02"),
			PaymentMethod:  draft.PaymentMethod,
			Items:          draft.Items,
			ReplacementFor: invoiceNumber,
			CreatedAt:      time.Now().UTC(),
		}
		invoice.TotalPrice = invoice.LineTotal()

		if err := tx.InsertInvoice(invoice); err != nil {
			return err
		}
		if err := tx.DeleteReplacementDraft(invoiceNumber); err != nil {
			return err
		}
		created = &invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "replacement_submit", "invoice", created.ID, "source="+invoiceNumber)
	return created, nil
}

// LookupInvoice resolves an invoice number for the operator screen. Voided
// invoices no longer resolve as live; the void snapshot is reported instead.
func (s *Service) LookupInvoice(ctx context.Context, number string) (domain.InvoiceLookupResponse, error) {
	number = strings.TrimSpace(number)
	invoice, err := s.repo.GetInvoice(ctx, number)
	if err == nil {
		return domain.InvoiceLookupResponse{Found: true, Invoice: invoice}, nil
	}
	if !errors.Is(err, store.ErrInvoiceNotFound) {
		return domain.InvoiceLookupResponse{}, err
	}

	snapshot, err := s.repo.GetVoidInvoice(ctx, number)
	if err != nil {
		if errors.Is(err, store.ErrInvoiceNotFound) {
			return domain.InvoiceLookupResponse{}, nil
		}
		return domain.InvoiceLookupResponse{}, err
	}
	return domain.InvoiceLookupResponse{Voided: true, Invoice: snapshot}, nil
}

// SearchProducts lists stock for the picker, resolving each price against
// the customer's negotiated prices when a customer id is given.
func (s *Service) SearchProducts(ctx context.Context, brand string, customerID string) ([]domain.PricedProduct, error) {
	products, err := s.repo.SearchProducts(ctx, strings.TrimSpace(brand))
	if err != nil {
		return nil, err
	}

	var customer *domain.Customer
	if customerID != "" {
		found, err := s.repo.GetCustomer(ctx, customerID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		customer = found
	}

	priced := make([]domain.PricedProduct, 0, len(products))
	for _, product := range products {
		row := domain.PricedProduct{Product: product, Price: product.SellPrice}
		if customer != nil {
			if special, ok := customer.SpecialPriceFor(product.ID); ok {
				row.Price = special
				row.SpecialPrice = true
			}
		}
		priced = append(priced, row)
	}
	return priced, nil
}

func (s *Service) ListDispatchNotes(ctx context.Context) ([]domain.DispatchNote, error) {
	return s.repo.ListDispatchNotes(ctx)
}

// ListReturnedProducts reports the accumulated supplier restock claims.
func (s *Service) ListReturnedProducts(ctx context.Context) ([]domain.ReturnedProduct, error) {
	return s.repo.ListReturnedProducts(ctx)
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, limit)
}

func findLine(items []domain.InvoiceItem, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         xid.New("audit"),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		logger.Warnf("audit write failed action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}
