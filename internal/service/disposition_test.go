package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"wms/backend/internal/domain"
	"wms/backend/internal/store"
)

// breakUnits routes units of a product into the broken ledger via an
// exchange and returns the resulting row.
func breakUnits(t *testing.T, svc *Service, productID string, amount int) domain.BrokenProduct {
	t.Helper()

	if _, err := svc.Execute(context.Background(), domain.ExecuteRequest{
		Mode:          domain.ModeExchange,
		InvoiceNumber: "INV-001",
		Items:         []domain.SelectedItem{{ProductID: productID, Amount: amount}},
	}); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	records, err := svc.FindDefectiveStock(context.Background(), "")
	if err != nil {
		t.Fatalf("find defective stock: %v", err)
	}
	for _, record := range records {
		if record.SourceProductID == productID {
			return record
		}
	}
	t.Fatalf("no broken row for %s", productID)
	return domain.BrokenProduct{}
}

func TestConsolidationMergesSameIdentity(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	breakUnits(t, svc, "prod-halogen-red", 2)
	record := breakUnits(t, svc, "prod-halogen-red", 3)

	if record.Count != 5 {
		t.Fatalf("expected merged count 5, got %d", record.Count)
	}
	broken, err := repo.ListBrokenProducts(ctx)
	if err != nil {
		t.Fatalf("list broken: %v", err)
	}
	if len(broken) != 1 {
		t.Fatalf("same identity must stay on one row, got %d", len(broken))
	}
}

func TestDisposeSupplierMergesAndDeletes(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	record := breakUnits(t, svc, "prod-halogen-red", 2)
	if _, err := svc.Dispose(ctx, domain.DisposeRequest{
		BrokenProductID: record.ID,
		Target:          domain.DisposeToSupplier,
	}); err != nil {
		t.Fatalf("dispose failed: %v", err)
	}

	broken, err := repo.ListBrokenProducts(ctx)
	if err != nil {
		t.Fatalf("list broken: %v", err)
	}
	if len(broken) != 0 {
		t.Fatalf("dispose must delete the broken row, %d left", len(broken))
	}

	// A later disposition of the same product merges by increment.
	record = breakUnits(t, svc, "prod-halogen-red", 3)
	if _, err := svc.Dispose(ctx, domain.DisposeRequest{
		BrokenProductID: record.ID,
		Target:          domain.DisposeToSupplier,
	}); err != nil {
		t.Fatalf("second dispose failed: %v", err)
	}

	returned, err := repo.ListReturnedProducts(ctx)
	if err != nil {
		t.Fatalf("list returned: %v", err)
	}
	if len(returned) != 1 {
		t.Fatalf("expected one restock claim, got %d", len(returned))
	}
	if returned[0].Count != 5 {
		t.Fatalf("expected restock count 2+3=5, got %d", returned[0].Count)
	}
	if returned[0].Supplier != "sup-wijaya" {
		t.Fatalf("restock claim must carry the supplier, got %q", returned[0].Supplier)
	}
}

func TestDisposeIsTerminal(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	record := breakUnits(t, svc, "prod-halogen-red", 1)
	if _, err := svc.Dispose(ctx, domain.DisposeRequest{
		BrokenProductID: record.ID,
		Target:          domain.DisposeToSupplier,
	}); err != nil {
		t.Fatalf("dispose failed: %v", err)
	}

	_, err := svc.Dispose(ctx, domain.DisposeRequest{
		BrokenProductID: record.ID,
		Target:          domain.DisposeToSupplier,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second dispose, got %v", err)
	}
}

func TestDisposePainterCreatesDispatchAndOnDispatchStock(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	record := breakUnits(t, svc, "prod-halogen-red", 4)
	resp, err := svc.Dispose(ctx, domain.DisposeRequest{
		BrokenProductID: record.ID,
		Target:          domain.DisposeToPainter,
		PainterName:     "Budi",
	})
	if err != nil {
		t.Fatalf("dispose failed: %v", err)
	}
	if resp.DispatchNote == nil {
		t.Fatalf("painter dispose must return the dispatch note")
	}
	if resp.DispatchNote.Painter != "Budi" {
		t.Fatalf("expected painter Budi, got %q", resp.DispatchNote.Painter)
	}
	if len(resp.DispatchNote.DispatchItems) != 1 {
		t.Fatalf("expected one dispatch item, got %d", len(resp.DispatchNote.DispatchItems))
	}
	item := resp.DispatchNote.DispatchItems[0]
	if item.Amount != 4 || item.Color != "Red" || item.ProductID != "prod-halogen-red" {
		t.Fatalf("unexpected dispatch item %+v", item)
	}
	if len(resp.DispatchNote.Date) != 10 {
		t.Fatalf("dispatch date must format as YYYY-MM-DD, got %q", resp.DispatchNote.Date)
	}

	notes, err := svc.ListDispatchNotes(ctx)
	if err != nil {
		t.Fatalf("list dispatch notes: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected the note persisted, got %d", len(notes))
	}

	products, err := repo.SearchProducts(ctx, "menturo")
	if err != nil {
		t.Fatalf("search products: %v", err)
	}
	var dispatched *domain.Product
	for i := range products {
		if products[i].Status == domain.StatusUnderPainting {
			dispatched = &products[i]
		}
	}
	if dispatched == nil {
		t.Fatalf("expected an on-dispatch stock row")
	}
	if dispatched.WarehousePosition != domain.WarehouseRawMaterials {
		t.Fatalf("on-dispatch stock must sit in %s, got %s", domain.WarehouseRawMaterials, dispatched.WarehousePosition)
	}
	if dispatched.Count != 4 {
		t.Fatalf("expected on-dispatch count 4, got %d", dispatched.Count)
	}
	if dispatched.DispatchNoteID != resp.DispatchNote.ID {
		t.Fatalf("on-dispatch stock must reference the note")
	}

	broken, err := repo.ListBrokenProducts(ctx)
	if err != nil {
		t.Fatalf("list broken: %v", err)
	}
	if len(broken) != 0 {
		t.Fatalf("painter dispose must delete the broken row")
	}
}

func TestDisposePainterRequiresName(t *testing.T) {
	svc, _ := newTestService()

	record := breakUnits(t, svc, "prod-halogen-red", 1)
	_, err := svc.Dispose(context.Background(), domain.DisposeRequest{
		BrokenProductID: record.ID,
		Target:          domain.DisposeToPainter,
	})
	if !errors.Is(err, store.ErrInvalidDisposition) {
		t.Fatalf("expected ErrInvalidDisposition, got %v", err)
	}
}

func TestDisposePainterRejectsNonSalesWarehouseStock(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	var id string
	err := repo.RunAtomic(ctx, func(tx store.Tx) error {
		var txErr error
		id, txErr = tx.InsertBrokenProduct(domain.BrokenProduct{
			Brand:             "Rapido",
			MotorType:         "Vario 125",
			Part:              "Rear Spoiler",
			AvailableColor:    "Unpainted",
			Supplier:          "sup-sentosa",
			WarehousePosition: domain.WarehouseRawMaterials,
			Count:             2,
			SellPrice:         decimal.NewFromInt(90000),
			SourceProductID:   "prod-spoiler-raw",
		})
		return txErr
	})
	if err != nil {
		t.Fatalf("seed broken row: %v", err)
	}

	_, err = svc.Dispose(ctx, domain.DisposeRequest{
		BrokenProductID: id,
		Target:          domain.DisposeToPainter,
		PainterName:     "Budi",
	})
	if !errors.Is(err, store.ErrInvalidDisposition) {
		t.Fatalf("expected ErrInvalidDisposition for raw-materials stock, got %v", err)
	}
}

func TestDisposeUnknownTarget(t *testing.T) {
	svc, _ := newTestService()

	record := breakUnits(t, svc, "prod-halogen-red", 1)
	_, err := svc.Dispose(context.Background(), domain.DisposeRequest{
		BrokenProductID: record.ID,
		Target:          "shredder",
	})
	if !errors.Is(err, store.ErrInvalidDisposition) {
		t.Fatalf("expected ErrInvalidDisposition, got %v", err)
	}
}

func TestFindDefectiveStockFilters(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	breakUnits(t, svc, "prod-halogen-red", 1)
	breakUnits(t, svc, "prod-cover-blue", 1)

	all, err := svc.FindDefectiveStock(ctx, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows for empty search, got %d", len(all))
	}

	byType, err := svc.FindDefectiveStock(ctx, "VARIO")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byType) != 1 || byType[0].MotorType != "Vario 125" {
		t.Fatalf("expected the Vario row for case-insensitive search, got %+v", byType)
	}

	none, err := svc.FindDefectiveStock(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no rows, got %d", len(none))
	}
}
