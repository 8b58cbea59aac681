package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wms/backend/internal/domain"
	"wms/backend/internal/store"
)

func TestRunAtomicReturnFlow(t *testing.T) {
	databaseURL := os.Getenv("WMS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set WMS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prod-it-%d", stamp)
	invoiceID := fmt.Sprintf("INV-IT-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM returned_products WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM broken_products WHERE source_product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM void_invoices WHERE id = $1`, invoiceID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, invoiceID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	})

	product := domain.Product{
		ID:                productID,
		Brand:             "Menturo",
		MotorType:         "Beat",
		Part:              "Front Fender",
		AvailableColor:    "Red",
		Supplier:          "sup-it",
		WarehousePosition: domain.WarehouseFinishedGoods,
		Count:             10,
		SellPrice:         decimal.NewFromInt(150000),
		PurchasePrice:     decimal.NewFromInt(100000),
	}
	err = s.RunAtomic(ctx, func(tx store.Tx) error {
		if _, txErr := tx.InsertOnDispatchProduct(product); txErr != nil {
			return txErr
		}
		return tx.InsertInvoice(domain.Invoice{
			ID:            invoiceID,
			CustomerName:  "Integration",
			Date:          "2024-05-01",
			PaymentMethod: "Cash",
			TotalPrice:    decimal.NewFromInt(450000),
			Items: []domain.InvoiceItem{{
				ProductID:         productID,
				Amount:            3,
				Price:             decimal.NewFromInt(150000),
				ProductName:       product.Name(),
				WarehousePosition: domain.WarehouseFinishedGoods,
			}},
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	// A body error must roll back every write.
	bodyErr := errors.New("abort")
	err = s.RunAtomic(ctx, func(tx store.Tx) error {
		if txErr := tx.UpdateProductCount(productID, 1); txErr != nil {
			return txErr
		}
		return bodyErr
	})
	if !errors.Is(err, bodyErr) {
		t.Fatalf("expected body error, got %v", err)
	}
	got, err := s.GetProduct(ctx, productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Count != 10 {
		t.Fatalf("expected rollback to count 10, got %d", got.Count)
	}

	// Merge semantics: two merges land on one row by increment.
	record := domain.BrokenProduct{
		Brand:             "Menturo",
		MotorType:         "Beat",
		Part:              "Front Fender",
		AvailableColor:    "Red",
		Supplier:          "sup-it",
		WarehousePosition: domain.WarehouseFinishedGoods,
		Count:             2,
		SellPrice:         decimal.NewFromInt(150000),
		SourceProductID:   productID,
	}
	for _, count := range []int{2, 3} {
		record.Count = count
		if err := s.RunAtomic(ctx, func(tx store.Tx) error {
			return tx.MergeReturnedProduct(record)
		}); err != nil {
			t.Fatalf("merge: %v", err)
		}
	}
	var merged int
	if err := s.db.QueryRowContext(ctx, `
		SELECT count FROM returned_products WHERE product_id = $1
	`, productID).Scan(&merged); err != nil {
		t.Fatalf("read merged count: %v", err)
	}
	if merged != 5 {
		t.Fatalf("expected merged count 5, got %d", merged)
	}

	// Void: invoice row replaced by a snapshot.
	err = s.RunAtomic(ctx, func(tx store.Tx) error {
		invoice, txErr := tx.GetInvoice(invoiceID)
		if txErr != nil {
			return txErr
		}
		if txErr := tx.DeleteInvoice(invoiceID); txErr != nil {
			return txErr
		}
		for i := range invoice.Items {
			invoice.Items[i].IsReturned = true
		}
		return tx.SetVoidInvoice(*invoice)
	})
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if _, err := s.GetInvoice(ctx, invoiceID); !errors.Is(err, store.ErrInvoiceNotFound) {
		t.Fatalf("expected live invoice gone, got %v", err)
	}
	snapshot, err := s.GetVoidInvoice(ctx, invoiceID)
	if err != nil {
		t.Fatalf("get void snapshot: %v", err)
	}
	if !snapshot.Items[0].IsReturned {
		t.Fatalf("snapshot line must be flagged is_returned")
	}
}
