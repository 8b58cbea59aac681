package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"wms/backend/internal/domain"
	"wms/backend/internal/store"
)

func TestRunAtomicRollsBackOnError(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	bodyErr := errors.New("boom")
	err := s.RunAtomic(ctx, func(tx store.Tx) error {
		if err := tx.UpdateProductCount("prod-halogen-red", 1); err != nil {
			t.Fatalf("update count: %v", err)
		}
		if err := tx.DeleteInvoice("INV-001"); err != nil {
			t.Fatalf("delete invoice: %v", err)
		}
		return bodyErr
	})
	if !errors.Is(err, bodyErr) {
		t.Fatalf("expected body error surfaced, got %v", err)
	}

	product, err := s.GetProduct(ctx, "prod-halogen-red")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Count != 40 {
		t.Fatalf("expected count rolled back to 40, got %d", product.Count)
	}
	if _, err := s.GetInvoice(ctx, "INV-001"); err != nil {
		t.Fatalf("expected invoice untouched, got %v", err)
	}
}

func TestRunAtomicCommitsOnSuccess(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	err := s.RunAtomic(ctx, func(tx store.Tx) error {
		return tx.UpdateProductCount("prod-halogen-red", 7)
	})
	if err != nil {
		t.Fatalf("run atomic: %v", err)
	}

	product, err := s.GetProduct(ctx, "prod-halogen-red")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Count != 7 {
		t.Fatalf("expected committed count 7, got %d", product.Count)
	}
}

func TestUpdateProductCountRejectsNegative(t *testing.T) {
	s := NewSeeded()

	err := s.RunAtomic(context.Background(), func(tx store.Tx) error {
		return tx.UpdateProductCount("prod-halogen-red", -1)
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestFindBrokenProductMatchesFullIdentity(t *testing.T) {
	s := New()
	ctx := context.Background()

	record := domain.BrokenProduct{
		Brand:             "Menturo",
		MotorType:         "Beat",
		Part:              "Front Fender",
		AvailableColor:    "Red",
		Supplier:          "sup-wijaya",
		WarehousePosition: domain.WarehouseFinishedGoods,
		Count:             2,
		SellPrice:         decimal.NewFromInt(150000),
	}
	err := s.RunAtomic(ctx, func(tx store.Tx) error {
		_, txErr := tx.InsertBrokenProduct(record)
		return txErr
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	err = s.RunAtomic(ctx, func(tx store.Tx) error {
		found, txErr := tx.FindBrokenProduct(record.Identity())
		if txErr != nil {
			return txErr
		}
		if found.Count != 2 {
			t.Fatalf("expected count 2, got %d", found.Count)
		}

		// One differing field means a different identity.
		other := record.Identity()
		other.AvailableColor = "red"
		if _, txErr := tx.FindBrokenProduct(other); !errors.Is(txErr, store.ErrNotFound) {
			t.Fatalf("identity match must be case-sensitive, got %v", txErr)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run atomic: %v", err)
	}
}

func TestMergeReturnedProductIncrements(t *testing.T) {
	s := New()
	ctx := context.Background()

	record := domain.BrokenProduct{
		Brand:           "Menturo",
		MotorType:       "Beat",
		Part:            "Front Fender",
		AvailableColor:  "Red",
		Supplier:        "sup-wijaya",
		Count:           2,
		SourceProductID: "prod-halogen-red",
	}
	for _, count := range []int{2, 3} {
		record.Count = count
		err := s.RunAtomic(ctx, func(tx store.Tx) error {
			return tx.MergeReturnedProduct(record)
		})
		if err != nil {
			t.Fatalf("merge: %v", err)
		}
	}

	returned, err := s.ListReturnedProducts(ctx)
	if err != nil {
		t.Fatalf("list returned: %v", err)
	}
	if len(returned) != 1 {
		t.Fatalf("expected one merged row, got %d", len(returned))
	}
	if returned[0].Count != 5 {
		t.Fatalf("expected merged count 5, got %d", returned[0].Count)
	}
}

func TestSearchProductsBrandPrefix(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	products, err := s.SearchProducts(ctx, "rap")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 Rapido rows, got %d", len(products))
	}
	for _, p := range products {
		if p.Brand != "Rapido" {
			t.Fatalf("unexpected brand %q", p.Brand)
		}
	}

	all, err := s.SearchProducts(ctx, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected all 4 seeded products, got %d", len(all))
	}
}
