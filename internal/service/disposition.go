package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wms/backend/internal/domain"
	"wms/backend/internal/store"
	"wms/backend/internal/xid"
)

// consolidate folds amount units of a product into the broken-product
// ledger, merging into the existing row for the same identity or inserting a
// fresh one. The identity's warehouse is pinned to the sales warehouse so
// returns of the same product always land on one row. A missing stock record
// means there is nothing to describe the units with; the caller decides
// whether that is worth reporting.
func (s *Service) consolidate(tx store.Tx, productID string, amount int) (bool, error) {
	product, err := tx.GetProduct(productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	identity := product.Identity()
	identity.WarehousePosition = s.salesWarehouse

	existing, err := tx.FindBrokenProduct(identity)
	if err == nil {
		return true, tx.UpdateBrokenProductCount(existing.ID, existing.Count+amount)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	_, err = tx.InsertBrokenProduct(domain.BrokenProduct{
		ID:                xid.New("broken"),
		Brand:             product.Brand,
		MotorType:         product.MotorType,
		Part:              product.Part,
		AvailableColor:    product.AvailableColor,
		Supplier:          product.Supplier,
		WarehousePosition: s.salesWarehouse,
		Count:             amount,
		SellPrice:         product.SellPrice,
		SourceProductID:   product.ID,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Dispose routes a broken-product row out of the ledger: back to the
// supplier as a restock claim, or to the painter for rework. Either way the
// row is deleted; disposition is terminal.
func (s *Service) Dispose(ctx context.Context, req domain.DisposeRequest) (domain.DisposeResponse, error) {
	resp := domain.DisposeResponse{BrokenProductID: req.BrokenProductID, Target: req.Target}

	switch req.Target {
	case domain.DisposeToSupplier:
		err := s.repo.RunAtomic(ctx, func(tx store.Tx) error {
			record, err := tx.GetBrokenProduct(req.BrokenProductID)
			if err != nil {
				return err
			}
			if err := tx.MergeReturnedProduct(*record); err != nil {
				return err
			}
			return tx.DeleteBrokenProduct(record.ID)
		})
		if err != nil {
			return domain.DisposeResponse{}, err
		}
	case domain.DisposeToPainter:
		if strings.TrimSpace(req.PainterName) == "" {
			return domain.DisposeResponse{}, fmt.Errorf("%w: painter name required", store.ErrInvalidDisposition)
		}
		err := s.repo.RunAtomic(ctx, func(tx store.Tx) error {
			record, err := tx.GetBrokenProduct(req.BrokenProductID)
			if err != nil {
				return err
			}
			if record.WarehousePosition != s.salesWarehouse {
				return fmt.Errorf("%w: painter rework only from %s", store.ErrInvalidDisposition, s.salesWarehouse)
			}

			note := domain.DispatchNote{
				ID:      xid.New("dispatch"),
				Date:    time.Now().UTC().Format("2006-01-02"),
				Painter: strings.TrimSpace(req.PainterName),
				DispatchItems: []domain.DispatchItem{{
					Amount:    record.Count,
					Color:     record.AvailableColor,
					ProductID: record.SourceProductID,
				}},
			}
			noteID, err := tx.InsertDispatchNote(note)
			if err != nil {
				return err
			}
			note.ID = noteID

			_, err = tx.InsertOnDispatchProduct(domain.Product{
				ID:                xid.New("prod"),
				Brand:             record.Brand,
				MotorType:         record.MotorType,
				Part:              record.Part,
				AvailableColor:    record.AvailableColor,
				Supplier:          record.Supplier,
				WarehousePosition: domain.WarehouseRawMaterials,
				Count:             record.Count,
				SellPrice:         record.SellPrice,
				Status:            domain.StatusUnderPainting,
				DispatchNoteID:    noteID,
			})
			if err != nil {
				return err
			}
			if err := tx.DeleteBrokenProduct(record.ID); err != nil {
				return err
			}
			resp.DispatchNote = &note
			return nil
		})
		if err != nil {
			return domain.DisposeResponse{}, err
		}
	default:
		return domain.DisposeResponse{}, fmt.Errorf("%w: unknown target %q", store.ErrInvalidDisposition, req.Target)
	}

	if err := s.searchCache.Invalidate(ctx); err != nil {
		logger.Warnf("invalidate search cache: %v", err)
	}
	s.logAudit(ctx, "dispose_"+req.Target, "broken_product", req.BrokenProductID, "painter="+req.PainterName)
	return resp, nil
}

// FindDefectiveStock lists broken-product rows whose brand, motor type,
// part, or color contains the search term. Results are served from the
// search cache when warm.
func (s *Service) FindDefectiveStock(ctx context.Context, search string) ([]domain.BrokenProduct, error) {
	needle := strings.ToLower(strings.TrimSpace(search))

	if cached, hit, err := s.searchCache.Get(ctx, needle); err != nil {
		logger.Warnf("search cache get: %v", err)
	} else if hit {
		return cached, nil
	}

	records, err := s.repo.ListBrokenProducts(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.BrokenProduct, 0, len(records))
	for _, record := range records {
		if needle == "" || matchesDefectiveSearch(record, needle) {
			matched = append(matched, record)
		}
	}

	if err := s.searchCache.Set(ctx, needle, matched, s.searchCacheTTL); err != nil {
		logger.Warnf("search cache set: %v", err)
	}
	return matched, nil
}

func matchesDefectiveSearch(record domain.BrokenProduct, needle string) bool {
	for _, field := range []string{record.Brand, record.MotorType, record.Part, record.AvailableColor} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
