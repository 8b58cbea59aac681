package store

import (
	"context"
	"errors"

	"wms/backend/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvalidSelection    = errors.New("invalid selection")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidDisposition  = errors.New("invalid disposition")
	ErrTransactionConflict = errors.New("transaction conflict")
	ErrTotalPriceMismatch  = errors.New("total price mismatch")
)

// Tx is the handle passed to a RunAtomic body. Every read observes a
// consistent snapshot and every write becomes visible only if the whole body
// returns nil.
type Tx interface {
	GetProduct(id string) (*domain.Product, error)
	UpdateProductCount(id string, count int) error
	InsertOnDispatchProduct(product domain.Product) (string, error)

	GetInvoice(number string) (*domain.Invoice, error)
	UpdateInvoice(invoice domain.Invoice) error
	InsertInvoice(invoice domain.Invoice) error
	DeleteInvoice(number string) error
	SetVoidInvoice(invoice domain.Invoice) error

	// FindBrokenProduct matches on the full identity tuple; callers pin the
	// warehouse to the sales warehouse before querying.
	FindBrokenProduct(identity domain.ProductIdentity) (*domain.BrokenProduct, error)
	GetBrokenProduct(id string) (*domain.BrokenProduct, error)
	InsertBrokenProduct(record domain.BrokenProduct) (string, error)
	UpdateBrokenProductCount(id string, count int) error
	DeleteBrokenProduct(id string) error

	// MergeReturnedProduct increments the restock count for the record's
	// source product, inserting the row if it does not exist yet.
	MergeReturnedProduct(record domain.BrokenProduct) error

	InsertDispatchNote(note domain.DispatchNote) (string, error)

	GetCustomer(id string) (*domain.Customer, error)

	SetReplacementDraft(draft domain.ReplacementDraft) error
	GetReplacementDraft(invoiceNumber string) (*domain.ReplacementDraft, error)
	DeleteReplacementDraft(invoiceNumber string) error
	FindInvoiceByReplacementSource(invoiceNumber string) (*domain.Invoice, error)
}

type Repository interface {
	// RunAtomic executes fn as one atomic unit: either every write performed
	// through the Tx handle commits, or none do. Implementations retry the
	// body on write-write conflicts, so fn must be free of non-idempotent
	// side effects.
	RunAtomic(ctx context.Context, fn func(tx Tx) error) error

	GetInvoice(ctx context.Context, number string) (*domain.Invoice, error)
	GetVoidInvoice(ctx context.Context, number string) (*domain.Invoice, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	SearchProducts(ctx context.Context, brand string) ([]domain.Product, error)
	ListBrokenProducts(ctx context.Context) ([]domain.BrokenProduct, error)
	ListReturnedProducts(ctx context.Context) ([]domain.ReturnedProduct, error)
	ListDispatchNotes(ctx context.Context) ([]domain.DispatchNote, error)
	GetReplacementDraft(ctx context.Context, invoiceNumber string) (*domain.ReplacementDraft, error)
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}
