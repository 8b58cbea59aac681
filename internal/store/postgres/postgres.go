package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"wms/backend/internal/domain"
	"wms/backend/internal/store"
	"wms/backend/internal/xid"
)

const atomicRetryBudget = 5

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RunAtomic wraps fn in a serializable transaction. Serialization failures
// and deadlocks are retried a few times before surfacing as
// store.ErrTransactionConflict.
func (s *Store) RunAtomic(ctx context.Context, fn func(tx store.Tx) error) error {
	for attempt := 0; attempt < atomicRetryBudget; attempt++ {
		sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return err
		}

		err = fn(&pgTx{ctx: ctx, tx: sqlTx})
		if err != nil {
			_ = sqlTx.Rollback()
			if isSerializationFailure(err) {
				continue
			}
			return err
		}

		if err := sqlTx.Commit(); err != nil {
			if isSerializationFailure(err) {
				continue
			}
			return err
		}
		return nil
	}
	return store.ErrTransactionConflict
}

type pgTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *pgTx) GetProduct(id string) (*domain.Product, error) {
	var p domain.Product
	var dispatchNoteID sql.NullString
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT id, brand, motor_type, part, available_color, supplier, warehouse_position,
			count, sell_price, purchase_price, status, dispatch_note_id
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&p.ID, &p.Brand, &p.MotorType, &p.Part, &p.AvailableColor, &p.Supplier,
		&p.WarehousePosition, &p.Count, &p.SellPrice, &p.PurchasePrice, &p.Status, &dispatchNoteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if dispatchNoteID.Valid {
		p.DispatchNoteID = dispatchNoteID.String
	}
	return &p, nil
}

func (t *pgTx) UpdateProductCount(id string, count int) error {
	if count < 0 {
		return store.ErrInsufficientStock
	}
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE products
		SET count = $2, updated_at = now()
		WHERE id = $1
	`, id, count)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *pgTx) InsertOnDispatchProduct(product domain.Product) (string, error) {
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO products (
			id, brand, motor_type, part, available_color, supplier, warehouse_position,
			count, sell_price, purchase_price, status, dispatch_note_id, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
	`, product.ID, product.Brand, product.MotorType, product.Part, product.AvailableColor,
		product.Supplier, product.WarehousePosition, product.Count, product.SellPrice,
		product.PurchasePrice, product.Status, nullIfEmpty(product.DispatchNoteID))
	if err != nil {
		return "", err
	}
	return product.ID, nil
}

func (t *pgTx) GetInvoice(number string) (*domain.Invoice, error) {
	return scanInvoice(t.tx.QueryRowContext(t.ctx, `
		SELECT id, customer_id, customer_name, invoice_date, payment_method, total_price,
			items, replacement_for, created_at
		FROM invoices
		WHERE id = $1
		FOR UPDATE
	`, number))
}

func (t *pgTx) UpdateInvoice(invoice domain.Invoice) error {
	itemsJSON, err := json.Marshal(invoice.Items)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE invoices
		SET total_price = $2, items = $3, updated_at = now()
		WHERE id = $1
	`, invoice.ID, invoice.TotalPrice, itemsJSON)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrInvoiceNotFound
	}
	return nil
}

func (t *pgTx) InsertInvoice(invoice domain.Invoice) error {
	itemsJSON, err := json.Marshal(invoice.Items)
	if err != nil {
		return err
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now().UTC()
	}
	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO invoices (
			id, customer_id, customer_name, invoice_date, payment_method, total_price,
			items, replacement_for, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
	`, invoice.ID, invoice.CustomerID, invoice.CustomerName, invoice.Date, invoice.PaymentMethod,
		invoice.TotalPrice, itemsJSON, nullIfEmpty(invoice.ReplacementFor), invoice.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidSelection
		}
		return err
	}
	return nil
}

func (t *pgTx) DeleteInvoice(number string) error {
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM invoices WHERE id = $1`, number)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrInvoiceNotFound
	}
	return nil
}

func (t *pgTx) SetVoidInvoice(invoice domain.Invoice) error {
	itemsJSON, err := json.Marshal(invoice.Items)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO void_invoices (
			id, customer_id, customer_name, invoice_date, payment_method, total_price,
			items, voided_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
		ON CONFLICT (id)
		DO UPDATE SET items = EXCLUDED.items, total_price = EXCLUDED.total_price, voided_at = now()
	`, invoice.ID, invoice.CustomerID, invoice.CustomerName, invoice.Date, invoice.PaymentMethod,
		invoice.TotalPrice, itemsJSON)
	return err
}

func (t *pgTx) FindBrokenProduct(identity domain.ProductIdentity) (*domain.BrokenProduct, error) {
	return scanBrokenProduct(t.tx.QueryRowContext(t.ctx, `
		SELECT id, brand, motor_type, part, available_color, supplier, warehouse_position,
			count, sell_price, source_product_id
		FROM broken_products
		WHERE warehouse_position = $1 AND brand = $2 AND motor_type = $3
			AND part = $4 AND available_color = $5 AND supplier = $6
		FOR UPDATE
	`, identity.WarehousePosition, identity.Brand, identity.MotorType, identity.Part,
		identity.AvailableColor, identity.Supplier))
}

func (t *pgTx) GetBrokenProduct(id string) (*domain.BrokenProduct, error) {
	return scanBrokenProduct(t.tx.QueryRowContext(t.ctx, `
		SELECT id, brand, motor_type, part, available_color, supplier, warehouse_position,
			count, sell_price, source_product_id
		FROM broken_products
		WHERE id = $1
		FOR UPDATE
	`, id))
}

func (t *pgTx) InsertBrokenProduct(record domain.BrokenProduct) (string, error) {
	if record.ID == "" {
		record.ID = xid.New("broken")
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO broken_products (
			id, brand, motor_type, part, available_color, supplier, warehouse_position,
			count, sell_price, source_product_id, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
	`, record.ID, record.Brand, record.MotorType, record.Part, record.AvailableColor,
		record.Supplier, record.WarehousePosition, record.Count, record.SellPrice,
		nullIfEmpty(record.SourceProductID))
	if err != nil {
		return "", err
	}
	return record.ID, nil
}

func (t *pgTx) UpdateBrokenProductCount(id string, count int) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE broken_products
		SET count = $2, updated_at = now()
		WHERE id = $1
	`, id, count)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteBrokenProduct(id string) error {
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM broken_products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *pgTx) MergeReturnedProduct(record domain.BrokenProduct) error {
	key := record.SourceProductID
	if key == "" {
		key = record.ID
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO returned_products (
			product_id, brand, motor_type, part, available_color, supplier, count, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
		ON CONFLICT (product_id)
		DO UPDATE SET count = returned_products.count + EXCLUDED.count, updated_at = now()
	`, key, record.Brand, record.MotorType, record.Part, record.AvailableColor,
		record.Supplier, record.Count)
	return err
}

func (t *pgTx) InsertDispatchNote(note domain.DispatchNote) (string, error) {
	if note.ID == "" {
		note.ID = xid.New("dispatch")
	}
	itemsJSON, err := json.Marshal(note.DispatchItems)
	if err != nil {
		return "", err
	}
	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO dispatch_notes (id, note_date, painter, dispatch_items, created_at)
		VALUES ($1,$2,$3,$4,now())
	`, note.ID, note.Date, note.Painter, itemsJSON)
	if err != nil {
		return "", err
	}
	return note.ID, nil
}

func (t *pgTx) GetCustomer(id string) (*domain.Customer, error) {
	return scanCustomer(t.tx.QueryRowContext(t.ctx, `
		SELECT id, name, special_prices
		FROM customers
		WHERE id = $1
	`, id))
}

func (t *pgTx) SetReplacementDraft(draft domain.ReplacementDraft) error {
	itemsJSON, err := json.Marshal(draft.Items)
	if err != nil {
		return err
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}
	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO replacement_drafts (
			invoice_number, customer_id, customer_name, payment_method, items, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (invoice_number)
		DO UPDATE SET customer_id = EXCLUDED.customer_id, customer_name = EXCLUDED.customer_name,
			payment_method = EXCLUDED.payment_method, items = EXCLUDED.items
	`, draft.InvoiceNumber, draft.CustomerID, draft.CustomerName, draft.PaymentMethod,
		itemsJSON, draft.CreatedAt)
	return err
}

func (t *pgTx) GetReplacementDraft(invoiceNumber string) (*domain.ReplacementDraft, error) {
	return scanDraft(t.tx.QueryRowContext(t.ctx, `
		SELECT invoice_number, customer_id, customer_name, payment_method, items, created_at
		FROM replacement_drafts
		WHERE invoice_number = $1
		FOR UPDATE
	`, invoiceNumber))
}

func (t *pgTx) DeleteReplacementDraft(invoiceNumber string) error {
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM replacement_drafts WHERE invoice_number = $1`, invoiceNumber)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *pgTx) FindInvoiceByReplacementSource(invoiceNumber string) (*domain.Invoice, error) {
	return scanInvoice(t.tx.QueryRowContext(t.ctx, `
		SELECT id, customer_id, customer_name, invoice_date, payment_method, total_price,
			items, replacement_for, created_at
		FROM invoices
		WHERE replacement_for = $1
	`, invoiceNumber))
}

func (s *Store) GetInvoice(ctx context.Context, number string) (*domain.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, customer_name, invoice_date, payment_method, total_price,
			items, replacement_for, created_at
		FROM invoices
		WHERE id = $1
	`, number))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (s *Store) GetVoidInvoice(ctx context.Context, number string) (*domain.Invoice, error) {
	var inv domain.Invoice
	var itemsRaw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, customer_name, invoice_date, payment_method, total_price, items, voided_at
		FROM void_invoices
		WHERE id = $1
	`, number).Scan(&inv.ID, &inv.CustomerID, &inv.CustomerName, &inv.Date, &inv.PaymentMethod,
		&inv.TotalPrice, &itemsRaw, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrInvoiceNotFound
		}
		return nil, err
	}
	inv.CreatedAt = inv.CreatedAt.UTC()
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &inv.Items); err != nil {
			return nil, err
		}
	}
	return &inv, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	var dispatchNoteID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, brand, motor_type, part, available_color, supplier, warehouse_position,
			count, sell_price, purchase_price, status, dispatch_note_id
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Brand, &p.MotorType, &p.Part, &p.AvailableColor, &p.Supplier,
		&p.WarehousePosition, &p.Count, &p.SellPrice, &p.PurchasePrice, &p.Status, &dispatchNoteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if dispatchNoteID.Valid {
		p.DispatchNoteID = dispatchNoteID.String
	}
	return &p, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return scanCustomer(s.db.QueryRowContext(ctx, `
		SELECT id, name, special_prices
		FROM customers
		WHERE id = $1
	`, id))
}

func (s *Store) SearchProducts(ctx context.Context, brand string) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, brand, motor_type, part, available_color, supplier, warehouse_position,
			count, sell_price, purchase_price, status, dispatch_note_id
		FROM products
		WHERE ($1 = '' OR brand ILIKE $1 || '%')
		ORDER BY brand, motor_type, part, available_color
	`, brand)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		var dispatchNoteID sql.NullString
		if err := rows.Scan(&p.ID, &p.Brand, &p.MotorType, &p.Part, &p.AvailableColor, &p.Supplier,
			&p.WarehousePosition, &p.Count, &p.SellPrice, &p.PurchasePrice, &p.Status, &dispatchNoteID); err != nil {
			return nil, err
		}
		if dispatchNoteID.Valid {
			p.DispatchNoteID = dispatchNoteID.String
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) ListBrokenProducts(ctx context.Context) ([]domain.BrokenProduct, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, brand, motor_type, part, available_color, supplier, warehouse_position,
			count, sell_price, source_product_id
		FROM broken_products
		ORDER BY brand, motor_type, part, available_color
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.BrokenProduct, 0, 64)
	for rows.Next() {
		var bp domain.BrokenProduct
		var sourceID sql.NullString
		if err := rows.Scan(&bp.ID, &bp.Brand, &bp.MotorType, &bp.Part, &bp.AvailableColor,
			&bp.Supplier, &bp.WarehousePosition, &bp.Count, &bp.SellPrice, &sourceID); err != nil {
			return nil, err
		}
		if sourceID.Valid {
			bp.SourceProductID = sourceID.String
		}
		records = append(records, bp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) ListReturnedProducts(ctx context.Context) ([]domain.ReturnedProduct, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, brand, motor_type, part, available_color, supplier, count
		FROM returned_products
		ORDER BY product_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.ReturnedProduct, 0, 64)
	for rows.Next() {
		var rp domain.ReturnedProduct
		if err := rows.Scan(&rp.ProductID, &rp.Brand, &rp.MotorType, &rp.Part, &rp.AvailableColor,
			&rp.Supplier, &rp.Count); err != nil {
			return nil, err
		}
		records = append(records, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) ListDispatchNotes(ctx context.Context) ([]domain.DispatchNote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, note_date, painter, dispatch_items
		FROM dispatch_notes
		ORDER BY note_date DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]domain.DispatchNote, 0, 32)
	for rows.Next() {
		var note domain.DispatchNote
		var itemsRaw []byte
		if err := rows.Scan(&note.ID, &note.Date, &note.Painter, &itemsRaw); err != nil {
			return nil, err
		}
		if len(itemsRaw) > 0 {
			if err := json.Unmarshal(itemsRaw, &note.DispatchItems); err != nil {
				return nil, err
			}
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *Store) GetReplacementDraft(ctx context.Context, invoiceNumber string) (*domain.ReplacementDraft, error) {
	return scanDraft(s.db.QueryRowContext(ctx, `
		SELECT invoice_number, customer_id, customer_name, payment_method, items, created_at
		FROM replacement_drafts
		WHERE invoice_number = $1
	`, invoiceNumber))
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	var itemsRaw []byte
	var replacementFor sql.NullString
	err := row.Scan(&inv.ID, &inv.CustomerID, &inv.CustomerName, &inv.Date, &inv.PaymentMethod,
		&inv.TotalPrice, &itemsRaw, &replacementFor, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	inv.CreatedAt = inv.CreatedAt.UTC()
	if replacementFor.Valid {
		inv.ReplacementFor = replacementFor.String
	}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &inv.Items); err != nil {
			return nil, err
		}
	}
	return &inv, nil
}

func scanBrokenProduct(row rowScanner) (*domain.BrokenProduct, error) {
	var bp domain.BrokenProduct
	var sourceID sql.NullString
	err := row.Scan(&bp.ID, &bp.Brand, &bp.MotorType, &bp.Part, &bp.AvailableColor,
		&bp.Supplier, &bp.WarehousePosition, &bp.Count, &bp.SellPrice, &sourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if sourceID.Valid {
		bp.SourceProductID = sourceID.String
	}
	return &bp, nil
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	var pricesRaw []byte
	err := row.Scan(&c.ID, &c.Name, &pricesRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if len(pricesRaw) > 0 {
		if err := json.Unmarshal(pricesRaw, &c.SpecialPrices); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func scanDraft(row rowScanner) (*domain.ReplacementDraft, error) {
	var draft domain.ReplacementDraft
	var itemsRaw []byte
	err := row.Scan(&draft.InvoiceNumber, &draft.CustomerID, &draft.CustomerName,
		&draft.PaymentMethod, &itemsRaw, &draft.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	draft.CreatedAt = draft.CreatedAt.UTC()
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &draft.Items); err != nil {
			return nil, err
		}
	}
	return &draft, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
