package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "estoque/internal/errors"
)

// SQLProductStore implements ProductStore on top of the embedded SQL
// database.
type SQLProductStore struct {
	db *sql.DB
}

// NewSQLProductStore creates a new product store over an open database handle.
func NewSQLProductStore(db *sql.DB) *SQLProductStore {
	return &SQLProductStore{db: db}
}

const productColumns = "id, nome, descricao, quantidade, preco"

// FindByID retrieves a product by its identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *SQLProductStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM produtos WHERE id = ?", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

// FindAll retrieves all products ordered by name.
func (s *SQLProductStore) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM produtos ORDER BY nome")
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// SearchByName retrieves the products whose name contains the term,
// compared case-insensitively.
func (s *SQLProductStore) SearchByName(ctx context.Context, term string) ([]Product, error) {
	pattern := "%" + strings.ToLower(term) + "%"
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM produtos WHERE LOWER(nome) LIKE ? ORDER BY nome", pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search products by name: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// Create adds a new product to the store.
func (s *SQLProductStore) Create(ctx context.Context, name, description string, quantity int64, price float64) (*Product, error) {
	var product *Product
	txErr := withTransaction(ctx, s.db, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx, "produtos")
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO produtos (id, nome, descricao, quantidade, preco) VALUES (?, ?, ?, ?, ?)",
			id, name, description, quantity, price)
		if err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}
		product = &Product{ID: id, Name: name, Description: description, Quantity: quantity, Price: price}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return product, nil
}

// Update overwrites a product's fields by ID. A missing ID is a no-op,
// matching the unconditional-overwrite contract.
func (s *SQLProductStore) Update(ctx context.Context, id int64, name, description string, quantity int64, price float64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE produtos SET nome = ?, descricao = ?, quantidade = ?, preco = ? WHERE id = ?",
		name, description, quantity, price, id)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// Delete removes a product by ID. Sales referencing it are untouched.
func (s *SQLProductStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM produtos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// TotalInStock sums the stock quantity over all products.
func (s *SQLProductStore) TotalInStock(ctx context.Context) (int64, error) {
	return sumQuantity(ctx, s.db, "produtos")
}

// SQLSaleStore implements SaleStore on top of the embedded SQL database.
type SQLSaleStore struct {
	db *sql.DB
}

// NewSQLSaleStore creates a new sale store over an open database handle.
func NewSQLSaleStore(db *sql.DB) *SQLSaleStore {
	return &SQLSaleStore{db: db}
}

// RegisterSale decrements the product's stock and inserts the sale row
// as a single transaction. The decrement is a conditional single
// statement so two concurrent sales cannot both pass the stock check.
func (s *SQLSaleStore) RegisterSale(ctx context.Context, productID, quantity int64) (*Sale, error) {
	var sale *Sale
	txErr := withTransaction(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE produtos SET quantidade = quantidade - ? WHERE id = ? AND quantidade >= ?",
			quantity, productID, quantity)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			// Distinguish a missing product from insufficient stock.
			var count int64
			if err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM produtos WHERE id = ?", productID).Scan(&count); err != nil {
				return fmt.Errorf("failed to check product existence: %w", err)
			}
			if count == 0 {
				return domain.ErrProductNotFound
			}
			return domain.ErrInsufficientStock
		}

		var name string
		var price float64
		if err := tx.QueryRowContext(ctx,
			"SELECT nome, preco FROM produtos WHERE id = ?", productID).Scan(&name, &price); err != nil {
			return fmt.Errorf("failed to snapshot product: %w", err)
		}

		id, err := nextID(ctx, tx, "vendas")
		if err != nil {
			return err
		}
		total := price * float64(quantity)
		date := time.Now().UTC()
		_, err = tx.ExecContext(ctx,
			"INSERT INTO vendas (id, produto_id, produto_nome, quantidade, preco_unitario, total, data) VALUES (?, ?, ?, ?, ?, ?, ?)",
			id, productID, name, quantity, price, total, date)
		if err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}
		sale = &Sale{ID: id, ProductID: productID, Name: name, Quantity: quantity, UnitPrice: price, Total: total, Date: date}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return sale, nil
}

// FindAll retrieves all sales, newest first.
func (s *SQLSaleStore) FindAll(ctx context.Context) ([]Sale, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, produto_id, produto_nome, quantidade, preco_unitario, total, data FROM vendas ORDER BY data DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to find all sales: %w", err)
	}
	defer rows.Close()

	sales := make([]Sale, 0)
	for rows.Next() {
		var v Sale
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Quantity, &v.UnitPrice, &v.Total, &v.Date); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, v)
	}
	return sales, rows.Err()
}

// TotalSold sums the sold quantity over all sales.
func (s *SQLSaleStore) TotalSold(ctx context.Context) (int64, error) {
	return sumQuantity(ctx, s.db, "vendas")
}

// SQLUserStore implements UserStore on top of the embedded SQL database.
type SQLUserStore struct {
	db *sql.DB
}

// NewSQLUserStore creates a new user store over an open database handle.
func NewSQLUserStore(db *sql.DB) *SQLUserStore {
	return &SQLUserStore{db: db}
}

const userColumns = "id, nome, email, cpf, senha_hash"

// Create adds a new user to the store.
func (s *SQLUserStore) Create(ctx context.Context, name, email, cpf, passwordHash string) (*User, error) {
	var user *User
	txErr := withTransaction(ctx, s.db, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx, "usuarios")
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO usuarios (id, nome, email, cpf, senha_hash) VALUES (?, ?, ?, ?, ?)",
			id, name, email, cpf, passwordHash)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		user = &User{ID: id, Name: name, Email: email, CPF: cpf, PasswordHash: passwordHash}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return user, nil
}

// FindByEmail returns the user with the given email, or nil if absent.
func (s *SQLUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findUser(ctx, "email", email)
}

// FindByCPF returns the user with the given CPF, or nil if absent.
func (s *SQLUserStore) FindByCPF(ctx context.Context, cpf string) (*User, error) {
	return s.findUser(ctx, "cpf", cpf)
}

func (s *SQLUserStore) findUser(ctx context.Context, column, value string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM usuarios WHERE "+column+" = ?", value)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CPF, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by %s: %w", column, err)
	}
	return &u, nil
}

// sumQuantity sums the quantidade column of the given table, mapping an
// empty table to 0 instead of NULL.
func sumQuantity(ctx context.Context, db *sql.DB, table string) (int64, error) {
	var total sql.NullInt64
	err := db.QueryRowContext(ctx, "SELECT SUM(quantidade) FROM "+table).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum quantities of %s: %w", table, err)
	}
	if !total.Valid {
		return 0, nil
	}
	return total.Int64, nil
}

// withTransaction runs fn inside a transaction, rolling back on error.
func withTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback transaction: %w", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// nextID allocates the next surrogate identifier for a table inside the
// caller's transaction.
func nextID(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) + 1 FROM "+table).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate ID for %s: %w", table, err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var description sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &description, &p.Quantity, &p.Price); err != nil {
		return nil, err
	}
	p.Description = description.String
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]Product, error) {
	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
