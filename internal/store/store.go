// Package store provides the persistence interfaces and models for the
// inventory database.
package store

import (
	"context"
	"time"
)

// Product is a stocked item as persisted in the produtos table.
type Product struct {
	ID          int64
	Name        string
	Description string
	Quantity    int64
	Price       float64
}

// Sale is an immutable record of a stock-reducing transaction. Name and
// unit price are copies taken at the time of the sale so later product
// edits do not rewrite history.
type Sale struct {
	ID        int64
	ProductID int64
	Name      string
	Quantity  int64
	UnitPrice float64
	Total     float64
	Date      time.Time
}

// User is an account able to sign in to the dashboard.
type User struct {
	ID           int64
	Name         string
	Email        string
	CPF          string
	PasswordHash string
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations.
type ProductStore interface {
	// FindByID retrieves a single product by its identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindAll returns all products ordered by name.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// SearchByName returns the products whose name contains the term,
	// compared case-insensitively.
	SearchByName(ctx context.Context, term string) ([]Product, error)

	// Create adds a new product and returns it with its assigned ID.
	Create(ctx context.Context, name, description string, quantity int64, price float64) (*Product, error)

	// Update overwrites a product's fields by ID. It is a no-op when the
	// ID does not exist.
	Update(ctx context.Context, id int64, name, description string, quantity int64, price float64) error

	// Delete removes a product by ID. Historical sales keep their
	// denormalized copy and are not touched.
	Delete(ctx context.Context, id int64) error

	// TotalInStock sums the quantity of every product; zero when the
	// table is empty.
	TotalInStock(ctx context.Context) (int64, error)
}

// SaleStore is an interface for sale storage operations.
type SaleStore interface {
	// RegisterSale atomically decrements the product's stock and inserts
	// the sale row snapshotting name and unit price. Returns
	// ErrProductNotFound or ErrInsufficientStock without mutating
	// anything when the decrement cannot happen.
	RegisterSale(ctx context.Context, productID, quantity int64) (*Sale, error)

	// FindAll returns all sales, newest first.
	FindAll(ctx context.Context) ([]Sale, error)

	// TotalSold sums the quantity of every sale; zero when the table is
	// empty.
	TotalSold(ctx context.Context) (int64, error)
}

// UserStore is an interface for user storage operations.
type UserStore interface {
	// Create adds a new user and returns it with its assigned ID.
	Create(ctx context.Context, name, email, cpf, passwordHash string) (*User, error)

	// FindByEmail returns the user with the given email, or nil when no
	// such user exists.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByCPF returns the user with the given CPF, or nil when no such
	// user exists.
	FindByCPF(ctx context.Context, cpf string) (*User, error)
}
