// Package service provides the implementation of the inventory business logic.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "estoque/internal/errors"
	"estoque/internal/store"
)

// InventoryService defines the methods for managing products and sales.
// It abstracts the underlying business logic and data access.
type InventoryService interface {
	// AddProduct adds a new product. Unless force is set, a name that
	// collides case-insensitively (after trimming whitespace) with an
	// existing product is rejected with ErrDuplicateName.
	AddProduct(ctx context.Context, product ProductCreateDto, force bool) (*ProductDto, error)

	// EditProduct overwrites a product's fields by ID. It performs no
	// duplicate or existence check; a missing ID is a no-op.
	EditProduct(ctx context.Context, id int64, product ProductCreateDto) error

	// RemoveProduct deletes a product by ID. Historical sales keep their
	// denormalized name and price.
	RemoveProduct(ctx context.Context, id int64) error

	// ListProducts returns all products ordered by name.
	ListProducts(ctx context.Context) ([]ProductDto, error)

	// FindProduct retrieves a single product by its identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindProduct(ctx context.Context, id int64) (*ProductDto, error)

	// SearchProducts returns the products whose name contains the term,
	// compared case-insensitively. An empty term yields an empty slice.
	SearchProducts(ctx context.Context, term string) ([]ProductDto, error)

	// RegisterSale atomically decrements stock and records the sale.
	// Returns ErrProductNotFound or ErrInsufficientStock on failure.
	RegisterSale(ctx context.Context, sale SaleCreateDto) (*SaleDto, error)

	// ListSales returns all sales, newest first.
	ListSales(ctx context.Context) ([]SaleDto, error)

	// TotalSold sums the quantities of all sales; 0 when there are none.
	TotalSold(ctx context.Context) (int64, error)

	// TotalInStock sums the quantities of all products; 0 when there are none.
	TotalInStock(ctx context.Context) (int64, error)
}

// Service implements InventoryService and provides methods to manage
// products and sales.
type Service struct {
	products store.ProductStore
	sales    store.SaleStore
}

// NewService creates a new instance of InventoryService with the
// provided stores.
func NewService(products store.ProductStore, sales store.SaleStore) *Service {
	return &Service{
		products: products,
		sales:    sales,
	}
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID         int64   `json:"id"`
	Nome       string  `json:"nome"`
	Descricao  string  `json:"descricao"`
	Quantidade int64   `json:"quantidade"`
	Preco      float64 `json:"preco"`
}

// ProductCreateDto represents the data transfer object for creating or
// editing a product.
type ProductCreateDto struct {
	Nome       string  `json:"nome"       validate:"required,max=100"`
	Descricao  string  `json:"descricao"  validate:"max=500"`
	Quantidade int64   `json:"quantidade" validate:"gte=0"`
	Preco      float64 `json:"preco"      validate:"gte=0"`
}

// SaleCreateDto represents the data transfer object for registering a sale.
type SaleCreateDto struct {
	ProdutoID  int64 `json:"produto_id" validate:"required,gt=0"`
	Quantidade int64 `json:"quantidade" validate:"required,gt=0"`
}

// SaleDto represents the data transfer object for a recorded sale.
type SaleDto struct {
	ID            int64   `json:"id"`
	ProdutoID     int64   `json:"produto_id"`
	ProdutoNome   string  `json:"produto_nome"`
	Quantidade    int64   `json:"quantidade"`
	PrecoUnitario float64 `json:"preco_unitario"`
	Total         float64 `json:"total"`
	Data          string  `json:"data"`
}

// AddProduct adds a new product, enforcing the duplicate-name gate.
func (s *Service) AddProduct(ctx context.Context, product ProductCreateDto, force bool) (*ProductDto, error) {
	if !force {
		duplicate, err := s.hasDuplicateName(ctx, product.Nome)
		if err != nil {
			return nil, err
		}
		if duplicate {
			return nil, domain.ErrDuplicateName
		}
	}

	created, err := s.products.Create(ctx, product.Nome, product.Descricao, product.Quantidade, product.Preco)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return toProductDto(created), nil
}

// EditProduct overwrites a product's fields by ID.
func (s *Service) EditProduct(ctx context.Context, id int64, product ProductCreateDto) error {
	if err := s.products.Update(ctx, id, product.Nome, product.Descricao, product.Quantidade, product.Preco); err != nil {
		return fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}
	return nil
}

// RemoveProduct deletes a product by ID.
func (s *Service) RemoveProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}
	return nil
}

// ListProducts returns all products ordered by name.
func (s *Service) ListProducts(ctx context.Context) ([]ProductDto, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toProductDtos(products), nil
}

// FindProduct retrieves a product by its ID.
func (s *Service) FindProduct(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toProductDto(product), nil
}

// SearchProducts returns the products matching the term.
func (s *Service) SearchProducts(ctx context.Context, term string) ([]ProductDto, error) {
	if strings.TrimSpace(term) == "" {
		return []ProductDto{}, nil
	}
	products, err := s.products.SearchByName(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return toProductDtos(products), nil
}

// RegisterSale records a sale through the store's atomic decrement.
func (s *Service) RegisterSale(ctx context.Context, sale SaleCreateDto) (*SaleDto, error) {
	registered, err := s.sales.RegisterSale(ctx, sale.ProdutoID, sale.Quantidade)
	if err != nil {
		return nil, fmt.Errorf("failed to register sale for product %d: %w", sale.ProdutoID, err)
	}
	return toSaleDto(registered), nil
}

// ListSales returns all sales, newest first.
func (s *Service) ListSales(ctx context.Context) ([]SaleDto, error) {
	sales, err := s.sales.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sales: %w", err)
	}
	saleDtos := make([]SaleDto, len(sales))
	for i, v := range sales {
		saleDtos[i] = *toSaleDto(&v)
	}
	return saleDtos, nil
}

// TotalSold sums the quantities of all sales.
func (s *Service) TotalSold(ctx context.Context) (int64, error) {
	total, err := s.sales.TotalSold(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to compute total sold: %w", err)
	}
	return total, nil
}

// TotalInStock sums the quantities of all products.
func (s *Service) TotalInStock(ctx context.Context) (int64, error) {
	total, err := s.products.TotalInStock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to compute total in stock: %w", err)
	}
	return total, nil
}

// hasDuplicateName reports whether a product already exists whose name
// equals the candidate after trimming and case folding. The substring
// search narrows the candidates; the exact comparison happens here.
func (s *Service) hasDuplicateName(ctx context.Context, name string) (bool, error) {
	trimmed := strings.TrimSpace(name)
	candidates, err := s.products.SearchByName(ctx, trimmed)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate name: %w", err)
	}
	for _, p := range candidates {
		if strings.EqualFold(strings.TrimSpace(p.Name), trimmed) {
			return true, nil
		}
	}
	return false, nil
}

// toProductDto converts a store.Product to a ProductDto.
func toProductDto(p *store.Product) *ProductDto {
	return &ProductDto{
		ID:         p.ID,
		Nome:       p.Name,
		Descricao:  p.Description,
		Quantidade: p.Quantity,
		Preco:      p.Price,
	}
}

func toProductDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i, p := range products {
		dtos[i] = *toProductDto(&p)
	}
	return dtos
}

// toSaleDto converts a store.Sale to a SaleDto.
func toSaleDto(v *store.Sale) *SaleDto {
	return &SaleDto{
		ID:            v.ID,
		ProdutoID:     v.ProductID,
		ProdutoNome:   v.Name,
		Quantidade:    v.Quantity,
		PrecoUnitario: v.UnitPrice,
		Total:         v.Total,
		Data:          v.Date.Format(time.RFC3339),
	}
}
