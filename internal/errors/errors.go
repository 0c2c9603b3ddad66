// Package errors provides the domain error values shared across layers.
package errors

import "errors"

var (
	// ErrProductNotFound indicates the referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock indicates a sale asked for more units than are in stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateName indicates another product already carries the same
	// name (compared case-insensitively after trimming).
	ErrDuplicateName = errors.New("duplicate product name")

	// ErrEmailTaken and ErrCPFTaken are reported separately so the
	// registration form can point at the offending field.
	ErrEmailTaken = errors.New("email already registered")
	ErrCPFTaken   = errors.New("cpf already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
