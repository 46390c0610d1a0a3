package service

import "errors"

var (
	ErrCartEmpty          = errors.New("cart is empty")
	ErrCartNotFound       = errors.New("cart not found")
	ErrDuplicateLine      = errors.New("duplicate product line")
	ErrInvalidQuantity    = errors.New("line quantity must be at least 1")
	ErrNotCartOwner       = errors.New("cart belongs to another shopper")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
