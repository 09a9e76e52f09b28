package errors

import (
	"errors"
)

var (
	ErrUnidentifiedUser    = errors.New("unidentified user")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrEmptyCart           = errors.New("cart has no items")
	ErrCartNotFound        = errors.New("cart not found")
	ErrRejected            = errors.New("request rejected")
	ErrUnexpectedStatus    = errors.New("unexpected status code")
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidProduct      = errors.New("invalid product")
	ErrForbidden           = errors.New("insufficient permission")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrOutOfStock          = errors.New("insufficient stock")
	ErrUnknownStore        = errors.New("unknown store")
	ErrProductAlreadyExist = errors.New("product already exist")
	ErrUserNotFound        = errors.New("user not found")
)
