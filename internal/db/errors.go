package db

import "errors"

var (
	ErrRequestNotFound  = errors.New("repair request not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrAlreadyConverted = errors.New("repair request already converted to an order")
)
