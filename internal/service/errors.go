package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvoiceNotFound is returned when an invoice is not found
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrQuoteNotFound is returned when a quote is not found
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrVisitNotFound is returned when a visit is not found
	ErrVisitNotFound = errors.New("visit not found")

	// ErrProductNotFound is returned when a product is not found
	ErrProductNotFound = errors.New("product not found")

	// ErrCustomerNotFound is returned when a customer is not found
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidStatus is returned when a document status value is not valid
	// for its document type
	ErrInvalidStatus = errors.New("invalid status")

	// ErrProductInUse is returned when deleting a product that documents
	// still reference
	ErrProductInUse = errors.New("product is referenced by documents")

	// ErrCustomerInUse is returned when deleting a customer that documents
	// still reference
	ErrCustomerInUse = errors.New("customer is referenced by documents")

	// ErrStockReconciliation is returned when releasing reservations fails
	// during document deletion; the deletion is aborted
	ErrStockReconciliation = errors.New("stock reconciliation failed")

	// ErrStatusNotPinned is returned when unpinning a product whose status
	// is not pinned
	ErrStatusNotPinned = errors.New("stock status is not pinned")
)
