// Package apperr defines the stable error codes surfaced by the fee and
// payment services. Handlers translate these to HTTP responses; raw gorm or
// gateway error text must never leave the service layer.
package apperr

// Error is a service-level error with a stable machine-readable code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

var (
	ErrInvalidAmount      = &Error{Code: "INVALID_AMOUNT", Message: "amount must be positive with at most two decimal places"}
	ErrInvoiceNotFound    = &Error{Code: "INVOICE_NOT_FOUND", Message: "invoice not found"}
	ErrInvoiceNotPayable  = &Error{Code: "INVOICE_NOT_PAYABLE", Message: "invoice is already paid or cancelled"}
	ErrNotCancellable     = &Error{Code: "INVOICE_NOT_CANCELLABLE", Message: "invoice has payments applied or is already closed"}
	ErrGatewayUnavailable = &Error{Code: "GATEWAY_UNAVAILABLE", Message: "payment gateway unavailable"}
	ErrSignatureInvalid   = &Error{Code: "SIGNATURE_INVALID", Message: "callback signature verification failed"}
	ErrOverpayment        = &Error{Code: "OVERPAYMENT", Message: "payment would exceed the invoice amount"}
	ErrInvalidRange       = &Error{Code: "INVALID_RANGE", Message: "range end must be after range start"}
	ErrStoreUnavailable   = &Error{Code: "STORE_UNAVAILABLE", Message: "storage unavailable"}
)
