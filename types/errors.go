package types

import (
	"errors"
	"fmt"
)

// BridgeError is the typed error returned and emitted by every bridge component.
type BridgeError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *BridgeError) Error() string {
	return e.Message
}

// Is matches any *BridgeError with the same code, so errors.Is(err, ErrNotConnected) works.
func (e *BridgeError) Is(target error) bool {
	var t *BridgeError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError builds a BridgeError with a formatted message.
func NewError(code, format string, args ...any) *BridgeError {
	return &BridgeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsBridgeError unwraps err into a *BridgeError, wrapping foreign errors under code.
func AsBridgeError(err error, code string) *BridgeError {
	if err == nil {
		return nil
	}
	var be *BridgeError
	if errors.As(err, &be) {
		return be
	}
	return &BridgeError{Code: code, Message: err.Error()}
}

// Bridge error codes
const (
	ErrParse                = "PARSE_ERROR"
	ErrUnknownMessage       = "UNKNOWN_MESSAGE"
	ErrValidation           = "VALIDATION_ERROR"
	ErrProtocol             = "PROTOCOL_ERROR"
	ErrTransportNotReady    = "TRANSPORT_NOT_READY"
	ErrTransportUnavailable = "TRANSPORT_UNAVAILABLE"
	ErrNullData             = "NULL_DATA"
	ErrNotConnectedCode     = "NOT_CONNECTED"
	ErrAlreadyConnectedCode = "ALREADY_CONNECTED"
	ErrTimeout              = "TIMEOUT"
	ErrQueueDiscarded       = "QUEUE_DISCARDED"
	ErrConfigError          = "CONFIG_ERROR"
	ErrNotRunning           = "NOT_RUNNING"
)

// Codes reported by the frontend in errorCode fields.
const (
	FrontendAuthUserRejected       = "AUTH_USER_REJECTED"
	FrontendNetworkError           = "NETWORK_ERROR"
	FrontendInvalidEmailDomain     = "INVALID_EMAIL_DOMAIN"
	FrontendSessionExpired         = "SESSION_EXPIRED"
	FrontendWalletNotConnected     = "WALLET_NOT_CONNECTED"
	FrontendUserRejected           = "USER_REJECTED"
	FrontendInsufficientFunds      = "INSUFFICIENT_FUNDS"
	FrontendInvalidAddress         = "INVALID_ADDRESS"
	FrontendInvalidChain           = "INVALID_CHAIN"
	FrontendTransactionFailed      = "TRANSACTION_FAILED"
	FrontendGasBudgetError         = "GAS_BUDGET_ERROR"
	FrontendSignatureFailed        = "SIGNATURE_FAILED"
	FrontendObjectNotFound         = "OBJECT_NOT_FOUND"
	FrontendInvalidTransactionData = "INVALID_TRANSACTION_DATA"
)

// Sentinels for errors.Is checks.
var (
	ErrNotConnected     = &BridgeError{Code: ErrNotConnectedCode, Message: "wallet not connected"}
	ErrAlreadyConnected = &BridgeError{Code: ErrAlreadyConnectedCode, Message: "wallet already connected"}
)

// IsDisconnectCode reports frontend codes that mean the wallet session is gone.
func IsDisconnectCode(code string) bool {
	switch code {
	case FrontendWalletNotConnected, FrontendSessionExpired:
		return true
	}
	return false
}
