package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind partitions provider failures by how the sync orchestrator must
// react to them.
type ErrorKind string

const (
	// KindTransient covers timeouts and rate limits. Retried with backoff;
	// the item stays active.
	KindTransient ErrorKind = "transient"
	// KindTerminal covers revoked or invalid credentials and bad requests.
	// The item is marked errored and never auto-retried.
	KindTerminal ErrorKind = "terminal"
	// KindValidation covers malformed provider records. The record is
	// skipped and logged; the item sync continues.
	KindValidation ErrorKind = "validation"
)

// Error wraps a provider failure with its kind.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func kindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

func IsTransient(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTransient
}

func IsTerminal(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTerminal
}

func IsValidation(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindValidation
}

// plaid error types/codes that indicate an unusable credential or request.
var terminalErrorCodes = map[string]struct{}{
	"ITEM_LOGIN_REQUIRED":    {},
	"INVALID_ACCESS_TOKEN":   {},
	"ITEM_NOT_FOUND":         {},
	"ITEM_NO_ERROR":          {},
	"INVALID_API_KEYS":       {},
	"UNAUTHORIZED":           {},
	"ACCESS_NOT_GRANTED":     {},
	"PRODUCT_NOT_READY":      {},
	"PRODUCTS_NOT_SUPPORTED": {},
}

func classify(op string, errType, errCode string, err error) *Error {
	if _, ok := terminalErrorCodes[errCode]; ok {
		return newError(KindTerminal, op, err)
	}
	switch errType {
	case "RATE_LIMIT_EXCEEDED", "API_ERROR":
		return newError(KindTransient, op, err)
	case "INVALID_INPUT", "INVALID_REQUEST", "ITEM_ERROR", "OAUTH_ERROR":
		return newError(KindTerminal, op, err)
	}
	return newError(KindTransient, op, err)
}

func isNetworkTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
