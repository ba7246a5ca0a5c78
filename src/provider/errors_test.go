package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	base := errors.New("boom")

	err := classify("fetch_accounts", "ITEM_ERROR", "ITEM_LOGIN_REQUIRED", base)
	require.True(t, IsTerminal(err))
	require.False(t, IsTransient(err))

	err = classify("fetch_transactions", "RATE_LIMIT_EXCEEDED", "TRANSACTIONS_LIMIT", base)
	require.True(t, IsTransient(err))

	err = classify("fetch_transactions", "INVALID_REQUEST", "MISSING_FIELDS", base)
	require.True(t, IsTerminal(err))

	// Unknown error shapes default to transient so a provider hiccup never
	// permanently errors an item.
	err = classify("fetch_holdings", "SOMETHING_NEW", "", base)
	require.True(t, IsTransient(err))
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := newError(KindTerminal, "fetch_accounts", base)

	require.ErrorIs(t, err, base)
	wrapped := fmt.Errorf("sync item 3: %w", err)
	require.True(t, IsTerminal(wrapped))
}

func TestPredicatesOnPlainErrors(t *testing.T) {
	plain := errors.New("boom")
	require.False(t, IsTransient(plain))
	require.False(t, IsTerminal(plain))
	require.False(t, IsValidation(plain))
}

func TestIsNetworkTimeout(t *testing.T) {
	require.True(t, isNetworkTimeout(context.DeadlineExceeded))
	require.False(t, isNetworkTimeout(errors.New("boom")))
}
