package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	payment, err := NewPayment(4, decimal.NewFromInt(250), MethodGCash, "GC-123", "", "collector", now)
	require.NoError(t, err)
	require.EqualValues(t, 4, payment.OrderID)
	require.Equal(t, MethodGCash, payment.Method)
	require.Equal(t, "collector", payment.ReceivedBy)
	require.Equal(t, now, payment.ReceivedAt)
	require.False(t, payment.Verified)
}

func TestNewPayment_Validation(t *testing.T) {
	_, err := NewPayment(4, decimal.Zero, MethodCash, "", "", "collector", time.Now())
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewPayment(4, decimal.NewFromInt(-10), MethodCash, "", "", "collector", time.Now())
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewPayment(4, decimal.NewFromInt(10), Method("barter"), "", "", "collector", time.Now())
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestVerify_Idempotent(t *testing.T) {
	payment, err := NewPayment(4, decimal.NewFromInt(10), MethodCheck, "CHK-9", "", "collector", time.Now())
	require.NoError(t, err)

	now := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, payment.Verify("auditor", now))
	require.True(t, payment.Verified)
	require.Equal(t, "auditor", payment.VerifiedBy)
	require.Equal(t, now, *payment.VerifiedAt)

	require.ErrorIs(t, payment.Verify("auditor", now), ErrAlreadyVerified)
}
