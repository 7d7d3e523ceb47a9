package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBucketFor(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		days int
		want AgingBucket
	}{
		{0, BucketCurrent},
		{15, BucketCurrent},
		{30, BucketCurrent},
		{31, Bucket31to60},
		{45, Bucket31to60},
		{60, Bucket31to60},
		{61, Bucket61to90},
		{90, Bucket61to90},
		{91, BucketOver90},
		{365, BucketOver90},
	}
	for _, tc := range cases {
		issuedAt := now.AddDate(0, 0, -tc.days)
		require.Equal(t, tc.want, BucketFor(issuedAt, now), "days=%d", tc.days)
	}
}

func TestAgingSummary_Add(t *testing.T) {
	var summary AgingSummary
	summary.Add(BucketCurrent, decimal.NewFromInt(100))
	summary.Add(Bucket31to60, decimal.NewFromInt(50))
	summary.Add(Bucket61to90, decimal.NewFromInt(25))
	summary.Add(BucketOver90, decimal.NewFromInt(10))
	summary.Add(BucketCurrent, decimal.NewFromInt(100))

	require.True(t, summary.Current.Equal(decimal.NewFromInt(200)))
	require.True(t, summary.Days60.Equal(decimal.NewFromInt(50)))
	require.True(t, summary.Days90.Equal(decimal.NewFromInt(25)))
	require.True(t, summary.Over90.Equal(decimal.NewFromInt(10)))
	require.True(t, summary.Total.Equal(decimal.NewFromInt(285)))
}
