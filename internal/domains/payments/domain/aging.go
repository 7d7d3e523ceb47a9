package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgingBucket names an accounts-receivable age band.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "current"
	Bucket31to60  AgingBucket = "31-60"
	Bucket61to90  AgingBucket = "61-90"
	BucketOver90  AgingBucket = "90+"
)

// BucketFor places an outstanding balance into an age band by the
// number of whole days since the invoice was issued.
func BucketFor(issuedAt, asOf time.Time) AgingBucket {
	days := int(asOf.Sub(issuedAt).Hours() / 24)
	switch {
	case days <= 30:
		return BucketCurrent
	case days <= 60:
		return Bucket31to60
	case days <= 90:
		return Bucket61to90
	default:
		return BucketOver90
	}
}

// AgingSummary totals outstanding receivables per age band.
type AgingSummary struct {
	Current decimal.Decimal
	Days60  decimal.Decimal
	Days90  decimal.Decimal
	Over90  decimal.Decimal
	Total   decimal.Decimal
}

// Add accumulates an outstanding amount into the summary.
func (s *AgingSummary) Add(bucket AgingBucket, amount decimal.Decimal) {
	switch bucket {
	case BucketCurrent:
		s.Current = s.Current.Add(amount)
	case Bucket31to60:
		s.Days60 = s.Days60.Add(amount)
	case Bucket61to90:
		s.Days90 = s.Days90.Add(amount)
	default:
		s.Over90 = s.Over90.Add(amount)
	}
	s.Total = s.Total.Add(amount)
}

// StoreAging is the per-store receivables breakdown.
type StoreAging struct {
	StoreID int64
	Summary AgingSummary
}
