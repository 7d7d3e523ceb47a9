package domain

import "github.com/shopspring/decimal"

// Coordinate is an optional geographic position used by the route heuristic.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Store is a retail outlet that places orders. CreditLimit of zero means
// the store has no credit ceiling.
type Store struct {
	ID          int64
	Name        string
	City        string
	Barangay    string
	CreditLimit decimal.Decimal
	Location    *Coordinate
	IsActive    bool
}

// Product is a sellable good with its current catalog price.
type Product struct {
	ID        int64
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	IsActive  bool
}

// Warehouse is a stock-holding location and the origin of dispatch trips.
type Warehouse struct {
	ID       int64
	Name     string
	Location *Coordinate
	IsActive bool
}
