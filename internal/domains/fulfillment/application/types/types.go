package types

// SettleDeliveryInput starts post-delivery settlement for one order.
type SettleDeliveryInput struct {
	OrderID int64
	TripID  int64
	ActorID string
}

// SettlementResult reports what settlement accomplished. Document and
// notification failures degrade to warnings instead of failing the
// settlement.
type SettlementResult struct {
	InvoiceNumber   string
	DocumentRef     string
	AlreadyInvoiced bool
	Warnings        []string
}
