package gateways

import (
	"context"
	"errors"
	"fmt"

	invports "github.com/Apurer/go-distribution-api/internal/domains/inventory/ports"
	ordersdomain "github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
	payports "github.com/Apurer/go-distribution-api/internal/domains/payments/ports"
	refdomain "github.com/Apurer/go-distribution-api/internal/domains/refdata/domain"
	refports "github.com/Apurer/go-distribution-api/internal/domains/refdata/ports"
	tripsdomain "github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
	tripsports "github.com/Apurer/go-distribution-api/internal/domains/trips/ports"
)

// StockReserver adapts the inventory service to the reservation port
// the orders context consumes when packing and releasing stock.
type StockReserver struct {
	inventory invports.Service
}

func NewStockReserver(inventory invports.Service) *StockReserver {
	return &StockReserver{inventory: inventory}
}

func (a *StockReserver) Reserve(ctx context.Context, lines []ordersports.StockLine, reference, actorID string) error {
	return a.inventory.ReserveBatch(ctx, toStockLines(lines), reference, actorID)
}

func (a *StockReserver) Release(ctx context.Context, lines []ordersports.StockLine, reference, actorID string) error {
	return a.inventory.ReleaseBatch(ctx, toStockLines(lines), reference, actorID)
}

func toStockLines(lines []ordersports.StockLine) []invports.StockLine {
	out := make([]invports.StockLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, invports.StockLine{
			ProductID:   line.ProductID,
			WarehouseID: line.WarehouseID,
			Quantity:    line.Quantity,
		})
	}
	return out
}

// OrderGateway adapts the orders service and reference data to the
// snapshot-and-advance port the trips context plans against.
type OrderGateway struct {
	orders  ordersports.Service
	catalog refports.Lookup
}

func NewOrderGateway(orders ordersports.Service, catalog refports.Lookup) *OrderGateway {
	return &OrderGateway{orders: orders, catalog: catalog}
}

func (a *OrderGateway) Snapshot(ctx context.Context, orderID int64) (*tripsports.OrderSnapshot, error) {
	order, err := a.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	snapshot := &tripsports.OrderSnapshot{
		ID:          order.ID,
		StoreID:     order.StoreID,
		WarehouseID: order.WarehouseID,
		Ready:       order.Status == ordersdomain.StatusPacked,
	}
	if store, err := a.catalog.Store(ctx, order.StoreID); err == nil {
		snapshot.StoreLocation = toPoint(store.Location)
	} else if !errors.Is(err, refports.ErrNotFound) {
		return nil, fmt.Errorf("load store %d: %w", order.StoreID, err)
	}
	return snapshot, nil
}

func (a *OrderGateway) Warehouse(ctx context.Context, warehouseID int64) (*tripsdomain.Point, error) {
	warehouse, err := a.catalog.Warehouse(ctx, warehouseID)
	if err != nil {
		if errors.Is(err, refports.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load warehouse %d: %w", warehouseID, err)
	}
	return toPoint(warehouse.Location), nil
}

func (a *OrderGateway) Transition(ctx context.Context, orderID int64, target tripsdomain.StopStatus, actorID string) error {
	status, ok := stopToOrderStatus[target]
	if !ok {
		return fmt.Errorf("no order status for stop status %q", target)
	}
	_, err := a.orders.Transition(ctx, orderID, status, actorID)
	return err
}

var stopToOrderStatus = map[tripsdomain.StopStatus]ordersdomain.Status{
	tripsdomain.StopPacked:     ordersdomain.StatusPacked,
	tripsdomain.StopDispatched: ordersdomain.StatusDispatched,
	tripsdomain.StopInTransit:  ordersdomain.StatusInTransit,
	tripsdomain.StopAtStore:    ordersdomain.StatusAtStore,
	tripsdomain.StopDelivered:  ordersdomain.StatusDelivered,
	tripsdomain.StopReturned:   ordersdomain.StatusReturned,
}

func toPoint(coord *refdomain.Coordinate) *tripsdomain.Point {
	if coord == nil {
		return nil
	}
	return &tripsdomain.Point{Lat: coord.Latitude, Lng: coord.Longitude}
}

// OrderReader adapts the orders service to the read-only view the
// payments context needs for invoicing and receivables aging.
type OrderReader struct {
	orders ordersports.Service
}

func NewOrderReader(orders ordersports.Service) *OrderReader {
	return &OrderReader{orders: orders}
}

func (a *OrderReader) Order(ctx context.Context, orderID int64) (*payports.OrderInfo, error) {
	order, err := a.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return a.toOrderInfo(ctx, order)
}

func (a *OrderReader) toOrderInfo(ctx context.Context, order *ordersdomain.Order) (*payports.OrderInfo, error) {
	info := &payports.OrderInfo{
		ID:        order.ID,
		StoreID:   order.StoreID,
		Reference: order.Reference,
		Subtotal:  order.Subtotal,
		Tax:       order.Tax,
		Total:     order.Total,
		IsPaid:    order.IsPaid,
		Delivered: order.Status.AtOrPast(ordersdomain.StatusDelivered),
	}
	if !info.Delivered {
		return info, nil
	}
	trail, err := a.orders.AuditTrail(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load audit trail for order %d: %w", order.ID, err)
	}
	for _, entry := range trail {
		if entry.ToStatus == ordersdomain.StatusDelivered {
			at := entry.At
			info.DeliveredAt = &at
		}
	}
	return info, nil
}

// OrderPaymentMarker adapts the orders service to the paid-flag port
// the payments context drives.
type OrderPaymentMarker struct {
	orders ordersports.Service
}

func NewOrderPaymentMarker(orders ordersports.Service) *OrderPaymentMarker {
	return &OrderPaymentMarker{orders: orders}
}

func (a *OrderPaymentMarker) SetPaid(ctx context.Context, orderID int64, paid bool, actorID string) error {
	return a.orders.SetPaid(ctx, orderID, paid, actorID)
}

var (
	_ ordersports.StockReserver   = (*StockReserver)(nil)
	_ tripsports.OrderGateway     = (*OrderGateway)(nil)
	_ payports.OrderReader        = (*OrderReader)(nil)
	_ payports.OrderPaymentMarker = (*OrderPaymentMarker)(nil)
)
