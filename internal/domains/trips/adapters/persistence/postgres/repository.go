package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
	"github.com/Apurer/go-distribution-api/internal/domains/trips/ports"
	"github.com/Apurer/go-distribution-api/internal/shared/audit"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists trips and their assignments in PostgreSQL using
// GORM. Trip and assignment writes share one transaction, and the trip
// row is guarded by the version column.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type tripRecord struct {
	ID           int64      `gorm:"primaryKey;column:id"`
	Reference    string     `gorm:"column:reference;uniqueIndex"`
	WarehouseID  int64      `gorm:"column:warehouse_id;index"`
	DriverID     string     `gorm:"column:driver_id;index"`
	VehicleID    string     `gorm:"column:vehicle_id"`
	Status       string     `gorm:"column:status;type:varchar(32);index"`
	DispatchedAt *time.Time `gorm:"column:dispatched_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	Version      int64      `gorm:"column:version"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	CreatedByID  string     `gorm:"column:created_by_id"`
	UpdatedByID  string     `gorm:"column:updated_by_id"`
}

func (tripRecord) TableName() string { return "trips" }

type tripAssignmentRecord struct {
	ID                int64          `gorm:"primaryKey;column:id"`
	TripID            int64          `gorm:"column:trip_id;index"`
	OrderID           int64          `gorm:"column:order_id;index"`
	Sequence          int            `gorm:"column:sequence"`
	Status            string         `gorm:"column:status;type:varchar(32)"`
	Notes             string         `gorm:"column:notes"`
	DeliveredAt       *time.Time     `gorm:"column:delivered_at"`
	DeliveryPhotoRefs pq.StringArray `gorm:"column:delivery_photo_refs;type:text[]"`
}

func (tripAssignmentRecord) TableName() string { return "trip_assignments" }

func (r *Repository) Create(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, errors.New("trip is nil")
	}
	record := toTripRecord(trip)
	if record.Version == 0 {
		record.Version = 1
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The one-active-trip-per-order invariant is re-checked inside
		// the insert transaction; the service's pre-check alone is a
		// separate critical section and two creates could both pass it.
		for i := range trip.Assignments {
			taken, err := activeTripHolds(tx, trip.Assignments[i].OrderID)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: order %d is on an active trip", ports.ErrDuplicateRecord, trip.Assignments[i].OrderID)
			}
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return replaceAssignments(tx, record.ID, trip.Assignments)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) Save(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, errors.New("trip is nil")
	}
	record := toTripRecord(trip)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&tripRecord{}).
			Where("id = ? AND version = ?", record.ID, record.Version).
			Updates(map[string]any{
				"driver_id":     record.DriverID,
				"vehicle_id":    record.VehicleID,
				"status":        record.Status,
				"dispatched_at": record.DispatchedAt,
				"completed_at":  record.CompletedAt,
				"version":       record.Version + 1,
				"updated_at":    record.UpdatedAt,
				"updated_by_id": record.UpdatedByID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&tripRecord{}).Where("id = ?", record.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ports.ErrNotFound
			}
			return ports.ErrConcurrentModification
		}
		return replaceAssignments(tx, record.ID, trip.Assignments)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func activeTripHolds(tx *gorm.DB, orderID int64) (bool, error) {
	var count int64
	err := tx.Model(&tripAssignmentRecord{}).
		Joins("JOIN trips ON trips.id = trip_assignments.trip_id").
		Where("trip_assignments.order_id = ? AND trips.status IN ?", orderID,
			[]string{string(domain.StatusCreated), string(domain.StatusDispatched)}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func replaceAssignments(tx *gorm.DB, tripID int64, assignments []domain.Assignment) error {
	if err := tx.Where("trip_id = ?", tripID).Delete(&tripAssignmentRecord{}).Error; err != nil {
		return err
	}
	if len(assignments) == 0 {
		return nil
	}
	records := make([]tripAssignmentRecord, 0, len(assignments))
	for i := range assignments {
		record := toAssignmentRecord(&assignments[i])
		record.ID = 0
		record.TripID = tripID
		records = append(records, record)
	}
	return tx.Create(&records).Error
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record tripRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	trip := record.toDomain()
	if err := r.loadAssignments(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Trip, error) {
	return r.list(ctx, nil)
}

func (r *Repository) ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Trip, error) {
	return r.list(ctx, statuses)
}

func (r *Repository) list(ctx context.Context, statuses []domain.Status) ([]*domain.Trip, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Order("id asc")
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, string(status))
		}
		query = query.Where("status IN ?", values)
	}
	var records []tripRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Trip, 0, len(records))
	for i := range records {
		trip := records[i].toDomain()
		if err := r.loadAssignments(ctx, trip); err != nil {
			return nil, err
		}
		out = append(out, trip)
	}
	return out, nil
}

func (r *Repository) ActiveTripForOrder(ctx context.Context, orderID int64) (*domain.Trip, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var assignment tripAssignmentRecord
	err := r.db.WithContext(ctx).
		Joins("JOIN trips ON trips.id = trip_assignments.trip_id").
		Where("trip_assignments.order_id = ? AND trips.status IN ?", orderID,
			[]string{string(domain.StatusCreated), string(domain.StatusDispatched)}).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, assignment.TripID)
}

func (r *Repository) loadAssignments(ctx context.Context, trip *domain.Trip) error {
	var records []tripAssignmentRecord
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", trip.ID).
		Order("sequence asc").
		Find(&records).Error
	if err != nil {
		return err
	}
	trip.Assignments = make([]domain.Assignment, 0, len(records))
	for i := range records {
		trip.Assignments = append(trip.Assignments, records[i].toDomain())
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres repository is not initialised")
	}
	return nil
}

func toTripRecord(t *domain.Trip) tripRecord {
	return tripRecord{
		ID:           t.ID,
		Reference:    t.Reference,
		WarehouseID:  t.WarehouseID,
		DriverID:     t.DriverID,
		VehicleID:    t.VehicleID,
		Status:       string(t.Status),
		DispatchedAt: t.DispatchedAt,
		CompletedAt:  t.CompletedAt,
		Version:      t.Meta.Version,
		CreatedAt:    t.Meta.CreatedAt,
		UpdatedAt:    t.Meta.UpdatedAt,
		CreatedByID:  t.Meta.CreatedByID,
		UpdatedByID:  t.Meta.UpdatedByID,
	}
}

func (r tripRecord) toDomain() *domain.Trip {
	return &domain.Trip{
		ID:           r.ID,
		Reference:    r.Reference,
		WarehouseID:  r.WarehouseID,
		DriverID:     r.DriverID,
		VehicleID:    r.VehicleID,
		Status:       domain.Status(r.Status),
		DispatchedAt: r.DispatchedAt,
		CompletedAt:  r.CompletedAt,
		Meta: audit.Metadata{
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			CreatedByID: r.CreatedByID,
			UpdatedByID: r.UpdatedByID,
			Version:     r.Version,
		},
	}
}

func toAssignmentRecord(a *domain.Assignment) tripAssignmentRecord {
	return tripAssignmentRecord{
		ID:                a.ID,
		TripID:            a.TripID,
		OrderID:           a.OrderID,
		Sequence:          a.Sequence,
		Status:            string(a.Status),
		Notes:             a.Notes,
		DeliveredAt:       a.DeliveredAt,
		DeliveryPhotoRefs: pq.StringArray(a.DeliveryPhotoRefs),
	}
}

func (r tripAssignmentRecord) toDomain() domain.Assignment {
	return domain.Assignment{
		ID:                r.ID,
		TripID:            r.TripID,
		OrderID:           r.OrderID,
		Sequence:          r.Sequence,
		Status:            domain.StopStatus(r.Status),
		Notes:             r.Notes,
		DeliveredAt:       r.DeliveredAt,
		DeliveryPhotoRefs: []string(r.DeliveryPhotoRefs),
	}
}
