package driverrepo

import (
	"context"
	"errors"

	"orderflow/internal/core/domain/model/driver"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
)

var _ ports.DriverRepository = (*GormDriverRepository)(nil)

// GormDriverRepository implements ports.DriverRepository using GORM with
// optimistic locking on the version column.
type GormDriverRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id string, aggregate any)
}

func NewGormDriverRepository(db *gorm.DB, tracker aggregateTracker) *GormDriverRepository {
	return &GormDriverRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormDriverRepository) Add(ctx context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	// The stored version equals the aggregate's, so the insert is not tracked.
	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return storeError(err)
	}
	return nil
}

// Update writes the driver and bumps its version if nobody else did first.
func (r *GormDriverRepository) Update(ctx context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	expected := dto.Version
	dto.Version = expected + 1

	result := r.db.WithContext(ctx).
		Model(&DriverDTO{}).
		Where("id = ? AND version = ?", dto.ID, expected).
		Select("*").
		Omit("id").
		Updates(&dto)
	if result.Error != nil {
		return storeError(result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&DriverDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return storeError(err)
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("driver", dto.ID)
		}
		return errs.NewConflictError("driver", dto.ID)
	}

	r.tracker.TrackAggregate(dto.ID, aggregate)
	return nil
}

func (r *GormDriverRepository) Get(ctx context.Context, id string) (*driver.Driver, error) {
	var dto DriverDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("driver", id)
		}
		return nil, storeError(err)
	}

	return toDomain(dto)
}

// ListAvailableByTenant scans in id order, which makes driver selection
// deterministic.
func (r *GormDriverRepository) ListAvailableByTenant(ctx context.Context, tenantID string) ([]*driver.Driver, error) {
	var dtos []DriverDTO
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND available = ?", tenantID, true).
		Order("id").
		Find(&dtos).Error; err != nil {
		return nil, storeError(err)
	}

	drivers := make([]*driver.Driver, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, nil
}

// storeError reports a database failure as the store being unavailable.
func storeError(err error) error {
	return errs.NewDownstreamUnavailableError("driver store", err)
}
