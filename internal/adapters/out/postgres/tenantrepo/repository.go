// Package tenantrepo reads tenant sites from the tenants table. Tenants are
// managed elsewhere; this service only needs their location.
package tenantrepo

import (
	"context"
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/tenant"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
)

var _ ports.TenantRepository = (*GormTenantRepository)(nil)

type TenantDTO struct {
	ID   string  `gorm:"size:64;primaryKey"`
	Name string  `gorm:"size:128;not null"`
	Lat  float64 `gorm:"not null"`
	Lng  float64 `gorm:"not null"`
}

func (TenantDTO) TableName() string {
	return "tenants"
}

type GormTenantRepository struct {
	db *gorm.DB
}

func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// Save upserts a tenant site. Used for seeding.
func (r *GormTenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	dto := TenantDTO{
		ID:   t.ID(),
		Name: t.Name(),
		Lat:  t.Location().Lat(),
		Lng:  t.Location().Lng(),
	}
	if err := r.db.WithContext(ctx).Save(&dto).Error; err != nil {
		return storeError(err)
	}
	return nil
}

func (r *GormTenantRepository) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	var dto TenantDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("tenant", id)
		}
		return nil, storeError(err)
	}

	loc, err := kernel.NewGeoPoint(dto.Lat, dto.Lng)
	if err != nil {
		return nil, err
	}
	return tenant.NewTenant(dto.ID, dto.Name, loc)
}

func storeError(err error) error {
	return errs.NewDownstreamUnavailableError("tenant store", err)
}
