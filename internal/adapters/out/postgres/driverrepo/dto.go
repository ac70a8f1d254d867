// Package driverrepo maps driver aggregates onto the drivers table.
package driverrepo

import (
	"orderflow/internal/core/domain/model/driver"
	"orderflow/internal/core/domain/model/kernel"
)

// DriverDTO is the row of the drivers table. Version guards concurrent
// assignment of the same driver.
type DriverDTO struct {
	ID               string  `gorm:"size:64;primaryKey"`
	TenantID         string  `gorm:"size:64;not null;index:idx_drivers_tenant_available"`
	Name             string  `gorm:"size:128;not null"`
	Lat              float64 `gorm:"not null"`
	Lng              float64 `gorm:"not null"`
	Available        bool    `gorm:"not null;index:idx_drivers_tenant_available"`
	ActiveDeliveries int     `gorm:"not null;default:0"`
	Version          int     `gorm:"not null;default:0"`
}

func (DriverDTO) TableName() string {
	return "drivers"
}

func fromDomain(d *driver.Driver) DriverDTO {
	return DriverDTO{
		ID:               d.ID(),
		TenantID:         d.TenantID(),
		Name:             d.Name(),
		Lat:              d.Location().Lat(),
		Lng:              d.Location().Lng(),
		Available:        d.IsAvailable(),
		ActiveDeliveries: d.ActiveDeliveries(),
		Version:          d.Version(),
	}
}

func toDomain(dto DriverDTO) (*driver.Driver, error) {
	loc, err := kernel.NewGeoPoint(dto.Lat, dto.Lng)
	if err != nil {
		return nil, err
	}
	return driver.RestoreDriver(dto.ID, dto.TenantID, dto.Name, loc, dto.Available, dto.ActiveDeliveries, dto.Version)
}
