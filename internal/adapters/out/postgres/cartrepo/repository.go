// Package cartrepo reads the checkout snapshot of a customer's cart from the
// carts table and clears it once the order is stored.
package cartrepo

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/domain/model/cart"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var _ ports.CartRepository = (*GormCartRepository)(nil)

type CartDTO struct {
	CustomerID string        `gorm:"size:64;primaryKey"`
	TenantID   string        `gorm:"size:64"`
	Items      []CartItemDTO `gorm:"type:jsonb;serializer:json;not null"`
	UpdatedAt  time.Time
}

func (CartDTO) TableName() string {
	return "carts"
}

type CartItemDTO struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// Save upserts the cart snapshot.
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	items := make([]CartItemDTO, 0, len(c.Items()))
	for _, it := range c.Items() {
		items = append(items, CartItemDTO{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.Decimal(),
			Quantity:  it.Quantity,
		})
	}

	dto := CartDTO{CustomerID: c.CustomerID(), TenantID: c.TenantID(), Items: items}
	if err := r.db.WithContext(ctx).Save(&dto).Error; err != nil {
		return storeError(err)
	}
	return nil
}

func (r *GormCartRepository) Get(ctx context.Context, customerID string) (*cart.Cart, error) {
	var dto CartDTO
	if err := r.db.WithContext(ctx).First(&dto, "customer_id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("cart", customerID)
		}
		return nil, storeError(err)
	}

	items := make([]cart.Item, 0, len(dto.Items))
	for _, it := range dto.Items {
		price, err := kernel.NewMoney(it.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, cart.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: price,
			Quantity:  it.Quantity,
		})
	}

	return cart.NewCart(dto.CustomerID, dto.TenantID, items)
}

func (r *GormCartRepository) Clear(ctx context.Context, customerID string) error {
	if err := r.db.WithContext(ctx).Delete(&CartDTO{}, "customer_id = ?", customerID).Error; err != nil {
		return storeError(err)
	}
	return nil
}

func storeError(err error) error {
	return errs.NewDownstreamUnavailableError("cart store", err)
}
