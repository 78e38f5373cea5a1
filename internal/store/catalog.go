package store

import (
	"context"
	"strings"

	"github.com/lalith-99/auraloom/internal/models"
)

// ProductPatch carries the fields of a partial product update. Nil fields
// are left unchanged.
type ProductPatch struct {
	Title         *string
	TitleBn       *string
	Description   *string
	DescriptionBn *string
	Price         *float64
	MOQ           *string
	Blend         *string
	Category      *models.Category
	Image         *string
}

func validateProduct(op string, p models.Product) error {
	if strings.TrimSpace(p.Title) == "" {
		return invalidArgument(op, "product title is required")
	}
	if p.Price < 0 {
		return invalidArgument(op, "product price must not be negative")
	}
	if !p.Category.Valid() {
		return invalidArgument(op, "unknown product category %q", p.Category)
	}
	return nil
}

// SetSellers replaces the seller directory.
func (s *Store) SetSellers(ctx context.Context, sellers []models.Seller) error {
	return s.mutate(ctx, "set_sellers", func(tx *txn) error {
		seen := make(map[string]struct{}, len(sellers))
		out := make([]models.Seller, 0, len(sellers))
		for _, sl := range sellers {
			if sl.ID == "" {
				return invalidArgument(tx.op, "seller id is required")
			}
			if _, dup := seen[sl.ID]; dup {
				return conflict(tx.op, "duplicate seller id %q", sl.ID)
			}
			seen[sl.ID] = struct{}{}
			out = append(out, sl.Clone())
		}
		tx.state.Sellers = out
		return nil
	})
}

// SetProducts replaces the catalog. Seller product counters are not
// recomputed; callers loading a catalog supply sellers with matching counts.
func (s *Store) SetProducts(ctx context.Context, products []models.Product) error {
	return s.mutate(ctx, "set_products", func(tx *txn) error {
		seen := make(map[string]struct{}, len(products))
		for _, p := range products {
			if p.ID == "" {
				return invalidArgument(tx.op, "product id is required")
			}
			if _, dup := seen[p.ID]; dup {
				return conflict(tx.op, "duplicate product id %q", p.ID)
			}
			if err := validateProduct(tx.op, p); err != nil {
				return err
			}
			seen[p.ID] = struct{}{}
		}
		tx.state.Products = append([]models.Product{}, products...)
		return nil
	})
}

// AddProduct lists a new product and bumps its seller's product counter.
// An empty ID is filled by the store; the stored product is returned.
// checks see the seller's live counts before the insert.
func (s *Store) AddProduct(ctx context.Context, product models.Product, checks ...QuotaCheck) (models.Product, error) {
	err := s.mutate(ctx, "add_product", func(tx *txn) error {
		if err := validateProduct(tx.op, product); err != nil {
			return err
		}
		si := tx.sellerIndex(product.SellerID)
		if si < 0 {
			return notFound(tx.op, "seller", product.SellerID)
		}
		if err := tx.checkQuota(product.SellerID, checks); err != nil {
			return err
		}
		if product.ID == "" {
			product.ID = "p-" + tx.newID()
		}
		if tx.productIndex(product.ID) >= 0 {
			return conflict(tx.op, "product %q already exists", product.ID)
		}
		tx.state.Products = append(tx.state.Products, product)
		tx.state.Sellers[si].ProductCount++
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// UpdateProduct applies patch to an existing product.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (models.Product, error) {
	var updated models.Product
	err := s.mutate(ctx, "update_product", func(tx *txn) error {
		i := tx.productIndex(id)
		if i < 0 {
			return notFound(tx.op, "product", id)
		}
		p := tx.state.Products[i]
		if patch.Title != nil {
			p.Title = *patch.Title
		}
		if patch.TitleBn != nil {
			p.TitleBn = *patch.TitleBn
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.DescriptionBn != nil {
			p.DescriptionBn = *patch.DescriptionBn
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.MOQ != nil {
			p.MOQ = *patch.MOQ
		}
		if patch.Blend != nil {
			p.Blend = *patch.Blend
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		if patch.Image != nil {
			p.Image = *patch.Image
		}
		if err := validateProduct(tx.op, p); err != nil {
			return err
		}
		tx.state.Products[i] = p
		updated = p
		return nil
	})
	return updated, err
}

// DeleteProduct removes a product, drops it from the cart and decrements
// the owning seller's product counter (floor 0).
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_product", func(tx *txn) error {
		i := tx.productIndex(id)
		if i < 0 {
			return notFound(tx.op, "product", id)
		}
		p := tx.state.Products[i]
		tx.state.Products = append(tx.state.Products[:i], tx.state.Products[i+1:]...)
		if si := tx.sellerIndex(p.SellerID); si >= 0 {
			tx.state.Sellers[si].ProductCount = decrement(tx.state.Sellers[si].ProductCount)
		}
		if ci := tx.cartIndex(id); ci >= 0 {
			tx.state.Cart = append(tx.state.Cart[:ci], tx.state.Cart[ci+1:]...)
		}
		return nil
	})
}
