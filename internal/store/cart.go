package store

import (
	"context"
	"fmt"

	"github.com/lalith-99/auraloom/internal/models"
)

// AddToCart adds quantity units of a product. A product already in the cart
// has its quantity increased instead of getting a second line. Each add
// records an order notification.
func (s *Store) AddToCart(ctx context.Context, productID string, quantity int) error {
	return s.mutate(ctx, "add_to_cart", func(tx *txn) error {
		if quantity < 1 {
			return invalidArgument(tx.op, "quantity must be at least 1, got %d", quantity)
		}
		pi := tx.productIndex(productID)
		if pi < 0 {
			return notFound(tx.op, "product", productID)
		}

		if ci := tx.cartIndex(productID); ci >= 0 {
			tx.state.Cart[ci].Quantity += quantity
		} else {
			tx.state.Cart = append(tx.state.Cart, models.CartItem{ProductID: productID, Quantity: quantity})
		}
		tx.notify(models.NotificationOrder,
			fmt.Sprintf("Added %s to cart", tx.state.Products[pi].Title))
		return nil
	})
}

// RemoveFromCart drops the product's line. No-op when it is not in the cart.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	return s.mutate(ctx, "remove_from_cart", func(tx *txn) error {
		ci := tx.cartIndex(productID)
		if ci < 0 {
			return errUnchanged
		}
		tx.state.Cart = append(tx.state.Cart[:ci], tx.state.Cart[ci+1:]...)
		return nil
	})
}

// UpdateCartQuantity sets the quantity of an existing cart line. Quantities
// below 1 are rejected; use RemoveFromCart to drop a line.
func (s *Store) UpdateCartQuantity(ctx context.Context, productID string, quantity int) error {
	return s.mutate(ctx, "update_cart_quantity", func(tx *txn) error {
		if quantity < 1 {
			return invalidArgument(tx.op, "quantity must be at least 1, got %d", quantity)
		}
		ci := tx.cartIndex(productID)
		if ci < 0 {
			return notFound(tx.op, "cart item", productID)
		}
		if tx.state.Cart[ci].Quantity == quantity {
			return errUnchanged
		}
		tx.state.Cart[ci].Quantity = quantity
		return nil
	})
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, "clear_cart", func(tx *txn) error {
		if len(tx.state.Cart) == 0 {
			return errUnchanged
		}
		tx.state.Cart = []models.CartItem{}
		return nil
	})
}
