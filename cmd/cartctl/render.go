package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"storefront-cart/internal/domain"
	"storefront-cart/internal/pricing"
)

func money(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}

func printCart(w io.Writer, owner string, cart domain.Cart, totals pricing.Totals) error {
	if cart.IsEmpty() {
		fmt.Fprintf(w, "%s cart is empty\n", owner)
	} else {
		fmt.Fprintf(w, "%s cart, %d line(s)\n", owner, len(cart.Items))
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PRODUCT\tTITLE\tSELLER\tQTY\tPRICE")
		for _, item := range cart.Items {
			price := money(item.UnitPriceCents)
			if item.OriginalPriceCents > item.UnitPriceCents {
				price += " (was " + money(item.OriginalPriceCents) + ")"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", item.ProductID, item.Title, item.Seller.Name, item.Quantity, price)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if cart.Promotion != nil {
		fmt.Fprintf(w, "Promotion: %s\n", cart.Promotion.Code)
	}
	fmt.Fprintf(w, "Subtotal: %s\n", money(totals.SubtotalCents))
	if totals.DiscountCents > 0 {
		fmt.Fprintf(w, "Discount: -%s\n", money(totals.DiscountCents))
	}
	fmt.Fprintf(w, "Total:    %s\n", money(totals.TotalCents))
	return nil
}
