// Command cartctl is a terminal storefront cart. It keeps a guest cart on
// disk and syncs with the cart service once logged in.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
