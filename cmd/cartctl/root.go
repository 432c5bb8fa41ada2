package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"storefront-cart/internal/domain"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "cartctl",
		Short: "Storefront cart from the terminal",
		Long: `cartctl keeps a guest cart on this machine and syncs it with the cart
service after login. The guest cart is merged into the account cart once
per login.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	promo := &cobra.Command{
		Use:   "promo",
		Short: "Apply or remove a promotion code",
	}
	promo.AddCommand(
		&cobra.Command{
			Use:   "apply <code>",
			Short: "Apply a promotion code, replacing any current one",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
				_, err := a.engine.ApplyPromotion(ctx, args[0])
				return showAfter(cmd, a, err)
			}),
		},
		&cobra.Command{
			Use:   "remove",
			Short: "Remove the current promotion",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
				_, err := a.engine.RemovePromotion(ctx)
				return showAfter(cmd, a, err)
			}),
		},
	)

	root.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the cart",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
				_, err := a.engine.Refresh(ctx)
				return showAfter(cmd, a, err)
			}),
		},
		&cobra.Command{
			Use:   "add <product-id>",
			Short: "Add one unit of a product",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
				product, err := a.client.GetProduct(ctx, args[0])
				if err != nil {
					return fmt.Errorf("look up product %s: %w", args[0], err)
				}
				_, err = a.engine.AddItem(ctx, product)
				return showAfter(cmd, a, err)
			}),
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a product from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
				_, err := a.engine.RemoveItem(ctx, args[0])
				return showAfter(cmd, a, err)
			}),
		},
		&cobra.Command{
			Use:   "qty <product-id> <quantity>",
			Short: "Set a line quantity (guest carts only)",
			Args:  cobra.ExactArgs(2),
			RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity must be a number: %w", err)
				}
				_, err = a.engine.SetQuantity(ctx, args[0], n)
				return showAfter(cmd, a, err)
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
				_, err := a.engine.Clear(ctx)
				return showAfter(cmd, a, err)
			}),
		},
		promo,
		newLoginCmd(opts),
		&cobra.Command{
			Use:   "logout",
			Short: "Log out and switch back to the guest cart",
			Args:  cobra.NoArgs,
			RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
				if a.session.Token != "" {
					if err := a.client.Logout(ctx, a.session.Token); err != nil {
						a.logger.Warn("revoke token", zap.Error(err))
					}
				}
				if err := a.forget(); err != nil {
					return err
				}
				_, err := a.engine.SetSession(ctx, a.session.engineSession())
				return showAfter(cmd, a, err)
			}),
		},
		newSignupCmd(opts),
	)
	return root
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and merge the guest cart into the account cart",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			token, err := a.client.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := a.remember(token, strings.TrimSpace(email)); err != nil {
				return err
			}
			_, err = a.engine.SetSession(ctx, a.session.engineSession())
			return showAfter(cmd, a, err)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignupCmd(opts *rootOptions) *cobra.Command {
	var email, password, firstName, lastName string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account on the cart service",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			customer, err := a.client.Signup(ctx, email, password, firstName, lastName)
			if err != nil {
				return fmt.Errorf("signup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Run cartctl login to use it.\n", customer.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

type appFunc func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error

// withApp opens the stores and engine around fn.
func withApp(opts *rootOptions, fn appFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := openApp(ctx, opts, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, cmd, a, args)
	}
}

// showAfter prints the cart and passes err through. The cart is printed
// on failure too since the engine keeps the last good state.
func showAfter(cmd *cobra.Command, a *app, err error) error {
	owner := "Guest"
	if a.engine.Ownership() == domain.OwnershipMember {
		owner = "Account"
		if a.session.Email != "" {
			owner += " (" + a.session.Email + ")"
		}
	}
	if perr := printCart(cmd.OutOrStdout(), owner, a.engine.Snapshot(), a.engine.Totals()); perr != nil && err == nil {
		err = perr
	}
	return err
}
