package main

import (
	"context"
	"text/tabwriter"

	"github.com/planmarket/planmarket/internal/session"
)

func (a *app) runCustomer(ctx context.Context, cmd string, args []string) error {
	if a.client.Token() == "" {
		return session.ErrNotSignedIn
	}
	if err := a.customer.Load(ctx); err != nil {
		return err
	}

	switch cmd {
	case "favorites":
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		a.fprintRow(tw, "PLAN", "NAME")
		for _, f := range a.customer.Favorites() {
			name := ""
			if f.Plan != nil {
				name = f.Plan.Name
			}
			a.fprintRow(tw, f.PlanID, name)
		}
		return nil

	case "fav":
		if len(args) != 1 {
			return errUsage
		}
		on, err := a.customer.ToggleFavorite(ctx, args[0])
		if err != nil {
			return err
		}
		if on {
			a.printf("Added %s to favorites\n", args[0])
		} else {
			a.printf("Removed %s from favorites\n", args[0])
		}
		return nil

	case "cart":
		return a.runCart(ctx, args)
	}
	return errUsage
}

func (a *app) runCart(ctx context.Context, args []string) error {
	if len(args) > 0 {
		var err error
		switch {
		case args[0] == "add" && len(args) == 2:
			err = a.customer.AddToCart(ctx, args[1])
		case args[0] == "remove" && len(args) == 2:
			err = a.customer.RemoveFromCart(ctx, args[1])
		case args[0] == "clear" && len(args) == 1:
			err = a.customer.ClearCart(ctx)
		default:
			return errUsage
		}
		if err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	a.fprintRow(tw, "PLAN", "NAME", "PRICE")
	for _, item := range a.customer.Cart() {
		name := ""
		if item.Plan != nil {
			name = item.Plan.Name
		}
		a.fprintRow(tw, item.PlanID, name, item.UnitPrice().StringFixed(2))
	}
	a.fprintRow(tw, "", "TOTAL", a.customer.CartTotal().StringFixed(2))
	return tw.Flush()
}
