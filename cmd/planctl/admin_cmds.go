package main

import (
	"context"
	"flag"
	"text/tabwriter"

	"github.com/planmarket/planmarket/internal/admin"
)

func (a *app) runAdmin(ctx context.Context, cmd string, args []string) error {
	one := func(fn func(context.Context, string) error, done string) error {
		if len(args) != 1 {
			return errUsage
		}
		if err := fn(ctx, args[0]); err != nil {
			return err
		}
		a.printf(done+"\n", args[0])
		return nil
	}

	switch cmd {
	case "users":
		fs := flag.NewFlagSet("admin users", flag.ContinueOnError)
		var f admin.UserFilter
		fs.StringVar(&f.Role, "role", "", "customer|designer|admin")
		fs.StringVar(&f.Search, "q", "", "search")
		fs.IntVar(&f.Page, "page", 0, "page")
		if err := fs.Parse(args); err != nil {
			return err
		}
		users, err := a.admin.ListUsers(ctx, f)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		a.fprintRow(tw, "ID", "EMAIL", "ROLE", "ACTIVE", "VERIFIED")
		for _, u := range users {
			a.fprintRow(tw, u.ID, u.Email, u.Role, u.IsActive, u.IsVerified)
		}
		return nil

	case "plans":
		fs := flag.NewFlagSet("admin plans", flag.ContinueOnError)
		var f admin.PlanFilter
		fs.StringVar(&f.Status, "status", "", "draft|available")
		fs.IntVar(&f.Page, "page", 0, "page")
		if err := fs.Parse(args); err != nil {
			return err
		}
		plans, err := a.admin.ListPlans(ctx, f)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		a.fprintRow(tw, "ID", "NAME", "STATUS", "PRICE", "DESIGNER")
		for _, p := range plans {
			a.fprintRow(tw, p.ID, p.Name, p.Status, p.Price.StringFixed(2), p.DesignerID)
		}
		return nil

	case "purchases":
		fs := flag.NewFlagSet("admin purchases", flag.ContinueOnError)
		status := fs.String("status", "", "pending|completed|failed|confirmed")
		if err := fs.Parse(args); err != nil {
			return err
		}
		list, err := a.admin.ListPurchases(ctx, *status)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		a.fprintRow(tw, "ID", "PLAN", "USER", "STATUS", "AMOUNT", "REFERENCE")
		for _, p := range list {
			a.fprintRow(tw, p.ID, p.PlanID, p.UserID, p.Status, p.Amount.StringFixed(2), p.PaymentReference)
		}
		return nil

	case "activate":
		return one(func(ctx context.Context, id string) error { return a.admin.SetUserActive(ctx, id, true) }, "Activated %s")
	case "deactivate":
		return one(func(ctx context.Context, id string) error { return a.admin.SetUserActive(ctx, id, false) }, "Deactivated %s")
	case "delete-user":
		return one(a.admin.DeleteUser, "Deleted user %s")
	case "delete-plan":
		return one(func(ctx context.Context, id string) error {
			if err := a.admin.DeletePlan(ctx, id); err != nil {
				return err
			}
			a.catalog.Invalidate(ctx)
			return nil
		}, "Deleted plan %s")
	case "confirm":
		return one(a.admin.ConfirmPurchase, "Confirmed purchase %s")

	case "role":
		if len(args) != 2 {
			return errUsage
		}
		if err := a.admin.SetUserRole(ctx, args[0], args[1]); err != nil {
			return err
		}
		a.printf("%s is now %s\n", args[0], args[1])
		return nil

	case "plan-status":
		if len(args) != 2 {
			return errUsage
		}
		if err := a.admin.SetPlanStatus(ctx, args[0], args[1]); err != nil {
			return err
		}
		a.catalog.Invalidate(ctx)
		a.printf("%s is now %s\n", args[0], args[1])
		return nil

	case "edit-plan":
		if len(args) != 2 {
			return errUsage
		}
		d, err := a.loadDraft(args[1])
		if err != nil {
			return err
		}
		res, err := a.uploads.AdminUpdate(ctx, args[0], d)
		if err != nil {
			return err
		}
		a.catalog.Invalidate(ctx)
		a.printf("%s\n", res.Message)
		return nil

	case "stats":
		stats, err := a.admin.Analytics(ctx)
		if err != nil {
			return err
		}
		return a.printJSON(stats)
	}
	return errUsage
}
