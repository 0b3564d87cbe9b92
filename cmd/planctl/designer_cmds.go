package main

import (
	"context"
	"text/tabwriter"

	"github.com/planmarket/planmarket/internal/upload"
)

func (a *app) runDesigner(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "upload":
		if len(args) != 1 {
			return errUsage
		}
		d, err := a.loadDraft(args[0])
		if err != nil {
			return err
		}
		res, err := a.uploads.Create(ctx, d)
		if err != nil {
			return err
		}
		a.catalog.Invalidate(ctx)
		a.printf("%s (plan %s)\n", res.Message, res.PlanID)
		return nil

	case "update":
		if len(args) != 2 {
			return errUsage
		}
		d, err := a.loadDraft(args[1])
		if err != nil {
			return err
		}
		res, err := a.uploads.Update(ctx, args[0], d)
		if err != nil {
			return err
		}
		a.catalog.Invalidate(ctx)
		a.printf("%s\n", res.Message)
		return nil

	case "my-plans":
		plans, err := a.designer.MyPlans(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		a.fprintRow(tw, "ID", "NAME", "STATUS", "PRICE", "SALES", "VIEWS")
		for _, p := range plans {
			a.fprintRow(tw, p.ID, p.Name, p.Status, p.Price.StringFixed(2), p.SalesCount, p.Views)
		}
		return nil

	case "delete-plan":
		if len(args) != 1 {
			return errUsage
		}
		if err := a.designer.DeletePlan(ctx, args[0]); err != nil {
			return err
		}
		a.catalog.Invalidate(ctx)
		a.printf("Deleted %s\n", args[0])
		return nil

	case "designer-stats":
		stats, err := a.designer.Analytics(ctx)
		if err != nil {
			return err
		}
		return a.printJSON(stats)
	}
	return errUsage
}

// loadDraft reads a manifest and walks it through every wizard step so the
// first failing step is reported.
func (a *app) loadDraft(path string) (*upload.Draft, error) {
	d, err := upload.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	w := upload.NewWizard(d)
	for w.Step() != upload.StepReview {
		if err := w.Next(); err != nil {
			return nil, err
		}
	}
	return w.Draft, nil
}
