package main

import (
	"context"
	"flag"
	"text/tabwriter"

	"github.com/planmarket/planmarket/internal/catalog"
)

func (a *app) runCatalog(ctx context.Context, cmd string, args []string) error {
	if cmd == "plan" {
		if len(args) != 1 {
			return errUsage
		}
		details, err := a.catalog.GetPlan(ctx, args[0])
		if err != nil {
			return err
		}
		return a.printJSON(details)
	}

	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	var c catalog.Criteria
	var q catalog.ListQuery
	fs.StringVar(&c.Style, "style", "", "style or category")
	fs.StringVar(&c.Size, "size", "", "small|medium|large|estate")
	fs.StringVar(&c.Budget, "budget", "", "under-150k|standard|premium|luxury")
	fs.StringVar(&c.Bedrooms, "bedrooms", "", "1-2|3-4|5+")
	fs.StringVar(&c.Floors, "floors", "", "1|2|3+")
	fs.StringVar(&c.Search, "q", "", "text search")
	fs.StringVar(&c.Sort, "sort", "", "top-selling|price-asc|price-desc|newest")
	fs.IntVar(&q.Page, "page", 1, "page")
	fs.IntVar(&q.PerPage, "per-page", 50, "page size")
	fs.StringVar(&q.Category, "category", "", "server-side category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	plans, err := a.catalog.Browse(ctx, q, c)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	a.fprintRow(tw, "ID", "NAME", "PRICE", "AREA", "BEDS", "FLOORS", "SALES")
	for _, p := range plans {
		a.fprintRow(tw, p.ID, p.Name, p.Price.StringFixed(2), p.Area, p.Bedrooms, p.Floors, p.SalesCount)
	}
	return nil
}
