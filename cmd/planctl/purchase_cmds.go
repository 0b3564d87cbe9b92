package main

import (
	"context"
	"errors"
	"text/tabwriter"

	"github.com/planmarket/planmarket/internal/purchase"
)

func (a *app) runPurchase(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "buy":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		provider := purchase.ProviderPaystack
		if len(args) == 2 {
			provider = args[1]
		}
		return a.buy(ctx, args[0], provider)

	case "verify":
		res, err := a.purchases.VerifyPending(ctx, a.pending)
		if err != nil {
			return err
		}
		if res == nil {
			a.printf("No pending payment.\n")
			return nil
		}
		a.printf("Payment %s: %s\n", res.Reference, res.Status)
		return nil

	case "purchases":
		list, err := a.purchases.MyPurchases(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		a.fprintRow(tw, "ID", "PLAN", "STATUS", "AMOUNT", "DATE")
		for _, p := range list {
			a.fprintRow(tw, p.ID, p.PlanID, p.Status, p.Amount.StringFixed(2), p.CreatedAt.Format("2006-01-02"))
		}
		return nil

	case "download":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		dir := "."
		if len(args) == 2 {
			dir = args[1]
		}
		path, err := a.purchases.SaveDownload(ctx, args[0], dir)
		if err != nil {
			return err
		}
		a.printf("Saved %s\n", path)
		return nil
	}
	return errUsage
}

// buy starts checkout, prints the provider link and polls until the backend
// confirms payment. An unconfirmed checkout is kept for "planctl verify".
func (a *app) buy(ctx context.Context, planID, provider string) error {
	co, err := a.purchases.Purchase(ctx, planID, provider)
	if err != nil {
		return err
	}
	if co.AlreadyOwned {
		a.printf("You already own this plan. Run: planctl download %s\n", planID)
		return nil
	}
	if co.RedirectURL == "" {
		a.printf("%s\n", co.Message)
		return nil
	}

	if err := a.pending.Save(purchase.Pending{Reference: co.Reference, PlanID: planID, Provider: co.Provider}); err != nil {
		a.logger.Sugar().Warnw("could not save pending checkout", "error", err)
	}
	a.printf("Complete the payment of %s in your browser:\n  %s\nWaiting for confirmation...\n", co.Amount.StringFixed(2), co.RedirectURL)

	if co.Provider == purchase.ProviderPayPal {
		a.printf("After approving on PayPal, run: planctl verify\n")
		return nil
	}

	res, err := a.purchases.AwaitPayment(ctx, co.Reference, purchase.PollOptions{
		Interval: a.cfg.Payment.PollInterval,
		Attempts: a.cfg.Payment.PollAttempts,
	})
	switch {
	case errors.Is(err, purchase.ErrPaymentPending):
		a.printf("Payment not confirmed yet. Run: planctl verify\n")
		return nil
	case err != nil:
		return err
	}

	if err := a.pending.Clear(); err != nil {
		return err
	}
	a.printf("Payment %s confirmed. Run: planctl download %s\n", res.Reference, planID)
	return nil
}
