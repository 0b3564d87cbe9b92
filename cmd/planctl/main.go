package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: planctl <command> [args]

session:   login <email> <password> | logout | whoami | profile
           register <customer|designer> <email> <password> [-first -last -company -license]
           verify-email <token> | forgot-password <email> | reset-password <token> <password>
browse:    browse [-style -size -budget -bedrooms -floors -q -sort -page -per-page -category]
           plan <id>
customer:  favorites | fav <plan-id> | cart [add|remove <plan-id> | clear]
purchase:  buy <plan-id> [paystack|paypal] | verify | purchases | download <plan-id> [dir]
designer:  upload <manifest.yaml> | update <plan-id> <manifest.yaml>
           my-plans | delete-plan <plan-id> | designer-stats
admin:     admin users [-role] | admin plans [-status] | admin purchases [-status]
           admin activate|deactivate <user-id> | admin role <user-id> <role>
           admin delete-user <user-id> | admin plan-status <plan-id> <draft|available>
           admin delete-plan <plan-id> | admin confirm <purchase-id> | admin stats
           admin edit-plan <plan-id> <manifest.yaml>`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the exit code so deferred cleanup runs before os.Exit.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, stdout)
	if err != nil {
		fmt.Fprintln(stderr, "planctl:", err)
		return 1
	}
	defer a.close()

	if err := a.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(stderr, "error:", a.message(err))
		return 1
	}
	return 0
}
