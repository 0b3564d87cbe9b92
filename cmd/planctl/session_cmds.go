package main

import (
	"context"
	"flag"

	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/session"
)

func (a *app) runSession(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		if len(args) != 2 {
			return errUsage
		}
		user, err := a.session.Login(ctx, args[0], args[1])
		if err != nil {
			if apiclient.IsEmailUnverified(err) {
				a.printf("Your email is not verified. Requesting a new verification link...\n")
				if rerr := a.session.ResendVerification(ctx, args[0]); rerr != nil {
					a.logger.Sugar().Warnw("resend verification failed", "error", rerr)
				}
			}
			return err
		}
		if err := a.saveToken(a.client.Token()); err != nil {
			return err
		}
		a.printf("Signed in as %s (%s)\n", user.Email, user.Role)
		return nil

	case "logout":
		a.session.Logout(ctx)
		if err := a.pending.Clear(); err != nil {
			return err
		}
		return a.clearToken()

	case "whoami":
		if a.client.Token() == "" {
			return session.ErrNotSignedIn
		}
		user, err := session.DecodeToken(a.client.Token())
		if err != nil {
			return err
		}
		return a.printJSON(user)

	case "profile":
		p, err := a.session.Me(ctx)
		if err != nil {
			return err
		}
		return a.printJSON(p)

	case "register":
		return a.register(ctx, args)

	case "verify-email":
		if len(args) != 1 {
			return errUsage
		}
		if err := a.session.VerifyEmail(ctx, args[0]); err != nil {
			return err
		}
		a.printf("Email verified. You can sign in now.\n")
		return nil

	case "forgot-password":
		if len(args) != 1 {
			return errUsage
		}
		if err := a.session.ForgotPassword(ctx, args[0]); err != nil {
			return err
		}
		a.printf("If the address is registered, a reset link is on its way.\n")
		return nil

	case "reset-password":
		if len(args) != 2 {
			return errUsage
		}
		if err := a.session.ResetPassword(ctx, args[0], args[1]); err != nil {
			return err
		}
		a.printf("Password updated.\n")
		return nil
	}
	return errUsage
}

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	role, email, password := args[0], args[1], args[2]

	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	phone := fs.String("phone", "", "phone number")
	company := fs.String("company", "", "company name (designers)")
	license := fs.String("license", "", "license number (designers)")
	if err := fs.Parse(args[3:]); err != nil {
		return err
	}

	reg := session.Registration{
		Email:         email,
		Password:      password,
		FirstName:     *first,
		LastName:      *last,
		Phone:         *phone,
		CompanyName:   *company,
		LicenseNumber: *license,
	}

	var (
		res *session.RegistrationResult
		err error
	)
	switch role {
	case session.RoleCustomer:
		res, err = a.session.RegisterCustomer(ctx, reg)
	case session.RoleDesigner:
		res, err = a.session.RegisterDesigner(ctx, reg)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	a.printf("%s\nCheck your inbox to verify your email.\n", res.Message)
	return nil
}
