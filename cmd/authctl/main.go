// Command authctl drives the auth session from a terminal: register, log in,
// log out and change passwords against a running auth service. The session
// token persists under the keystore directory, so authenticated commands work
// across invocations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/beaconapp/authcore/internal/api"
	"github.com/beaconapp/authcore/internal/config"
	"github.com/beaconapp/authcore/internal/formfield"
	"github.com/beaconapp/authcore/internal/keystore"
	"github.com/beaconapp/authcore/internal/logging"
	"github.com/beaconapp/authcore/internal/session"
)

// fields labels failures with the form field they belong to, the same routing
// the app's screens use.
var fields formfield.Router = formfield.SubstringRouter{}

func labeled(err error) error {
	if err == nil {
		return nil
	}
	if field := fields.Route(err.Error()); field != formfield.FieldGeneral {
		return fmt.Errorf("%s: %w", field, err)
	}
	return err
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	tokens := keystore.NewFileStore(cfg.KeystoreDir)
	client := api.NewClient(cfg.APIBaseURL, tokens, logger)
	mgr := session.NewManager(client, tokens, logger)

	ctx := context.Background()
	mgr.Init(ctx)

	var cmdErr error
	switch os.Args[1] {
	case "register":
		cmdErr = runRegister(ctx, mgr, os.Args[2:])
	case "login":
		cmdErr = runLogin(ctx, mgr, os.Args[2:])
	case "logout":
		mgr.Logout(ctx)
		fmt.Println("signed out")
	case "passwd":
		cmdErr = runPasswd(ctx, mgr, os.Args[2:])
	case "whoami":
		printState(mgr.Snapshot())
	default:
		usage()
		os.Exit(2)
	}

	if cmdErr != nil {
		fmt.Fprintln(os.Stderr, cmdErr)
		os.Exit(1)
	}
}

func runRegister(ctx context.Context, mgr *session.Manager, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	first := fs.String("first-name", "", "first name")
	last := fs.String("last-name", "", "last name")
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	countryCode := fs.String("country-code", "", "country dialing code (optional)")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password confirmation")
	fs.Parse(args)

	err := mgr.Register(ctx, api.SignupRequest{
		FirstName:            *first,
		LastName:             *last,
		Email:                *email,
		Phone:                *phone,
		CountryCode:          *countryCode,
		Password:             *password,
		PasswordConfirmation: *confirm,
	})
	if err != nil {
		return labeled(err)
	}
	printState(mgr.Snapshot())
	return nil
}

func runLogin(ctx context.Context, mgr *session.Manager, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if err := mgr.Login(ctx, *email, *password); err != nil {
		return labeled(err)
	}
	printState(mgr.Snapshot())
	return nil
}

func runPasswd(ctx context.Context, mgr *session.Manager, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	current := fs.String("current", "", "current password")
	updated := fs.String("new", "", "new password")
	fs.Parse(args)

	if err := mgr.UpdatePassword(ctx, *current, *updated); err != nil {
		return labeled(err)
	}
	fmt.Println("password updated")
	return nil
}

func printState(s session.State) {
	if !s.Authenticated {
		fmt.Println("not signed in")
		return
	}
	if s.User == nil {
		// A restored session knows it has a token but not who owns it.
		fmt.Println("signed in (identity not loaded; log in again to refresh)")
		return
	}
	fmt.Printf("signed in as %s (#%d)\n", s.User.Email, s.User.ID)
	if s.User.FullName != "" {
		fmt.Printf("  name:  %s\n", s.User.FullName)
	}
	if s.User.FullPhone != "" {
		fmt.Printf("  phone: %s\n", s.User.FullPhone)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: authctl <command> [flags]

commands:
  register  create an account and sign in
  login     sign in with email and password
  logout    sign out and discard the stored token
  passwd    change the account password
  whoami    show the current session
`)
}
