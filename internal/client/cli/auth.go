package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/barterdesk/barterdesk/internal/client/services"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials, runs a login submission through a session
// controller and waits for the terminal status. On success the controller
// has already persisted the session record.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}

	ctrl := a.newController(services.ModeLogin)
	defer ctrl.Close()

	ctrl.SetEmail(email)
	ctrl.SetPassword(password)
	ctrl.Submit(ctx)

	st := waitForOutcome(ctx, ctrl)
	if st.Kind != services.StatusSuccess {
		fmt.Println(st.Message)
		return errors.New(st.Message)
	}

	fmt.Printf("Welcome back, %s!\n", st.Record.Username)
	return nil
}

// Register prompts for the registration fields and runs the submission the
// same way Login does.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Confirm password", os.Stdout)
	if err != nil {
		return err
	}

	ctrl := a.newController(services.ModeRegister)
	defer ctrl.Close()

	ctrl.SetUsername(username)
	ctrl.SetEmail(email)
	ctrl.SetPassword(password)
	ctrl.SetConfirmPassword(confirm)
	ctrl.Submit(ctx)

	st := waitForOutcome(ctx, ctrl)
	if st.Kind != services.StatusSuccess {
		fmt.Println(st.Message)
		return errors.New(st.Message)
	}

	fmt.Printf("Welcome, %s!\n", st.Record.Username)
	return nil
}

// Logout resets the durable session record to its sentinels.
func (a *App) Logout(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		fmt.Println("Could not clear the session:", err)
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

// WhoAmI prints the persisted identity.
func (a *App) WhoAmI(ctx context.Context) error {
	rec := a.store.Record(ctx)
	if !rec.Authenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("Logged in as %s <%s>\n", rec.Username, rec.Email)
	return nil
}

// waitForOutcome blocks until the controller reaches a terminal status or
// ctx is cancelled.
func waitForOutcome(ctx context.Context, ctrl *services.SessionController) services.Status {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for st := range ctrl.Observe(ctx) {
		if st.Terminal() {
			return st
		}
	}
	return ctrl.Status()
}
