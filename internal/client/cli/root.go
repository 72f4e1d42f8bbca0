package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/adiwinata/fittrack/internal/client/auth"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

func (a *App) prompt() string {
	st := a.auth.State()
	who := "guest"
	if st.Session.User != nil {
		who = st.Session.User.Username
	} else if st.Status == auth.StatusPendingVerification {
		who = "verify:" + st.PendingVerificationEmail
	}
	return fmt.Sprintf("fittrack (%s/%s)> ", who, a.auth.Route())
}

func (a *App) help() {
	switch a.auth.Route() {
	case auth.FlowAuth:
		st := a.auth.State()
		if st.Status == auth.StatusPendingVerification {
			printlnFn("Available commands: otp, verified, login, exit")
			return
		}
		printlnFn("Available commands: login, register, otp, forgot, exit")
	case auth.FlowOnboarding:
		printlnFn("Available commands: basics, goal, activity, prefs, finish, profile, logout, exit")
	case auth.FlowMain:
		printlnFn("Available commands: profile, passwd, logout, exit")
	}
}

// Root runs the read-eval-print loop. The accepted command set follows the
// routing decision, so an unauthenticated user cannot reach onboarding or
// main commands and vice versa.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to FitTrack (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(a.prompt())
		if !scanner.Scan() {
			return
		}
		cmd := strings.TrimSpace(scanner.Text())
		if cmd == "" {
			continue
		}

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		if cmd == "help" {
			a.help()
			continue
		}

		if err := a.dispatch(ctx, cmd); err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}

func (a *App) dispatch(ctx context.Context, cmd string) error {
	switch a.auth.Route() {
	case auth.FlowAuth:
		switch cmd {
		case "login":
			return a.Login(ctx)
		case "register":
			return a.Register(ctx)
		case "otp":
			return a.RegenerateOTP(ctx)
		case "forgot":
			return a.ForgotPassword(ctx)
		case "verified":
			a.auth.CompleteVerification()
			printlnFn("You can log in now.")
			return nil
		}
	case auth.FlowOnboarding:
		switch cmd {
		case "basics":
			return a.OnboardingBasics(ctx)
		case "goal":
			return a.OnboardingGoal(ctx)
		case "activity":
			return a.OnboardingActivity(ctx)
		case "prefs":
			return a.OnboardingPreferences(ctx)
		case "finish":
			return a.OnboardingFinish(ctx)
		case "profile":
			return a.ShowProfile(ctx)
		case "logout":
			return a.Logout(ctx)
		}
	case auth.FlowMain:
		switch cmd {
		case "profile":
			return a.ShowProfile(ctx)
		case "passwd":
			return a.ChangePassword(ctx)
		case "logout":
			return a.Logout(ctx)
		}
	}
	printlnFn("Unknown command:", cmd)
	return nil
}
