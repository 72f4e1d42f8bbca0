package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/adiwinata/fittrack/internal/shared"
)

// ShowProfile prints the current profile snapshot.
func (a *App) ShowProfile(ctx context.Context) error {
	st := a.auth.State()
	u := st.Session.User
	if u == nil {
		printlnFn("No profile available.")
		return nil
	}

	printlnFn(fmt.Sprintf("%s (@%s) <%s>", u.Name, u.Username, u.Email))
	if u.Weight != nil {
		printlnFn(fmt.Sprintf("  weight: %.1f kg", *u.Weight))
	}
	if u.Height != nil {
		printlnFn(fmt.Sprintf("  height: %.1f cm", *u.Height))
	}
	if u.Age != nil {
		printlnFn(fmt.Sprintf("  age: %d", *u.Age))
	}
	if u.FitnessGoal != nil {
		printlnFn("  goal: " + *u.FitnessGoal)
	}
	if u.ActivityLevel != nil {
		printlnFn("  activity: " + *u.ActivityLevel)
	}
	if u.WorkoutFrequency != nil {
		printlnFn(fmt.Sprintf("  workouts/week: %d", *u.WorkoutFrequency))
	}
	if len(u.PreferredWorkouts) > 0 {
		printlnFn("  prefers: " + strings.Join(u.PreferredWorkouts, ", "))
	}
	printlnFn(fmt.Sprintf("  stats: %d workouts, %d day streak, %d achievements",
		u.Stats.TotalWorkouts, u.Stats.Streak, u.Stats.Achievements))
	if !u.OnboardingCompleted {
		printlnFn("  onboarding: incomplete")
	}
	return nil
}

// ChangePassword submits a password change for the logged-in user.
func (a *App) ChangePassword(ctx context.Context) error {
	fmt.Fprintln(os.Stdout, "Current password:")
	current, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(current)

	fmt.Fprintln(os.Stdout, "New password:")
	next, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(next)

	if len(next) < 8 {
		printlnFn("New password must be at least 8 characters.")
		return nil
	}

	token := a.auth.State().Session.Token
	msg, err := a.api.ChangePassword(ctx, token, string(current), string(next))
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Password changed."
	}
	printlnFn(msg)
	return nil
}
