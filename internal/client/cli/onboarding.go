package cli

import (
	"context"
	"os"
	"strings"

	"github.com/adiwinata/fittrack/internal/client/models"
)

// Onboarding steps mirror the first-run screens: each one collects a few
// fields and pushes a partial update. Steps can be repeated or skipped in
// any order; only 'finish' flips the completed flag and unlocks the main
// flow.

// OnboardingBasics collects weight, height, age and gender.
func (a *App) OnboardingBasics(ctx context.Context) error {
	upd := models.ProfileUpdate{}

	if w, ok, err := GetFloat(a.reader, "Weight in kg (empty to skip)", os.Stdout); err != nil {
		return err
	} else if ok {
		upd.Weight = &w
	}
	if h, ok, err := GetFloat(a.reader, "Height in cm (empty to skip)", os.Stdout); err != nil {
		return err
	} else if ok {
		upd.Height = &h
	}
	if age, ok, err := GetInt(a.reader, "Age (empty to skip)", os.Stdout); err != nil {
		return err
	} else if ok {
		upd.Age = &age
	}
	if g, ok, err := GetChoice(a.reader, "Gender", []string{"male", "female", "other"}, os.Stdout); err != nil {
		return err
	} else if ok {
		upd.Gender = &g
	}

	return a.submitStep(ctx, upd)
}

// OnboardingGoal records the fitness goal.
func (a *App) OnboardingGoal(ctx context.Context) error {
	goals := []string{models.GoalLoseWeight, models.GoalBuildMuscle, models.GoalStayFit, models.GoalEndurance}
	g, ok, err := GetChoice(a.reader, "Fitness goal", goals, os.Stdout)
	if err != nil || !ok {
		return err
	}
	return a.submitStep(ctx, models.ProfileUpdate{FitnessGoal: &g})
}

// OnboardingActivity records activity level and weekly workout frequency.
func (a *App) OnboardingActivity(ctx context.Context) error {
	upd := models.ProfileUpdate{}

	levels := []string{models.ActivitySedentary, models.ActivityLight, models.ActivityModerate, models.ActivityHigh}
	if lvl, ok, err := GetChoice(a.reader, "Activity level", levels, os.Stdout); err != nil {
		return err
	} else if ok {
		upd.ActivityLevel = &lvl
	}
	if freq, ok, err := GetInt(a.reader, "Workouts per week (empty to skip)", os.Stdout); err != nil {
		return err
	} else if ok {
		upd.WorkoutFrequency = &freq
	}

	return a.submitStep(ctx, upd)
}

// OnboardingPreferences records preferred workout types.
func (a *App) OnboardingPreferences(ctx context.Context) error {
	raw, err := getSimpleText(a.reader, "Preferred workouts, comma separated (e.g. running, yoga)", os.Stdout)
	if err != nil {
		return err
	}
	var prefs []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			prefs = append(prefs, p)
		}
	}
	if len(prefs) == 0 {
		return nil
	}
	return a.submitStep(ctx, models.ProfileUpdate{PreferredWorkouts: prefs})
}

// OnboardingFinish marks onboarding complete; the router moves to the main
// flow on the next prompt.
func (a *App) OnboardingFinish(ctx context.Context) error {
	done := true
	if err := a.submitStep(ctx, models.ProfileUpdate{OnboardingCompleted: &done}); err != nil {
		return err
	}
	printlnFn("You're all set. Welcome to FitTrack!")
	return nil
}

func (a *App) submitStep(ctx context.Context, upd models.ProfileUpdate) error {
	if upd.IsZero() {
		printlnFn("Nothing to save.")
		return nil
	}
	if err := a.auth.UpdateProfile(ctx, upd); err != nil {
		return err
	}
	printlnFn("Saved.")
	return nil
}
