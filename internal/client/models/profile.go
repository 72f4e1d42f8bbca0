// Package models defines the client-side domain types: the user Profile with
// its incremental onboarding fields, and the persisted Session.
package models

// Fitness goal values accepted by the backend.
const (
	GoalLoseWeight  = "lose_weight"
	GoalBuildMuscle = "build_muscle"
	GoalStayFit     = "stay_fit"
	GoalEndurance   = "endurance"
)

// Activity level values accepted by the backend.
const (
	ActivitySedentary = "sedentary"
	ActivityLight     = "light"
	ActivityModerate  = "moderate"
	ActivityHigh      = "high"
)

// Stats holds aggregate workout counters. They are initialized to zero at
// account creation and maintained by the backend, not by this client.
type Stats struct {
	TotalWorkouts int `json:"total_workouts"`
	Streak        int `json:"streak"`
	Achievements  int `json:"achievements"`
}

// Profile is the denormalized view of the authenticated user.
//
// Identity fields (ID, Name, Username, Email) are immutable after creation.
// The physical/preference fields are each independently optional and are
// filled in step by step during onboarding via partial-merge updates.
type Profile struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`

	Phone      string `json:"phone,omitempty"`
	BirthPlace string `json:"birth_place,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`
	Gender     string `json:"gender,omitempty"`

	Weight            *float64 `json:"weight,omitempty"`
	Height            *float64 `json:"height,omitempty"`
	Age               *int     `json:"age,omitempty"`
	FitnessGoal       *string  `json:"fitness_goal,omitempty"`
	ActivityLevel     *string  `json:"activity_level,omitempty"`
	WorkoutFrequency  *int     `json:"workout_frequency,omitempty"`
	PreferredWorkouts []string `json:"preferred_workouts,omitempty"`
	WorkUnitID        *int64   `json:"work_unit_id,omitempty"`

	// OnboardingCompleted is false until the terminal onboarding step marks
	// it true; after that the client never resets it.
	OnboardingCompleted bool `json:"onboarding_completed"`

	Stats Stats `json:"stats"`
}

// ProfileUpdate carries a partial profile mutation. Nil fields are left
// untouched by Merge, so a step that only knows the user's weight cannot
// clobber the height collected by an earlier step.
type ProfileUpdate struct {
	Phone      *string `json:"phone,omitempty"`
	BirthPlace *string `json:"birth_place,omitempty"`
	BirthDate  *string `json:"birth_date,omitempty"`
	Gender     *string `json:"gender,omitempty"`

	Weight            *float64 `json:"weight,omitempty"`
	Height            *float64 `json:"height,omitempty"`
	Age               *int     `json:"age,omitempty"`
	FitnessGoal       *string  `json:"fitness_goal,omitempty"`
	ActivityLevel     *string  `json:"activity_level,omitempty"`
	WorkoutFrequency  *int     `json:"workout_frequency,omitempty"`
	PreferredWorkouts []string `json:"preferred_workouts,omitempty"`
	WorkUnitID        *int64   `json:"work_unit_id,omitempty"`

	OnboardingCompleted *bool `json:"onboarding_completed,omitempty"`
}

// IsZero reports whether the update carries no fields at all.
func (u ProfileUpdate) IsZero() bool {
	return u.Phone == nil && u.BirthPlace == nil && u.BirthDate == nil &&
		u.Gender == nil && u.Weight == nil && u.Height == nil && u.Age == nil &&
		u.FitnessGoal == nil && u.ActivityLevel == nil && u.WorkoutFrequency == nil &&
		u.PreferredWorkouts == nil && u.WorkUnitID == nil && u.OnboardingCompleted == nil
}

// Merge applies u to p field by field. Identity fields and Stats are never
// touched. A true->false transition of OnboardingCompleted is ignored: once
// the flag is set it stays set.
func (p *Profile) Merge(u ProfileUpdate) {
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.BirthPlace != nil {
		p.BirthPlace = *u.BirthPlace
	}
	if u.BirthDate != nil {
		p.BirthDate = *u.BirthDate
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.Weight != nil {
		p.Weight = ptr(*u.Weight)
	}
	if u.Height != nil {
		p.Height = ptr(*u.Height)
	}
	if u.Age != nil {
		p.Age = ptr(*u.Age)
	}
	if u.FitnessGoal != nil {
		p.FitnessGoal = ptr(*u.FitnessGoal)
	}
	if u.ActivityLevel != nil {
		p.ActivityLevel = ptr(*u.ActivityLevel)
	}
	if u.WorkoutFrequency != nil {
		p.WorkoutFrequency = ptr(*u.WorkoutFrequency)
	}
	if u.PreferredWorkouts != nil {
		p.PreferredWorkouts = append([]string(nil), u.PreferredWorkouts...)
	}
	if u.WorkUnitID != nil {
		p.WorkUnitID = ptr(*u.WorkUnitID)
	}
	if u.OnboardingCompleted != nil && *u.OnboardingCompleted {
		p.OnboardingCompleted = true
	}
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Weight != nil {
		c.Weight = ptr(*p.Weight)
	}
	if p.Height != nil {
		c.Height = ptr(*p.Height)
	}
	if p.Age != nil {
		c.Age = ptr(*p.Age)
	}
	if p.FitnessGoal != nil {
		c.FitnessGoal = ptr(*p.FitnessGoal)
	}
	if p.ActivityLevel != nil {
		c.ActivityLevel = ptr(*p.ActivityLevel)
	}
	if p.WorkoutFrequency != nil {
		c.WorkoutFrequency = ptr(*p.WorkoutFrequency)
	}
	if p.PreferredWorkouts != nil {
		c.PreferredWorkouts = append([]string(nil), p.PreferredWorkouts...)
	}
	if p.WorkUnitID != nil {
		c.WorkUnitID = ptr(*p.WorkUnitID)
	}
	return &c
}

func ptr[T any](v T) *T { return &v }
