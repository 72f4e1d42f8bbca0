package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_Merge_PartialUpdateKeepsUnrelatedFields(t *testing.T) {
	height := 180.0
	p := &Profile{
		ID:       1,
		Username: "budi",
		Height:   &height,
	}

	weight := 70.0
	p.Merge(ProfileUpdate{Weight: &weight})

	require.NotNil(t, p.Weight)
	require.NotNil(t, p.Height)
	assert.Equal(t, 70.0, *p.Weight)
	assert.Equal(t, 180.0, *p.Height)
	assert.False(t, p.OnboardingCompleted)
	assert.Equal(t, "budi", p.Username)
}

func TestProfile_Merge_OnboardingCompletedIsSticky(t *testing.T) {
	p := &Profile{OnboardingCompleted: true}

	f := false
	p.Merge(ProfileUpdate{OnboardingCompleted: &f})

	assert.True(t, p.OnboardingCompleted, "completed flag must never be reset")
}

func TestProfile_Merge_SetsOnboardingCompleted(t *testing.T) {
	p := &Profile{}
	done := true
	p.Merge(ProfileUpdate{OnboardingCompleted: &done})
	assert.True(t, p.OnboardingCompleted)
}

func TestProfile_Clone_IsDeep(t *testing.T) {
	w := 70.0
	p := &Profile{Weight: &w, PreferredWorkouts: []string{"yoga"}}

	c := p.Clone()
	*c.Weight = 80.0
	c.PreferredWorkouts[0] = "running"

	assert.Equal(t, 70.0, *p.Weight)
	assert.Equal(t, "yoga", p.PreferredWorkouts[0])
}

func TestProfileUpdate_IsZero(t *testing.T) {
	assert.True(t, ProfileUpdate{}.IsZero())

	age := 30
	assert.False(t, ProfileUpdate{Age: &age}.IsZero())
}
