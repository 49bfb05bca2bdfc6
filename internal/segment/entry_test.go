package segment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChooseEntrySingleAlwaysGroupsIntoSharedConstant(t *testing.T) {
	name, isEntry := ChooseEntry("single", EntryInput{})
	require.True(t, isEntry)
	require.Equal(t, EntrySegmentsConstant, name)
}

func TestChooseEntryHookNeverGroups(t *testing.T) {
	name, isEntry := ChooseEntry("hook", EntryInput{HasCaptures: true})
	require.False(t, isEntry)
	require.Empty(t, name)
}

func TestChooseEntryComponentGroupsByFirstStackToken(t *testing.T) {
	name, isEntry := ChooseEntry("component", EntryInput{
		Origin: "src/app.tsx", FirstStackToken: "App", HasFirstStackToken: true,
	})
	require.True(t, isEntry)
	require.Equal(t, "src/app.tsx_entry_App", name)
}

func TestChooseEntryComponentFallsBackWithoutStackToken(t *testing.T) {
	name, isEntry := ChooseEntry("component", EntryInput{})
	require.True(t, isEntry)
	require.Equal(t, EntrySegmentsConstant, name)
}

func TestChooseEntrySmartWithoutCapturesNeverGroups(t *testing.T) {
	name, isEntry := ChooseEntry("smart", EntryInput{
		Kind: SegmentEvent, FirstStackToken: "App", HasFirstStackToken: true,
	})
	require.False(t, isEntry)
	require.Empty(t, name)
}

func TestChooseEntrySmartWithCapturesGroupsByFirstStackToken(t *testing.T) {
	name, isEntry := ChooseEntry("smart", EntryInput{
		HasCaptures: true, Origin: "src/app.tsx", FirstStackToken: "App", HasFirstStackToken: true,
	})
	require.True(t, isEntry)
	require.Equal(t, "src/app.tsx_entry_App", name)
}

func TestChooseEntrySmartWithCapturesButNoStackTokenDoesNotGroup(t *testing.T) {
	name, isEntry := ChooseEntry("smart", EntryInput{HasCaptures: true})
	require.False(t, isEntry)
	require.Empty(t, name)
}

func TestChooseEntryUnknownStrategyNeverGroups(t *testing.T) {
	name, isEntry := ChooseEntry("bogus", EntryInput{HasCaptures: true})
	require.False(t, isEntry)
	require.Empty(t, name)
}
