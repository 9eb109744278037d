package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeam_AppendRejectsWhenFull(t *testing.T) {
	var team Team[int]
	for i := 0; i < MaxTeamSize; i++ {
		require.NoError(t, team.Append(i))
	}
	assert.True(t, team.Full())
	assert.ErrorIs(t, team.Append(7), ErrTeamFull)
	assert.ErrorIs(t, team.Insert(0, 7), ErrTeamFull)
	assert.Equal(t, MaxTeamSize, team.Len())
}

func TestNewTeam_TooMany(t *testing.T) {
	_, err := NewTeam(1, 2, 3, 4, 5, 6, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTeamFull))

	team, err := NewTeam(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, team.Members())
}

func TestTeam_InsertPopAndSlice(t *testing.T) {
	team, err := NewTeam("a", "c")
	require.NoError(t, err)

	require.NoError(t, team.Insert(1, "b"))
	require.NoError(t, team.Insert(3, "d"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, team.Members())
	assert.Error(t, team.Insert(9, "x"))

	v, ok := team.Pop()
	require.True(t, ok)
	assert.Equal(t, "d", v)
	assert.Equal(t, []string{"b", "c"}, team.Slice(1, 3).Members())

	var empty Team[string]
	_, ok = empty.Pop()
	assert.False(t, ok)
}

func TestTeam_CloneIsSnapshot(t *testing.T) {
	var team Team[int]
	require.NoError(t, team.Append(1))
	require.NoError(t, team.Append(2))

	snap := team.Clone()
	team.Pop()
	require.NoError(t, team.Append(9))

	assert.Equal(t, []int{1, 2}, snap.Members())
	assert.Equal(t, []int{1, 9}, team.Members())
}

func TestTeam_StringPadsWithEmpty(t *testing.T) {
	team, err := NewTeam(MustPokemon("Charmander", "Fire"), MustPokemon("Squirtle", "Water"))
	require.NoError(t, err)

	want := "Team Size: 2\n" +
		"\tCharmander: Fire\n" +
		"\tSquirtle: Water\n" +
		"\tempty\n\tempty\n\tempty\n\tempty\n"
	assert.Equal(t, want, team.String())
}

func TestTeamPair_Size(t *testing.T) {
	a, _ := NewTeam(Fire, Water)
	b, _ := NewTeam(Grass, Ice)
	assert.Equal(t, 2, TeamPair[Type]{a, b}.Size())
}
