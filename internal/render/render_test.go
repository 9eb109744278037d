package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/soullink/internal/domain"
)

var (
	sectionLine = strings.Repeat("=", 64) + "\n"
	resultLine  = strings.Repeat("-", 32) + "\n"
)

func pokeTeam(t *testing.T, specs ...string) domain.Team[domain.Pokemon] {
	t.Helper()
	var team domain.Team[domain.Pokemon]
	for _, s := range specs {
		name, typ, ok := strings.Cut(s, ":")
		require.True(t, ok, s)
		p, err := domain.NewPokemon(name, typ)
		require.NoError(t, err)
		require.NoError(t, team.Append(p))
	}
	return team
}

func pokePair(t *testing.T, left, right []string) domain.TeamPair[domain.Pokemon] {
	return domain.TeamPair[domain.Pokemon]{pokeTeam(t, left...), pokeTeam(t, right...)}
}

func slot(t *testing.T, typ string, names ...string) domain.Slot {
	t.Helper()
	s := domain.Slot{}
	for _, n := range names {
		p, err := domain.NewPokemon(n, typ)
		require.NoError(t, err)
		s.Type = p.Type()
		s.Members = append(s.Members, p)
	}
	return s
}

func slotPair(t *testing.T, left, right []domain.Slot) domain.TeamPair[domain.Slot] {
	t.Helper()
	a, err := domain.NewTeam(left...)
	require.NoError(t, err)
	b, err := domain.NewTeam(right...)
	require.NoError(t, err)
	return domain.TeamPair[domain.Slot]{a, b}
}

func TestTeams_Empty(t *testing.T) {
	assert.Equal(t, "", Teams(nil, DefaultOptions()))
	assert.Equal(t, "", TypeTeams([]domain.TeamPair[domain.Slot]{}, DefaultOptions()))
}

func TestTeams_SingleResult(t *testing.T) {
	got := Teams([]domain.TeamPair[domain.Pokemon]{
		pokePair(t, []string{"A:Fire"}, []string{"B:Water"}),
	}, Options{})

	empties := strings.Repeat("\tempty\n", 5)
	want := "Pokemon Team Sizes: 1\n" + sectionLine +
		"Team 1\nTeam Size: 1\n\tA: Fire\n" + empties + "\n" +
		"Team 2\nTeam Size: 1\n\tB: Water\n" + empties + "\n" +
		resultLine +
		"Total Count: 1\n" + resultLine
	assert.Equal(t, want, got)
}

func TestTeams_GroupsBySizeDescending(t *testing.T) {
	results := []domain.TeamPair[domain.Pokemon]{
		pokePair(t, []string{"X:Ice"}, []string{"Y:Dark"}),
		pokePair(t, []string{"A:Fire", "C:Grass"}, []string{"B:Water", "D:Electric"}),
		pokePair(t, []string{"P:Rock"}, []string{"Q:Bug"}),
	}
	got := Teams(results, Options{Players: [2]string{"Ray", "Shen"}})

	// 就地排序，且同大小保持生成顺序。
	assert.Equal(t, 2, results[0].Size())
	assert.Equal(t, "X", results[1][0].At(0).Name())
	assert.Equal(t, "P", results[2][0].At(0).Name())

	assert.Equal(t, 2, strings.Count(got, "Pokemon Team Sizes:"))
	assert.True(t, strings.HasPrefix(got, "Pokemon Team Sizes: 2\n"))
	assert.Contains(t, got, "Total Count: 1\n"+resultLine+"Pokemon Team Sizes: 1\n")
	assert.True(t, strings.HasSuffix(got, "Total Count: 2\n"+resultLine))
	assert.Contains(t, got, "Ray\nTeam Size: 2\n\tA: Fire\n\tC: Grass\n")
	assert.Contains(t, got, "Shen\nTeam Size: 2\n\tB: Water\n\tD: Electric\n")
}

func TestTeams_MinSizeTruncatesAfterFirstSection(t *testing.T) {
	results := []domain.TeamPair[domain.Pokemon]{
		pokePair(t, []string{"A:Fire", "C:Grass"}, []string{"B:Water", "D:Electric"}),
		pokePair(t, []string{"X:Ice"}, []string{"Y:Dark"}),
	}

	got := Teams(results, Options{MinSize: 2})
	assert.Equal(t, 1, strings.Count(got, "Pokemon Team Sizes:"))
	assert.True(t, strings.HasSuffix(got, "Total Count: 1\n"+resultLine))
	assert.NotContains(t, got, "X: Ice")

	// 第一段总是输出，即使它本身小于 MinSize。
	got = Teams(results, Options{MinSize: 6})
	assert.True(t, strings.HasPrefix(got, "Pokemon Team Sizes: 2\n"))
	assert.NotContains(t, got, "Pokemon Team Sizes: 1")
}

func TestTypeTeams_Layout(t *testing.T) {
	results := []domain.TeamPair[domain.Slot]{
		slotPair(t,
			[]domain.Slot{slot(t, "Fire", "A", "C"), slot(t, "Grass", "E")},
			[]domain.Slot{slot(t, "Water", "B", "D"), slot(t, "Electric", "F")},
		),
	}
	got := TypeTeams(results, Options{Players: [2]string{"Ray", "Shen"}})

	want := "Pokemon Team Sizes: 2\n" + sectionLine +
		"Ray\n" +
		"Fire    : A          | C         \n" +
		"Grass   : E         \n" +
		"\nTeam Size: 2\nTeam Count: 2\n\n" +
		"Shen\n" +
		"Water   : B          | D         \n" +
		"Electric: F         \n" +
		"\nTeam Size: 2\nTeam Count: 2\n\n" +
		resultLine +
		"Total Possible Teams: 2\n" +
		"Total Unique Team Types: 1\n" +
		resultLine
	assert.Equal(t, want, got)
}

func TestTypeTeams_SectionTotals(t *testing.T) {
	results := []domain.TeamPair[domain.Slot]{
		slotPair(t, []domain.Slot{slot(t, "Fire", "A", "C", "G")}, []domain.Slot{slot(t, "Water", "B", "D", "H")}),
		slotPair(t,
			[]domain.Slot{slot(t, "Fire", "A", "C"), slot(t, "Grass", "E")},
			[]domain.Slot{slot(t, "Water", "B", "D"), slot(t, "Electric", "F")},
		),
		slotPair(t, []domain.Slot{slot(t, "Ice", "I", "J")}, []domain.Slot{slot(t, "Dark", "K", "L")}),
	}
	got := TypeTeams(results, Options{NameWidth: 1, TypeWidth: 1})

	assert.Contains(t, got, "Fire: A | C\nGrass: E\n")
	assert.Contains(t, got, "Total Possible Teams: 2\nTotal Unique Team Types: 1\n"+resultLine+"Pokemon Team Sizes: 1\n")
	assert.True(t, strings.HasSuffix(got, "Total Possible Teams: 5\nTotal Unique Team Types: 2\n"+resultLine))
}

func TestTeamCount_UsesPlayerOneSlots(t *testing.T) {
	r := slotPair(t,
		[]domain.Slot{slot(t, "Fire", "A", "C"), slot(t, "Grass", "E", "G", "I")},
		[]domain.Slot{slot(t, "Water", "B", "D"), slot(t, "Electric", "F", "H", "J")},
	)
	assert.Equal(t, 6, TeamCount(r))
}

func TestVisible_MatchesMinSizeCutoff(t *testing.T) {
	results := []domain.TeamPair[domain.Pokemon]{
		pokePair(t, []string{"X:Ice"}, []string{"Y:Dark"}),
		pokePair(t, []string{"A:Fire", "C:Grass"}, []string{"B:Water", "D:Electric"}),
	}

	assert.Len(t, Visible(results, 0), 2)
	got := Visible(results, 2)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Size())

	// 第一段总是保留。
	assert.Len(t, Visible(results, 6), 1)
	assert.Empty(t, Visible([]domain.TeamPair[domain.Pokemon]{}, 3))
}
