package gamedomain

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mk-lounge/gatherbot/app/shared/errs"
)

func rosterNames(t *testing.T) []string {
	t.Helper()
	faker := gofakeit.New(7)
	names := make([]string, 0, PlayerCount)
	for len(names) < PlayerCount {
		name := faker.Gamertag()
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

func TestNewGame(t *testing.T) {
	tests := []struct {
		name      string
		format    int
		wantTeams int
	}{
		{name: "ffa", format: 1, wantTeams: 12},
		{name: "2v2", format: 2, wantTeams: 6},
		{name: "3v3", format: 3, wantTeams: 4},
		{name: "4v4", format: 4, wantTeams: 3},
		{name: "6v6", format: 6, wantTeams: 2},
	}

	names := rosterNames(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGame(tt.format, names, rand.New(rand.NewSource(1)))
			require.NoError(t, err)

			require.Len(t, g.Teams, tt.wantTeams)
			assert.Equal(t, tt.format, g.Format())
			assert.Equal(t, tt.format == 1, g.IsFFA())
			assert.False(t, g.IsFinished())

			var all []string
			for i, team := range g.Teams {
				require.Len(t, team.Players, tt.format)
				if tt.format == 1 {
					assert.Empty(t, team.Tag)
				} else {
					assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}[i], team.Tag)
				}
				for _, p := range team.Players {
					assert.Empty(t, p.Points)
					assert.Equal(t, team.Tag, p.Tag)
					all = append(all, p.Name)
				}
			}
			assert.ElementsMatch(t, names, all)
		})
	}
}

func TestNewGameShuffleIsSeeded(t *testing.T) {
	roster := rosterNames(t)

	a, err := NewGame(2, roster, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := NewGame(2, roster, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	assert.Equal(t, names(a.Players()), names(b.Players()))
}

func TestNewGameValidation(t *testing.T) {
	names := rosterNames(t)
	rng := rand.New(rand.NewSource(1))

	_, err := NewGame(2, names[:11], rng)
	assert.ErrorIs(t, err, errs.KindInvalidPlayerNum)

	_, err = NewGame(5, names, rng)
	assert.Error(t, err)
}

func TestGetPlayer(t *testing.T) {
	names := rosterNames(t)
	names[3] = "Alice"

	g, err := NewGame(2, names, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	p, err := g.GetPlayer("Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.Empty(t, p.Points)
	assert.Contains(t, []string{"A", "B", "C", "D", "E", "F"}, p.Tag)

	_, err = g.GetPlayer("nobody")
	assert.ErrorIs(t, err, errs.KindNotParticipant)
}

func TestRankingDescendingWithStableTies(t *testing.T) {
	g := &Game{Teams: MakeTeams([]*Player{
		{Name: "a", Tag: "A", Points: []int{10}},
		{Name: "b", Tag: "A", Points: []int{15}},
		{Name: "c", Tag: "B", Points: []int{10}},
		{Name: "d", Tag: "B", Points: []int{1}},
	})}

	var got []string
	for _, p := range g.Ranking() {
		got = append(got, p.Name)
	}
	// b leads; a and c tie at 10 and keep stored order.
	assert.Equal(t, []string{"b", "a", "c", "d"}, got)
}

func TestGameFinishedWhenAllPlayersFinish(t *testing.T) {
	names := rosterNames(t)
	g, err := NewGame(6, names, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	for _, p := range g.Players() {
		for range TotalRaces {
			require.NoError(t, p.AddRank(4))
		}
	}
	assert.True(t, g.IsFinished())
}

func TestRankedTeams(t *testing.T) {
	g := &Game{Teams: MakeTeams([]*Player{
		{Name: "a", Tag: "A", Points: []int{1}},
		{Name: "b", Tag: "B", Points: []int{15}},
	})}

	ranked := g.RankedTeams()
	require.Len(t, ranked, 2)
	assert.Equal(t, "B", ranked[0].Tag)
	// The stored team order stays untouched.
	assert.Equal(t, "A", g.Teams[0].Tag)
}
