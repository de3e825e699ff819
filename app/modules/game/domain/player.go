package gamedomain

import (
	"slices"

	"github.com/mk-lounge/gatherbot/app/shared/errs"
)

// Player is one participant's accumulated race results.
type Player struct {
	// Name uniquely identifies the player within a game.
	Name string
	// Tag is the team label; empty in FFA mode.
	Tag string
	// Points holds per-race scores in race order, at most TotalRaces.
	Points []int
}

func (p *Player) TotalPoint() int {
	total := 0
	for _, pt := range p.Points {
		total += pt
	}
	return total
}

func (p *Player) IsFinished() bool { return len(p.Points) == TotalRaces }

func (p *Player) RemainingRaces() int { return TotalRaces - len(p.Points) }

// AddRank records a race placement, appending its mapped score. It
// fails with AlreadyFinished once all races are recorded, before the
// rank is even validated.
func (p *Player) AddRank(rank int) error {
	if p.IsFinished() {
		return errs.AlreadyFinished()
	}
	pts, err := PointsFor(rank)
	if err != nil {
		return err
	}
	p.Points = append(p.Points, pts)
	return nil
}

// RemoveRank drops the result at index; negative indexes count from the
// end, so -1 removes the most recent result. Out-of-bounds indexes,
// including any index into an empty history, fail with InvalidRank.
func (p *Player) RemoveRank(index int) error {
	i, err := p.resolveIndex(index)
	if err != nil {
		return err
	}
	p.Points = slices.Delete(p.Points, i, i+1)
	return nil
}

// EditRank overwrites the result at index with the score for rank. The
// rank is validated before the index.
func (p *Player) EditRank(rank, index int) error {
	pts, err := PointsFor(rank)
	if err != nil {
		return err
	}
	i, err := p.resolveIndex(index)
	if err != nil {
		return err
	}
	p.Points[i] = pts
	return nil
}

func (p *Player) resolveIndex(index int) (int, error) {
	if index < 0 {
		index += len(p.Points)
	}
	if index < 0 || index >= len(p.Points) {
		return 0, errs.InvalidRank()
	}
	return index, nil
}
