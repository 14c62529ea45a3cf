package main

// MMR arithmetic, invoked only at game end.
const (
	mmrBaseDelta       = 25
	mmrStreakBonusAt3  = 5
	mmrStreakBonusAt5  = 10
	mmrMVPBonus        = 5
	mmrFeatBonus       = 2
	mmrStartingRating  = 1000
)

// MMRDelta computes one player's rating change. streak is the win streak
// going into this match; the bonus applies once it reaches 3 wins counting
// this one. MVP and feat bonuses soften a loss rather than deepening it.
func MMRDelta(won bool, streak int, mvp bool, feats int) int {
	if feats > featCap {
		feats = featCap
	}
	delta := -mmrBaseDelta
	if won {
		delta = mmrBaseDelta
		newStreak := streak + 1
		if newStreak >= 5 {
			delta += mmrStreakBonusAt5
		} else if newStreak >= 3 {
			delta += mmrStreakBonusAt3
		}
	}
	if mvp {
		delta += mmrMVPBonus
	}
	delta += feats * mmrFeatBonus
	return delta
}
