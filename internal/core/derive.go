package core

import (
	"github.com/shopspring/decimal"
)

// RankForXP returns the highest rank whose MinXP is <= xp.
func RankForXP(xp int) int {
	for i := len(WarriorRanks) - 1; i >= 0; i-- {
		if xp >= WarriorRanks[i].MinXP {
			return WarriorRanks[i].Rank
		}
	}
	return MinRank
}

// RankInfo returns the tier for a rank, falling back to the first tier.
func RankInfo(rank int) RankTier {
	for _, r := range WarriorRanks {
		if r.Rank == rank {
			return r
		}
	}
	return WarriorRanks[0]
}

// NextRankXP is the XP needed for the rank after the given one. At the top
// rank it returns the top rank's own minimum.
func NextRankXP(rank int) int {
	for _, r := range WarriorRanks {
		if r.Rank == rank+1 {
			return r.MinXP
		}
	}
	return WarriorRanks[len(WarriorRanks)-1].MinXP
}

func CurrentRankMinXP(rank int) int {
	for _, r := range WarriorRanks {
		if r.Rank == rank {
			return r.MinXP
		}
	}
	return 0
}

// PetLevelForBalance maps the effective balance max(0, balance-baseline) to a level.
func PetLevelForBalance(balance, baseline Money) int {
	eff := balance.Sub(baseline)
	if eff.IsNegative() {
		eff = Money{}
	}
	for i := len(PetLevels) - 1; i >= 0; i-- {
		if eff.AtLeast(PetLevels[i].MinBalance) {
			return PetLevels[i].Level
		}
	}
	return PetLevelEgg
}

// NextPetLevelThreshold is the minimum effective balance of the next level;
// Elder returns its own threshold.
func NextPetLevelThreshold(level int) Money {
	if level >= PetLevelElder || level < PetLevelEgg {
		return PetLevels[PetLevelElder].MinBalance
	}
	return PetLevels[level+1].MinBalance
}

func PetLevelName(level int) string {
	if level < 0 || level >= len(PetLevels) {
		return PetLevels[0].Name
	}
	return PetLevels[level].Name
}

// BadgesCrossed returns the share badges whose threshold lies in (oldTotal, newTotal].
func BadgesCrossed(oldTotal, newTotal Money) []BadgeTier {
	var out []BadgeTier
	for _, b := range ShareBadges {
		if oldTotal.LessThan(b.Threshold) && newTotal.AtLeast(b.Threshold) {
			out = append(out, b)
		}
	}
	return out
}

// BadgesEarned returns every share badge reached by total.
func BadgesEarned(total Money) []BadgeTier {
	var out []BadgeTier
	for _, b := range ShareBadges {
		if total.AtLeast(b.Threshold) {
			out = append(out, b)
		}
	}
	return out
}

var twelveHundred = decimal.NewFromInt(1200)

// MonthlyInterest computes balance * rate/12/100 rounded half away from zero
// to the cent.
func MonthlyInterest(balance Money, ratePercent float64) Money {
	if !balance.IsPositive() || ratePercent <= 0 {
		return Money{}
	}
	interest := decimal.NewFromInt(balance.Cents).
		Mul(decimal.NewFromFloat(ratePercent)).
		Div(twelveHundred).
		Round(0)
	return Money{Cents: interest.IntPart()}
}

// Progress is a display-ready summary of a kid's rank and pet growth.
type Progress struct {
	Rank              RankTier `json:"rank"`
	TotalXP           int      `json:"totalXP"`
	XPIntoRank        int      `json:"xpIntoRank"`
	XPForNextRank     int      `json:"xpForNextRank"`
	PetLevel          int      `json:"petLevel"`
	PetLevelName      string   `json:"petLevelName"`
	EffectiveSavings  Money    `json:"effectiveSavings"`
	NextPetThreshold  Money    `json:"nextPetThreshold"`
	NextBadge         *string  `json:"nextBadge"`
	NextBadgeRequires Money    `json:"nextBadgeRequires"`
}

// ProgressFor derives the progress view of a kid. It never reads the cached
// rank, only TotalXP.
func ProgressFor(k Kid) Progress {
	rank := RankForXP(k.TotalXP)
	minXP := CurrentRankMinXP(rank)
	p := Progress{
		Rank:             RankInfo(rank),
		TotalXP:          k.TotalXP,
		XPIntoRank:       k.TotalXP - minXP,
		XPForNextRank:    NextRankXP(rank) - minXP,
		EffectiveSavings: k.EffectiveSavings(),
	}
	if k.CurrentPet != nil {
		p.PetLevel = k.CurrentPet.Level
	} else {
		p.PetLevel = PetLevelForBalance(k.Buckets.Save.Balance, k.Buckets.Save.Baseline)
	}
	p.PetLevelName = PetLevelName(p.PetLevel)
	p.NextPetThreshold = NextPetLevelThreshold(p.PetLevel)
	for _, b := range ShareBadges {
		if !k.HasBadge(b.Type) {
			t := b.Type
			p.NextBadge = &t
			p.NextBadgeRequires = b.Threshold.Sub(k.Buckets.Share.TotalGiven)
			if p.NextBadgeRequires.IsNegative() {
				p.NextBadgeRequires = Money{}
			}
			break
		}
	}
	return p
}
