package core

// Ranks, pet levels and share badges, each ordered by ascending threshold.
// Thresholds are inclusive.

type RankTier struct {
	Rank        int
	Name        string
	Emoji       string
	MinXP       int
	Description string
}

type PetLevelTier struct {
	Level      int
	Name       string
	Emoji      string
	MinBalance Money
}

type BadgeTier struct {
	Type        string
	Name        string
	Emoji       string
	Threshold   Money
	Description string
}

const (
	MinRank = 1
	MaxRank = 7

	PetLevelEgg   = 0
	PetLevelElder = 5

	DefaultInterestRate = 5.0
	MinInterestRate     = 1.0
	MaxInterestRate     = 20.0
)

// XP rewards are per action, never per dollar.
const (
	XPAllocateToBucket = 1
	XPPetLevelUp       = 10
	XPCompleteGoal     = 10
	XPDonation         = 10
	XPEarnInterest     = 1
)

var WarriorRanks = []RankTier{
	{Rank: 1, Name: "Novice Warrior", Emoji: "⚔️", MinXP: 0, Description: "Just starting your quest"},
	{Rank: 2, Name: "Bronze Warrior", Emoji: "🥉", MinXP: 100, Description: "Learning the basics"},
	{Rank: 3, Name: "Silver Warrior", Emoji: "🥈", MinXP: 300, Description: "Building good habits"},
	{Rank: 4, Name: "Gold Warrior", Emoji: "🥇", MinXP: 600, Description: "Strong money skills"},
	{Rank: 5, Name: "Platinum Warrior", Emoji: "💎", MinXP: 1000, Description: "Expert level"},
	{Rank: 6, Name: "Diamond Warrior", Emoji: "💠", MinXP: 2000, Description: "Master of money"},
	{Rank: 7, Name: "Legendary Warrior", Emoji: "👑", MinXP: 4000, Description: "Elite steward"},
}

var PetLevels = []PetLevelTier{
	{Level: 0, Name: "Egg", Emoji: "🥚", MinBalance: Dollars(0)},
	{Level: 1, Name: "Baby", Emoji: "🐣", MinBalance: Dollars(25)},
	{Level: 2, Name: "Young", Emoji: "🐤", MinBalance: Dollars(100)},
	{Level: 3, Name: "Teen", Emoji: "🦅", MinBalance: Dollars(250)},
	{Level: 4, Name: "Adult", Emoji: "🦅", MinBalance: Dollars(500)},
	{Level: 5, Name: "Elder", Emoji: "👑", MinBalance: Dollars(1000)},
}

var ShareBadges = []BadgeTier{
	{Type: "community-starter", Name: "Community Starter", Emoji: "🌱", Threshold: Dollars(10), Description: "First steps to making a difference"},
	{Type: "community-helper", Name: "Community Helper", Emoji: "🤝", Threshold: Dollars(25), Description: "Building connections through giving"},
	{Type: "community-builder", Name: "Community Builder", Emoji: "🏘️", Threshold: Dollars(50), Description: "A pillar of your community"},
	{Type: "community-champion", Name: "Community Champion", Emoji: "🌟", Threshold: Dollars(100), Description: "A true leader in giving back"},
}
