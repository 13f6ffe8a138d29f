package core

const (
	PetDragon PetType = "dragon"
	PetEagle  PetType = "eagle"
	PetWolf   PetType = "wolf"
	PetLion   PetType = "lion"
	PetTurtle PetType = "turtle"
	PetOwl    PetType = "owl"
)

type PetType string

type PetOption struct {
	Type        PetType
	Emoji       string
	Name        string
	Description string
}

var PetOptions = []PetOption{
	{Type: PetDragon, Emoji: "🐉", Name: "Dragon", Description: "Fierce and loyal, guards your treasure"},
	{Type: PetEagle, Emoji: "🦅", Name: "Eagle", Description: "Soars high, sees the big picture"},
	{Type: PetWolf, Emoji: "🐺", Name: "Wolf", Description: "Strong pack instincts, steady growth"},
	{Type: PetLion, Emoji: "🦁", Name: "Lion", Description: "Courageous, king of savings"},
	{Type: PetTurtle, Emoji: "🐢", Name: "Turtle", Description: "Slow and steady wins the race"},
	{Type: PetOwl, Emoji: "🦉", Name: "Owl", Description: "Wise investor, patient wealth"},
}

func (p PetType) Validate() error {
	for _, o := range PetOptions {
		if o.Type == p {
			return nil
		}
	}
	return ErrInvalidPetType
}

// PetEmoji returns the glyph for a pet at a level: an egg before hatching,
// a crowned species glyph at Elder.
func PetEmoji(t PetType, level int) string {
	if level == PetLevelEgg {
		return "🥚"
	}
	glyph := "🐉"
	for _, o := range PetOptions {
		if o.Type == t {
			glyph = o.Emoji
			break
		}
	}
	if level == PetLevelElder {
		return "👑" + glyph
	}
	return glyph
}

// BuiltinCauses is the fixed set of donation causes available to every kid.
var BuiltinCauses = []Cause{
	{ID: "animal-shelter", Name: "Animal Shelter", Emoji: "🐶", Description: "Help homeless pets find loving homes"},
	{ID: "food-bank", Name: "Food Bank", Emoji: "🍎", Description: "Feed hungry families in need"},
	{ID: "ocean-cleanup", Name: "Ocean Cleanup", Emoji: "🌊", Description: "Keep our oceans clean and healthy"},
	{ID: "library", Name: "Library", Emoji: "📚", Description: "Help kids discover the joy of reading"},
	{ID: "plant-trees", Name: "Plant Trees", Emoji: "🌳", Description: "Grow forests for a greener planet"},
	{ID: "kids-hospital", Name: "Kids Hospital", Emoji: "🏥", Description: "Help sick children get better"},
}

// Causes returns the built-in causes followed by the kid's custom ones.
func (k Kid) Causes() []Cause {
	out := make([]Cause, 0, len(BuiltinCauses)+len(k.Buckets.Share.CustomCauses))
	out = append(out, BuiltinCauses...)
	return append(out, k.Buckets.Share.CustomCauses...)
}

var AvatarOptions = []string{"⚔️", "🛡️", "🏆", "💎", "🦅", "🐉", "🔥", "⚡", "🌟", "👑"}
