package progression

// Level is the user's rank on the star ladder.
type Level string

const (
	LevelApprentice Level = "Ученик"
	LevelSeeker     Level = "Искатель"
	LevelExpert     Level = "Знаток"
	LevelMaster     Level = "Мастер"
	LevelMentor     Level = "Наставник"
)

type levelStep struct {
	MinStars float64
	Level    Level
}

// Inclusive lower bounds, highest matching bound wins.
var levelLadder = []levelStep{
	{400, LevelMentor},
	{300, LevelMaster},
	{150, LevelExpert},
	{50, LevelSeeker},
	{0, LevelApprentice},
}

// DeriveLevel maps an accumulated star total to a level. Total over all
// stars >= 0; negative input is out of contract and clamps to the base
// level.
func DeriveLevel(stars float64) Level {
	if stars < 0 {
		stars = 0
	}
	for _, step := range levelLadder {
		if stars >= step.MinStars {
			return step.Level
		}
	}
	return LevelApprentice
}

// NextLevelAt reports the next level on the ladder and how many stars are
// still missing. ok is false at the top of the ladder.
func NextLevelAt(stars float64) (next Level, missing float64, ok bool) {
	if stars < 0 {
		stars = 0
	}
	for i := len(levelLadder) - 1; i >= 0; i-- {
		if stars < levelLadder[i].MinStars {
			return levelLadder[i].Level, levelLadder[i].MinStars - stars, true
		}
	}
	return "", 0, false
}
