package types

type Character struct {
	ID          int64  `json:"id"`
	Class       string `json:"class"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BonusType   string `json:"bonus_type"`
	BonusValue  string `json:"bonus_value"`
}

func (c Character) BonusKind() BonusKind {
	return NormalizeBonusKind(c.BonusType)
}

type QuizQuestion struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

type Quiz struct {
	ID        int64
	Title     string
	Questions []QuizQuestion
}

// CatalogStore serves the immutable reference data seeded by migrations.
// Nothing in the application writes through it.
type CatalogStore interface {
	GetCharacter(id int64) (*Character, error)
	ListCharacters(class string) ([]Character, error)
	ListClasses() ([]string, error)

	GetQuiz(id int64) (*Quiz, error)
	ListQuizzes() ([]Quiz, error)
}
