package progression

import "errors"

var (
	// ErrAlreadyRegistered: registration is a one-shot, a second attempt
	// must not overwrite the first selection.
	ErrAlreadyRegistered = errors.New("user already registered")

	// ErrInvalidCharacterSelection: unknown character id, or the character
	// belongs to a different class than the one submitted.
	ErrInvalidCharacterSelection = errors.New("invalid character selection")

	// ErrNonPositiveAward: GrantStars only accepts positive amounts.
	ErrNonPositiveAward = errors.New("star award must be positive")

	// ErrUnknownUser: reward operations require an existing user record.
	ErrUnknownUser = errors.New("unknown user")

	// ErrUnsupportedBonus: the bonus kind has no triggering action wired
	// yet. Not a failure; callers log it and move on.
	ErrUnsupportedBonus = errors.New("bonus type has no effect yet")
)
