// Package progression is the reward core: star accounting, level
// derivation, quiz scoring and character bonuses. It is pure computation
// over plain records; callers load the user, invoke an operation and
// persist the returned snapshot plus ledger entry as one unit.
package progression

import (
	"strings"
	"time"

	"github.com/fotokruzhok/star-cabinet-bot/types"
)

const (
	// RegistrationBonus is the fixed award for completing registration.
	RegistrationBonus = 5.0

	// PhotoWorkReward is the flat base award per submitted photo work,
	// before character bonuses.
	PhotoWorkReward = 3.0
)

// GrantStars adds a positive star amount to the user, recomputes the level
// from the new total and produces the ledger entry to append. The stored
// level is never trusted; both the previous and the new level come from
// DeriveLevel.
func GrantStars(user types.User, amount float64, activityType types.ActivityType, description string, now time.Time) (types.GrantOutcome, error) {
	if user.UserID == 0 {
		return types.GrantOutcome{}, ErrUnknownUser
	}
	if amount <= 0 {
		return types.GrantOutcome{}, ErrNonPositiveAward
	}

	prev := DeriveLevel(user.Stars)
	user.Stars += amount
	next := DeriveLevel(user.Stars)
	user.Level = string(next)
	user.LastActive = now
	user.UpdatedAt = now

	entry := types.Activity{
		UserID:       user.UserID,
		StarsAmount:  amount,
		ActivityType: activityType,
		Description:  description,
		CreatedAt:    now,
	}

	return types.GrantOutcome{
		User:          user,
		Entry:         entry,
		LevelChanged:  next != prev,
		PreviousLevel: string(prev),
	}, nil
}

// Register completes the one-time class/character selection and grants the
// registration bonus. The character must exist and belong to the submitted
// class.
func Register(user types.User, class string, character *types.Character, now time.Time) (types.GrantOutcome, error) {
	if user.UserID == 0 {
		return types.GrantOutcome{}, ErrUnknownUser
	}
	if user.IsRegistered {
		return types.GrantOutcome{}, ErrAlreadyRegistered
	}
	class = strings.TrimSpace(class)
	if character == nil || class == "" || character.Class != class {
		return types.GrantOutcome{}, ErrInvalidCharacterSelection
	}

	user.Class = class
	user.CharacterID = character.ID
	user.IsRegistered = true

	return GrantStars(user, RegistrationBonus, types.ActivityRegistration, "Регистрация в клубе", now)
}

// SubmitPhotoWork awards the flat photo-work reward, adjusted by the
// user's character bonus when the bonus applies to creative work.
func SubmitPhotoWork(user types.User, character *types.Character, description string, now time.Time) (types.GrantOutcome, error) {
	amount := PhotoWorkReward
	if character != nil {
		effect, err := ResolveCharacterBonus(*character, types.ActivityPhotoWork)
		if err == nil {
			amount = effect.Apply(amount)
		}
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = "Фоторабота"
	}
	return GrantStars(user, amount, types.ActivityPhotoWork, description, now)
}
