package progression

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fotokruzhok/star-cabinet-bot/types"
)

// BonusEffect is the resolved outcome of a character bonus for one action.
// Apply is the identity when the bonus does not fire.
type BonusEffect struct {
	Kind       types.BonusKind
	Multiplier float64
	Additive   float64
	Active     bool
}

func noEffect(kind types.BonusKind) BonusEffect {
	return BonusEffect{Kind: kind, Multiplier: 1}
}

func (e BonusEffect) Apply(amount float64) float64 {
	if !e.Active {
		return amount
	}
	return amount*e.Multiplier + e.Additive
}

// ResolveCharacterBonus decides how a character's bonus affects a reward
// for the given activity. Only the percent and flat-additive kinds have
// wired triggers; the remaining kinds are declared in the catalog but have
// no effect until their actions exist, and resolve to ErrUnsupportedBonus
// so callers can log them.
func ResolveCharacterBonus(character types.Character, activity types.ActivityType) (BonusEffect, error) {
	kind := character.BonusKind()

	switch kind {
	case types.BonusPercent:
		// Percent bonuses boost creative-task awards only.
		if activity != types.ActivityPhotoWork {
			return noEffect(kind), nil
		}
		v, err := parseBonusNumber(character.BonusValue)
		if err != nil {
			return noEffect(kind), err
		}
		return BonusEffect{Kind: kind, Multiplier: 1 + v/100, Active: true}, nil

	case types.BonusPhoto:
		if activity != types.ActivityPhotoWork {
			return noEffect(kind), nil
		}
		v, err := parseBonusNumber(character.BonusValue)
		if err != nil {
			return noEffect(kind), err
		}
		return BonusEffect{Kind: kind, Multiplier: 1, Additive: v, Active: true}, nil

	case types.BonusSeries:
		if activity != types.ActivitySeries {
			return noEffect(kind), nil
		}
		v, err := parseBonusNumber(character.BonusValue)
		if err != nil {
			return noEffect(kind), err
		}
		return BonusEffect{Kind: kind, Multiplier: 1, Additive: v, Active: true}, nil

	case types.BonusFactStar:
		if activity != types.ActivityDailyFact {
			return noEffect(kind), nil
		}
		v, err := parseBonusNumber(character.BonusValue)
		if err != nil {
			return noEffect(kind), err
		}
		return BonusEffect{Kind: kind, Multiplier: 1, Additive: v, Active: true}, nil

	case types.BonusForgiveness, types.BonusRandom, types.BonusSecretAccess,
		types.BonusWeekly, types.BonusMiniQuest, types.BonusHint,
		types.BonusMultiplier:
		return noEffect(kind), ErrUnsupportedBonus

	default:
		return noEffect(kind), ErrUnsupportedBonus
	}
}

func parseBonusNumber(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("bonus value %q is not a number: %w", raw, err)
	}
	return v, nil
}
