package types

import "strings"

type ActivityType string

const (
	ActivityRegistration ActivityType = "registration"
	ActivityQuiz         ActivityType = "quiz"
	ActivityPhotoWork    ActivityType = "photo_work"
	ActivityComment      ActivityType = "comment"
	ActivitySeries       ActivityType = "series"
	ActivityDailyFact    ActivityType = "daily_fact"
	ActivityOther        ActivityType = "other"
)

// BonusKind is the canonical set of character bonus types. The seed data
// carries several historical spellings for the same kind; NormalizeBonusKind
// folds them into one value.
type BonusKind string

const (
	BonusPercent      BonusKind = "percent_bonus"
	BonusForgiveness  BonusKind = "forgiveness"
	BonusRandom       BonusKind = "random_bonus"
	BonusSecretAccess BonusKind = "secret_access"
	BonusSeries       BonusKind = "series_bonus"
	BonusPhoto        BonusKind = "photo_bonus"
	BonusWeekly       BonusKind = "weekly_bonus"
	BonusMiniQuest    BonusKind = "mini_quest"
	BonusHint         BonusKind = "hint"
	BonusFactStar     BonusKind = "fact_star"
	BonusMultiplier   BonusKind = "multiplier"
	BonusUnknown      BonusKind = "unknown"
)

func NormalizeBonusKind(raw string) BonusKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "percent_bonus":
		return BonusPercent
	case "forgiveness":
		return BonusForgiveness
	case "random_bonus", "random_gift":
		return BonusRandom
	case "secret_access", "secret_advice":
		return BonusSecretAccess
	case "series_bonus":
		return BonusSeries
	case "photo_bonus":
		return BonusPhoto
	case "weekly_bonus", "weekly_surprise":
		return BonusWeekly
	case "mini_quest":
		return BonusMiniQuest
	case "hint", "quiz_hint":
		return BonusHint
	case "fact_star":
		return BonusFactStar
	case "multiplier", "streak_multiplier":
		return BonusMultiplier
	default:
		return BonusUnknown
	}
}

type PostStatus string

const (
	PostStatusQueued    PostStatus = "queued"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)
