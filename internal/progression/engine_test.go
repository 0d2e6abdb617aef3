package progression

import (
	"errors"
	"testing"
	"time"

	"github.com/fotokruzhok/star-cabinet-bot/types"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testUser(stars float64) types.User {
	return types.User{
		UserID:    777,
		ChatID:    777,
		FirstName: "Аня",
		Stars:     stars,
		Level:     string(DeriveLevel(stars)),
	}
}

func TestGrantStarsCrossesLevelBoundary(t *testing.T) {
	out, err := GrantStars(testUser(45), 10, types.ActivityOther, "тест", testNow)
	if err != nil {
		t.Fatalf("GrantStars: %v", err)
	}
	if out.User.Stars != 55 {
		t.Errorf("stars = %v, want 55", out.User.Stars)
	}
	if out.User.Level != string(LevelSeeker) {
		t.Errorf("level = %s, want %s", out.User.Level, LevelSeeker)
	}
	if !out.LevelChanged || out.PreviousLevel != string(LevelApprentice) {
		t.Errorf("expected transition from %s, got changed=%v prev=%s", LevelApprentice, out.LevelChanged, out.PreviousLevel)
	}
	if out.Entry.StarsAmount != 10 || out.Entry.ActivityType != types.ActivityOther {
		t.Errorf("ledger entry = %+v, want amount 10 type other", out.Entry)
	}
	if !out.Entry.CreatedAt.Equal(testNow) || !out.User.LastActive.Equal(testNow) {
		t.Error("timestamps not taken from the supplied clock")
	}
}

func TestGrantStarsIgnoresStaleStoredLevel(t *testing.T) {
	u := testUser(200)
	u.Level = string(LevelApprentice) // stale on purpose
	out, err := GrantStars(u, 1, types.ActivityQuiz, "", testNow)
	if err != nil {
		t.Fatalf("GrantStars: %v", err)
	}
	if out.User.Level != string(LevelExpert) {
		t.Errorf("level = %s, want recomputed %s", out.User.Level, LevelExpert)
	}
	if out.LevelChanged {
		t.Error("201 stars is still Знаток, no transition expected")
	}
}

func TestGrantStarsRejectsNonPositive(t *testing.T) {
	for _, amount := range []float64{0, -1, -0.5} {
		if _, err := GrantStars(testUser(10), amount, types.ActivityOther, "", testNow); !errors.Is(err, ErrNonPositiveAward) {
			t.Errorf("GrantStars(amount=%v) err = %v, want ErrNonPositiveAward", amount, err)
		}
	}
}

func TestGrantStarsRejectsUnknownUser(t *testing.T) {
	if _, err := GrantStars(types.User{}, 1, types.ActivityOther, "", testNow); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("err = %v, want ErrUnknownUser", err)
	}
}

func TestRegister(t *testing.T) {
	ch := &types.Character{ID: 3, Class: "Художник", Name: "Мечтатель", BonusType: "percent_bonus", BonusValue: "10"}

	out, err := Register(testUser(0), "Художник", ch, testNow)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !out.User.IsRegistered || out.User.Class != "Художник" || out.User.CharacterID != 3 {
		t.Errorf("user after registration = %+v", out.User)
	}
	if out.User.Stars != RegistrationBonus || out.Entry.StarsAmount != RegistrationBonus {
		t.Errorf("registration bonus = %v stars, want %v", out.User.Stars, RegistrationBonus)
	}
	if out.Entry.ActivityType != types.ActivityRegistration {
		t.Errorf("activity type = %s, want registration", out.Entry.ActivityType)
	}
}

func TestRegisterRejections(t *testing.T) {
	ch := &types.Character{ID: 3, Class: "Художник", Name: "Мечтатель"}

	registered := testUser(5)
	registered.IsRegistered = true
	registered.Class = "Художник"
	registered.CharacterID = 3
	if _, err := Register(registered, "Художник", ch, testNow); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("second registration err = %v, want ErrAlreadyRegistered", err)
	}

	if _, err := Register(testUser(0), "Фотограф", ch, testNow); !errors.Is(err, ErrInvalidCharacterSelection) {
		t.Errorf("class mismatch err = %v, want ErrInvalidCharacterSelection", err)
	}

	if _, err := Register(testUser(0), "Художник", nil, testNow); !errors.Is(err, ErrInvalidCharacterSelection) {
		t.Errorf("missing character err = %v, want ErrInvalidCharacterSelection", err)
	}
}

func TestSubmitPhotoWork(t *testing.T) {
	cases := []struct {
		name      string
		character *types.Character
		want      float64
	}{
		{"no character", nil, 3},
		{"percent bonus", &types.Character{ID: 1, BonusType: "percent_bonus", BonusValue: "50"}, 4.5},
		{"flat photo bonus", &types.Character{ID: 2, BonusType: "photo_bonus", BonusValue: "1"}, 4},
		{"inert bonus kind", &types.Character{ID: 4, BonusType: "weekly_surprise", BonusValue: "2"}, 3},
		{"malformed bonus value", &types.Character{ID: 5, BonusType: "percent_bonus", BonusValue: "десять"}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := SubmitPhotoWork(testUser(0), tc.character, "Портрет у окна", testNow)
			if err != nil {
				t.Fatalf("SubmitPhotoWork: %v", err)
			}
			if out.Entry.StarsAmount != tc.want {
				t.Errorf("award = %v, want %v", out.Entry.StarsAmount, tc.want)
			}
			if out.Entry.ActivityType != types.ActivityPhotoWork {
				t.Errorf("activity type = %s, want photo_work", out.Entry.ActivityType)
			}
		})
	}
}
