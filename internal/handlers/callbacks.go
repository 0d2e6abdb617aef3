package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/fotokruzhok/star-cabinet-bot/internal/contextkeys"
	"github.com/fotokruzhok/star-cabinet-bot/internal/messages"
	"github.com/fotokruzhok/star-cabinet-bot/internal/progression"
	"github.com/fotokruzhok/star-cabinet-bot/pkg/logger"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

func (bh *Handlers) HandleClickButton(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User) {
	if update.CallbackQuery == nil {
		return
	}
	data, _ := contextkeys.GetCallbackData(ctx)
	if data == "" {
		data = update.CallbackQuery.Data
	}
	data = strings.TrimSpace(data)
	chatID := getChatIDFromUpdate(update)
	if chatID == 0 {
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		return
	}

	switch {
	case strings.HasPrefix(data, "reg_class:"):
		bh.handleClassChosen(ctx, b, chatID, user, strings.TrimPrefix(data, "reg_class:"))
	case strings.HasPrefix(data, "reg_char:"):
		bh.handleCharacterChosen(ctx, b, chatID, user, strings.TrimPrefix(data, "reg_char:"))
	case strings.HasPrefix(data, "quiz_start:"):
		bh.handleQuizStart(ctx, b, chatID, user, strings.TrimPrefix(data, "quiz_start:"))
	case strings.HasPrefix(data, "quiz_ans:"):
		bh.handleQuizAnswer(ctx, b, chatID, user, strings.TrimPrefix(data, "quiz_ans:"))
	default:
		logger.WithFields(map[string]interface{}{"data": data}).Warn("unknown callback")
	}
	bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
}

func (bh *Handlers) handleClassChosen(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, class string) {
	if user.IsRegistered {
		bh.send(ctx, b, chatID, messages.AlreadyRegistered())
		return
	}

	characters, err := bh.catalog.ListCharacters(class)
	if err != nil || len(characters) == 0 {
		logger.Errorf("characters for class %q: %v", class, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}

	err = bh.state.SetRegistration(&types.RegistrationState{
		UserID:      user.UserID,
		ChosenClass: class,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		logger.Errorf("save registration state: %v", err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(characters))
	for _, c := range characters {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: c.Name, CallbackData: "reg_char:" + strconv.FormatInt(c.ID, 10)},
		})
	}
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        messages.RegistrationChooseCharacter(class),
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		logger.Errorf("send character choice: %v", err)
	}
}

func (bh *Handlers) handleCharacterChosen(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, rawID string) {
	characterID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		bh.send(ctx, b, chatID, messages.InvalidCharacterSelection())
		return
	}

	regState, err := bh.state.GetRegistration(user.UserID)
	if err != nil {
		logger.Errorf("registration state for %d: %v", user.UserID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}
	if regState == nil || regState.ChosenClass == "" {
		// Expired dialogue, start over.
		bh.sendClassChoice(ctx, b, chatID)
		return
	}

	out, err := bh.users.RegisterUser(user.UserID, regState.ChosenClass, characterID)
	switch {
	case errors.Is(err, progression.ErrAlreadyRegistered):
		bh.send(ctx, b, chatID, messages.AlreadyRegistered())
		return
	case errors.Is(err, progression.ErrInvalidCharacterSelection):
		bh.send(ctx, b, chatID, messages.InvalidCharacterSelection())
		return
	case err != nil:
		logger.Errorf("register user %d: %v", user.UserID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}

	if err := bh.state.ClearRegistration(user.UserID); err != nil {
		logger.Errorf("clear registration state: %v", err)
	}

	character, err := bh.catalog.GetCharacter(characterID)
	if err != nil {
		logger.Errorf("character %d after registration: %v", characterID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}
	bh.notifyOutcome(ctx, b, chatID, out, messages.RegistrationDone(out, character))
}

func (bh *Handlers) sendQuizList(ctx context.Context, b *bot.Bot, chatID int64) {
	quizzes, err := bh.catalog.ListQuizzes()
	if err != nil {
		logger.Errorf("list quizzes: %v", err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}
	if len(quizzes) == 0 {
		bh.send(ctx, b, chatID, messages.QuizNoQuizzes())
		return
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(quizzes))
	for _, q := range quizzes {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: q.Title, CallbackData: "quiz_start:" + strconv.FormatInt(q.ID, 10)},
		})
	}
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        messages.QuizList(),
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		logger.Errorf("send quiz list: %v", err)
	}
}

func (bh *Handlers) handleQuizStart(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, rawID string) {
	quizID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return
	}

	attemptNow, err := bh.state.GetQuizAttempt(user.UserID)
	if err != nil {
		logger.Errorf("quiz attempt for %d: %v", user.UserID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}
	if attemptNow != nil {
		bh.send(ctx, b, chatID, messages.QuizAlreadyRunning())
		return
	}

	quiz, err := bh.catalog.GetQuiz(quizID)
	if err != nil {
		logger.Errorf("quiz %d: %v", quizID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}
	if len(quiz.Questions) == 0 {
		bh.send(ctx, b, chatID, messages.QuizNoQuizzes())
		return
	}

	attempt := &types.QuizAttempt{
		ID:        uuid.NewString(),
		UserID:    user.UserID,
		QuizID:    quiz.ID,
		Answers:   []int{},
		NextIndex: 0,
		CreatedAt: time.Now().UTC(),
	}
	if err := bh.state.SetQuizAttempt(attempt); err != nil {
		logger.Errorf("save quiz attempt: %v", err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}

	bh.askQuizQuestion(ctx, b, chatID, quiz, 0)
}

func (bh *Handlers) askQuizQuestion(ctx context.Context, b *bot.Bot, chatID int64, quiz *types.Quiz, index int) {
	question := quiz.Questions[index]
	rows := make([][]models.InlineKeyboardButton, 0, len(question.Options))
	for i, option := range question.Options {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: option, CallbackData: "quiz_ans:" + strconv.Itoa(index) + ":" + strconv.Itoa(i)},
		})
	}
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        messages.QuizQuestion(quiz.Title, index, len(quiz.Questions), question.Prompt),
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		logger.Errorf("send quiz question: %v", err)
	}
}

func (bh *Handlers) handleQuizAnswer(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, payload string) {
	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 {
		return
	}
	questionIndex, err1 := strconv.Atoi(parts[0])
	optionIndex, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return
	}

	attempt, err := bh.state.GetQuizAttempt(user.UserID)
	if err != nil {
		logger.Errorf("quiz attempt for %d: %v", user.UserID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}
	if attempt == nil {
		bh.sendQuizList(ctx, b, chatID)
		return
	}
	// Stale taps on an already answered question are dropped.
	if questionIndex != attempt.NextIndex {
		return
	}

	quiz, err := bh.catalog.GetQuiz(attempt.QuizID)
	if err != nil {
		logger.Errorf("quiz %d: %v", attempt.QuizID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}

	attempt.Answers = append(attempt.Answers, optionIndex)
	attempt.NextIndex++

	if attempt.NextIndex < len(quiz.Questions) {
		if err := bh.state.SetQuizAttempt(attempt); err != nil {
			logger.Errorf("save quiz attempt: %v", err)
		}
		bh.askQuizQuestion(ctx, b, chatID, quiz, attempt.NextIndex)
		return
	}

	bh.finishQuiz(ctx, b, chatID, user, quiz, attempt)
}

func (bh *Handlers) finishQuiz(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, quiz *types.Quiz, attempt *types.QuizAttempt) {
	if err := bh.state.ClearQuizAttempt(user.UserID); err != nil {
		logger.Errorf("clear quiz attempt: %v", err)
	}

	result := progression.ScoreQuiz(*quiz, attempt.Answers)

	newTotal := user.Stars
	var out *types.GrantOutcome
	if result.StarsEarned > 0 {
		granted, err := bh.users.GrantStars(user.UserID, result.StarsEarned,
			types.ActivityQuiz, progression.QuizRewardDescription(quiz.Title))
		if err != nil {
			logger.Errorf("grant quiz reward to %d: %v", user.UserID, err)
			bh.send(ctx, b, chatID, messages.ErrorDefault())
			return
		}
		out = granted
		newTotal = granted.User.Stars
	}

	bh.notifyOutcome(ctx, b, chatID, out, messages.QuizResult(quiz.Title, result, newTotal))
}
