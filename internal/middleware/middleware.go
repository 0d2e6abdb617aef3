package middleware

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/fotokruzhok/star-cabinet-bot/internal/contextkeys"
	"github.com/fotokruzhok/star-cabinet-bot/internal/messages"
	"github.com/fotokruzhok/star-cabinet-bot/pkg/logger"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

type Middlewares struct {
	users types.UserStore
}

func NewMiddlewares(users types.UserStore) *Middlewares {
	return &Middlewares{users: users}
}

// EnsureUserMiddleware resolves the sender, upserts a placeholder user row
// on first contact and stamps the fresh snapshot onto the context.
func (m *Middlewares) EnsureUserMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		var (
			from   *models.User
			chatID int64
		)

		switch {
		case update.Message != nil && update.Message.From != nil:
			from = update.Message.From
			chatID = update.Message.Chat.ID
		case update.CallbackQuery != nil:
			from = &update.CallbackQuery.From
			chatID = getChatIDFromMaybeInaccessibleMessage(update.CallbackQuery.Message)
		default:
			return
		}

		if from == nil || from.ID == 0 || chatID == 0 {
			return
		}

		err := m.users.UpsertUser(types.User{
			UserID:    from.ID,
			ChatID:    chatID,
			Username:  from.Username,
			FirstName: from.FirstName,
		})
		if err != nil {
			logger.Errorf("upsert user %d: %v", from.ID, err)
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    chatID,
				Text:      messages.ErrorDefault(),
				ParseMode: messages.ParseModeHTML,
			})
			return
		}

		user, err := m.users.GetUser(from.ID)
		if err != nil {
			logger.Errorf("load user %d: %v", from.ID, err)
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    chatID,
				Text:      messages.ErrorDefault(),
				ParseMode: messages.ParseModeHTML,
			})
			return
		}

		next(contextkeys.WithUser(ctx, user), b, update)
	}
}

func getChatIDFromMaybeInaccessibleMessage(m models.MaybeInaccessibleMessage) int64 {
	if m.Message != nil {
		return m.Message.Chat.ID
	}
	if m.InaccessibleMessage != nil {
		return m.InaccessibleMessage.Chat.ID
	}
	return 0
}

// AnalyzeMessageMiddleware classifies the update so the main handler can
// dispatch on one message type.
func (m *Middlewares) AnalyzeMessageMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		switch {
		case update.CallbackQuery != nil && update.CallbackQuery.Data != "":
			ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeClickButton)
			ctx = contextkeys.WithCallbackData(ctx, update.CallbackQuery.Data)
		case update.Message != nil && len(update.Message.Photo) > 0:
			ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypePhoto)
		case update.Message != nil && strings.HasPrefix(update.Message.Text, "/"):
			ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeCommand)
		case update.Message != nil && update.Message.Text != "":
			ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeText)
		default:
			ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeUnknown)
		}
		next(ctx, b, update)
	}
}
