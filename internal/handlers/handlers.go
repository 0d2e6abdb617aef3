package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/fotokruzhok/star-cabinet-bot/internal/config"
	"github.com/fotokruzhok/star-cabinet-bot/internal/contextkeys"
	"github.com/fotokruzhok/star-cabinet-bot/internal/messages"
	"github.com/fotokruzhok/star-cabinet-bot/pkg/logger"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

type Handlers struct {
	users   types.UserStore
	catalog types.CatalogStore
	state   types.StateStore
	posts   types.PostStore
	cfg     *config.Config
}

func NewHandlers(users types.UserStore, catalog types.CatalogStore, state types.StateStore, posts types.PostStore, cfg *config.Config) *Handlers {
	return &Handlers{
		users:   users,
		catalog: catalog,
		state:   state,
		posts:   posts,
		cfg:     cfg,
	}
}

func (bh *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := getChatIDFromUpdate(update)
	messageType, _ := contextkeys.GetMessageType(ctx)

	user, ok := contextkeys.GetUser(ctx)
	if !ok {
		logger.Error("user not found in context")
		if chatID != 0 {
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    chatID,
				Text:      messages.ErrorDefault(),
				ParseMode: messages.ParseModeHTML,
			})
		}
		return
	}

	switch messageType {
	case contextkeys.MessageTypeCommand:
		bh.HandleCommand(ctx, b, update, user)
	case contextkeys.MessageTypeClickButton:
		bh.HandleClickButton(ctx, b, update, user)
	case contextkeys.MessageTypePhoto:
		bh.HandlePhoto(ctx, b, update, user)
	default:
		if chatID != 0 {
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    chatID,
				Text:      messages.ErrorUnsupportedMessageType(),
				ParseMode: messages.ParseModeHTML,
			})
		}
	}
}

func getChatIDFromUpdate(update *models.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil {
		if update.CallbackQuery.Message.Message != nil {
			return update.CallbackQuery.Message.Message.Chat.ID
		}
		if update.CallbackQuery.Message.InaccessibleMessage != nil {
			return update.CallbackQuery.Message.InaccessibleMessage.Chat.ID
		}
	}
	return 0
}

func (bh *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		logger.Errorf("answer callback: %v", err)
	}
}

func (bh *Handlers) send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	if err != nil {
		logger.Errorf("send message to %d: %v", chatID, err)
	}
}

// notifyOutcome reports a grant to the user, with a separate congratulation
// when the level boundary was crossed.
func (bh *Handlers) notifyOutcome(ctx context.Context, b *bot.Bot, chatID int64, out *types.GrantOutcome, text string) {
	bh.send(ctx, b, chatID, text)
	if out != nil && out.LevelChanged {
		bh.send(ctx, b, chatID, messages.LevelUp(out.User.Level))
	}
}

func (bh *Handlers) cabinetKeyboard() *models.InlineKeyboardMarkup {
	if strings.TrimSpace(bh.cfg.WebAppURL) == "" {
		return nil
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{
				Text:   messages.CabinetButton(),
				WebApp: &models.WebAppInfo{URL: bh.cfg.WebAppURL},
			},
		}},
	}
}
