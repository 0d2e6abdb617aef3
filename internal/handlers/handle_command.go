package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/fotokruzhok/star-cabinet-bot/internal/messages"
	"github.com/fotokruzhok/star-cabinet-bot/pkg/logger"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

func (bh *Handlers) HandleCommand(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User) {
	chatID := update.Message.Chat.ID
	fields := strings.Fields(strings.TrimSpace(update.Message.Text))
	if len(fields) == 0 {
		return
	}
	cmd := fields[0]
	if strings.Contains(cmd, "@") {
		cmd = strings.SplitN(cmd, "@", 2)[0]
	}

	switch cmd {
	case "/start":
		bh.handleStart(ctx, b, chatID, user)
	case "/cabinet":
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        messages.CabinetHint(),
			ParseMode:   messages.ParseModeHTML,
			ReplyMarkup: bh.cabinetKeyboard(),
		})
		if err != nil {
			logger.Errorf("send cabinet: %v", err)
		}
	case "/profile":
		bh.handleProfile(ctx, b, chatID, user)
	case "/history":
		entries, err := bh.users.GetHistory(user.UserID, 10)
		if err != nil {
			logger.Errorf("history for %d: %v", user.UserID, err)
			bh.send(ctx, b, chatID, messages.ErrorDefault())
			return
		}
		bh.send(ctx, b, chatID, messages.History(entries))
	case "/quiz":
		bh.sendQuizList(ctx, b, chatID)
	case "/post":
		bh.handleAdminPost(ctx, b, chatID, user, fields)
	case "/help":
		bh.handleStart(ctx, b, chatID, user)
	default:
		bh.send(ctx, b, chatID, messages.ErrorUnknownCommand())
	}
}

func (bh *Handlers) handleStart(ctx context.Context, b *bot.Bot, chatID int64, user *types.User) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        messages.StartWelcome(user.FirstName),
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: bh.cabinetKeyboard(),
	})
	if err != nil {
		logger.Errorf("send welcome: %v", err)
	}

	if !user.IsRegistered {
		bh.sendClassChoice(ctx, b, chatID)
	}
}

func (bh *Handlers) handleProfile(ctx context.Context, b *bot.Bot, chatID int64, user *types.User) {
	var character *types.Character
	if user.CharacterID != 0 {
		ch, err := bh.catalog.GetCharacter(user.CharacterID)
		if err != nil {
			logger.Errorf("character %d: %v", user.CharacterID, err)
		} else {
			character = ch
		}
	}
	bh.send(ctx, b, chatID, messages.Profile(user, character))
}

func (bh *Handlers) sendClassChoice(ctx context.Context, b *bot.Bot, chatID int64) {
	classes, err := bh.catalog.ListClasses()
	if err != nil {
		logger.Errorf("list classes: %v", err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(classes))
	for _, class := range classes {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: class, CallbackData: "reg_class:" + class},
		})
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        messages.RegistrationChooseClass(),
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		logger.Errorf("send class choice: %v", err)
	}
}

// handleAdminPost queues a channel post: /post <secret> <now|HH:MM DD.MM.YYYY> <text>.
func (bh *Handlers) handleAdminPost(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, fields []string) {
	if !bh.cfg.IsAdmin(user.UserID) {
		bh.send(ctx, b, chatID, messages.ErrorUnknownCommand())
		return
	}
	if len(fields) < 3 {
		bh.send(ctx, b, chatID, messages.AdminPostUsage())
		return
	}
	secret := strings.TrimSpace(fields[1])
	if bh.cfg.AdminSecret == "" || secret != bh.cfg.AdminSecret {
		bh.send(ctx, b, chatID, messages.AdminDenied())
		return
	}

	rest := fields[2:]
	publishAt := time.Now().UTC()
	switch {
	case strings.EqualFold(rest[0], "now"):
		rest = rest[1:]
	case len(rest) >= 2:
		if t, err := time.Parse("15:04 02.01.2006", rest[0]+" "+rest[1]); err == nil {
			publishAt = t.UTC()
			rest = rest[2:]
		}
	}

	body := strings.TrimSpace(strings.Join(rest, " "))
	if body == "" {
		bh.send(ctx, b, chatID, messages.AdminPostUsage())
		return
	}

	post, err := bh.posts.CreatePost(types.ScheduledPost{
		Title:     firstLine(body),
		Body:      body,
		PublishAt: publishAt,
		CreatedBy: user.UserID,
	})
	if err != nil {
		logger.Errorf("queue post: %v", err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}
	bh.send(ctx, b, chatID, messages.AdminPostQueued(post.PublishAt))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return strings.TrimSpace(s)
}
