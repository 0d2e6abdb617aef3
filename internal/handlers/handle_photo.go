package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/fotokruzhok/star-cabinet-bot/internal/messages"
	"github.com/fotokruzhok/star-cabinet-bot/pkg/logger"
	"github.com/fotokruzhok/star-cabinet-bot/types"
)

// HandlePhoto treats any incoming photo as a submitted photo work. The
// caption becomes the ledger description.
func (bh *Handlers) HandlePhoto(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if !user.IsRegistered {
		bh.send(ctx, b, chatID, messages.PhotoWorkNeedRegistration())
		return
	}

	description := strings.TrimSpace(update.Message.Caption)

	out, err := bh.users.SubmitPhotoWork(user.UserID, description)
	if err != nil {
		logger.Errorf("photo work from %d: %v", user.UserID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault())
		return
	}

	bh.notifyOutcome(ctx, b, chatID, out, messages.PhotoWorkAccepted(out))
}
