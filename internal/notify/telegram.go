package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"courtreserve/internal/domain/models"
)

// TelegramAlerter messages the admin chat when a redemption needs manual reconciliation.
type TelegramAlerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramAlerter(token string, chatID int64) (*TelegramAlerter, error) {
	if token == "" || chatID == 0 {
		log.Warn().Msg("telegram token or admin chat is empty, admin alerts disabled")
		return &TelegramAlerter{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramAlerter{bot: bot, chatID: chatID}, nil
}

func (a *TelegramAlerter) ReconciliationRecorded(ctx context.Context, r models.Reconciliation) {
	a.send(ctx, reconciliationText(r))
}

func reconciliationText(r models.Reconciliation) string {
	hours := make([]string, 0, len(r.Hours))
	for _, h := range r.Hours {
		hours = append(hours, fmt.Sprintf("%02d:00", h))
	}
	return fmt.Sprintf(
		"*Reconciliation needed*\n\n"+"Code: %s\n"+"User: %s\n"+"Court %d on %s at %s\n"+"Amount: %d\n"+"Reason: %s\n"+"Ref: %s",
		r.DiscountCode, r.UserID, r.CourtID, r.Date, strings.Join(hours, ", "), r.Amount, r.Reason, r.ID,
	)
}

func (a *TelegramAlerter) send(ctx context.Context, text string) {
	if a.bot == nil {
		log.Debug().Str("text", text).Msg("admin alert skipped (bot disabled)")
		return
	}
	if err := ctx.Err(); err != nil {
		log.Debug().Err(err).Msg("admin alert skipped (context cancelled)")
		return
	}
	msg := tgbotapi.NewMessage(a.chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := a.bot.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", a.chatID).Msg("failed to send telegram alert")
	}
}
