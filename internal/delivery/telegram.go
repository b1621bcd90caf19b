package delivery

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// TelegramDelivery доставляет уведомления в Telegram.
// Пользователи без привязанного Telegram ID молча пропускаются.
type TelegramDelivery struct {
	bot    *bot.Bot
	logger *zap.Logger
}

func NewTelegramDelivery(token string, logger *zap.Logger) (*TelegramDelivery, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramDelivery{bot: b, logger: logger}, nil
}

// Send отправляет уведомление пользователю в личные сообщения
func (d *TelegramDelivery) Send(ctx context.Context, user *model.User, n *model.Notification) error {
	if user.TelegramID == nil {
		return nil
	}

	_, err := d.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramID,
		Text:   fmt.Sprintf("%s\n\n%s", n.Title, n.Message),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	d.logger.Debug("Notification delivered to telegram",
		zap.Int64("user_id", user.ID),
		zap.String("type", n.Type),
	)

	return nil
}
