package notifications

import (
	"fmt"

	"hackmate-backend/internal/config"

	"github.com/go-resty/resty/v2"
)

// SendTelegramNotification posts an ops message to the configured Telegram
// chat. Team formation events use this so organizers see activity without
// watching the dashboard.
func SendTelegramNotification(message string, cfg *config.Config) error {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
		return fmt.Errorf("telegram bot token or chat ID is not configured")
	}

	resp, err := resty.New().R().
		SetBody(map[string]string{
			"chat_id": cfg.Telegram.ChatID,
			"text":    message,
		}).
		Post(fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", cfg.Telegram.BotToken))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram API request failed with status code: %d", resp.StatusCode())
	}

	return nil
}
