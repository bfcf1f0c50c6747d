package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hidroweb/backend/internal/config"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

// Sentinel errors for dispatch outcomes
var (
	// ErrChannelNotConfigured means the grower never linked a Telegram chat
	ErrChannelNotConfigured = errors.New("telegram channel not configured")
	// ErrDeliveryFailed means the Telegram API rejected or dropped the message
	ErrDeliveryFailed = errors.New("telegram delivery failed")
)

// Sender delivers formatted messages to a grower's chat
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// telegramResponse is the envelope every Bot API call returns
type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// TelegramSender sends messages through the Telegram Bot API
type TelegramSender struct {
	client *resty.Client
	token  string
	logger *utils.Logger
}

// NewTelegramSender creates a sender from the Telegram configuration
func NewTelegramSender(cfg *config.TelegramConfig, logger *utils.Logger) *TelegramSender {
	client := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &TelegramSender{
		client: client,
		token:  cfg.BotToken,
		logger: logger.Named("telegram"),
	}
}

// SendMessage delivers a Markdown message to a chat
func (s *TelegramSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if chatID == 0 {
		return ErrChannelNotConfigured
	}

	var result telegramResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/bot%s/sendMessage", s.token))
	if err != nil {
		s.logger.Error("Telegram request failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if resp.IsError() || !result.OK {
		s.logger.Error("Telegram API rejected message",
			zap.Int64("chat_id", chatID),
			zap.Int("status", resp.StatusCode()),
			zap.String("description", result.Description))
		return fmt.Errorf("%w: %s", ErrDeliveryFailed, result.Description)
	}

	return nil
}
