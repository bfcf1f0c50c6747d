package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hidroweb/backend/internal/config"
	"github.com/hidroweb/backend/internal/db/repository"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

// telegramUpdate is the subset of the Bot API update object the
// registration flow cares about
type telegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

type telegramUpdatesResponse struct {
	OK     bool             `json:"ok"`
	Result []telegramUpdate `json:"result"`
}

// RegistrationPoller long-polls Telegram getUpdates and binds chats to
// growers. A grower links their channel by sending "/start <uid>" to
// the bot.
type RegistrationPoller struct {
	client   *resty.Client
	token    string
	interval time.Duration
	growers  repository.GrowerRepository
	sender   Sender
	logger   *utils.Logger

	offset int64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistrationPoller creates a poller bound to the grower repository
func NewRegistrationPoller(cfg *config.TelegramConfig, growers repository.GrowerRepository, sender Sender, logger *utils.Logger) *RegistrationPoller {
	client := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second + 30*time.Second)

	return &RegistrationPoller{
		client:   client,
		token:    cfg.BotToken,
		interval: time.Duration(cfg.PollInterval) * time.Second,
		growers:  growers,
		sender:   sender,
		logger:   logger.Named("telegram_registration"),
	}
}

// Start launches the polling loop
func (p *RegistrationPoller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go p.pollLoop(ctx)
	p.logger.Info("Telegram registration poller started")
}

// Stop terminates the polling loop and waits for it to finish
func (p *RegistrationPoller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("Telegram registration poller stopped")
}

func (p *RegistrationPoller) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.poll(ctx); err != nil {
				p.logger.Warn("Failed to poll Telegram updates", zap.Error(err))
			}
		}
	}
}

func (p *RegistrationPoller) poll(ctx context.Context) error {
	var result telegramUpdatesResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("offset", fmt.Sprintf("%d", p.offset)).
		SetQueryParam("timeout", "25").
		SetResult(&result).
		Get(fmt.Sprintf("/bot%s/getUpdates", p.token))
	if err != nil {
		return err
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("getUpdates returned status %d", resp.StatusCode())
	}

	for _, update := range result.Result {
		if update.UpdateID >= p.offset {
			p.offset = update.UpdateID + 1
		}
		p.handleUpdate(ctx, update)
	}
	return nil
}

func (p *RegistrationPoller) handleUpdate(ctx context.Context, update telegramUpdate) {
	if update.Message == nil {
		return
	}

	uid, ok := parseStartCommand(update.Message.Text)
	if !ok {
		return
	}

	chatID := update.Message.Chat.ID
	if err := p.growers.SetTelegramChatID(uid, chatID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			p.logger.Warn("Ignoring /start for unknown grower",
				zap.String("uid", uid),
				zap.Int64("chat_id", chatID))
			return
		}
		p.logger.Error("Failed to bind Telegram chat",
			zap.String("uid", uid),
			zap.Error(err))
		return
	}

	p.logger.Info("Linked Telegram chat to grower",
		zap.String("uid", uid),
		zap.Int64("chat_id", chatID))

	confirmation := "✅ *Canal vinculado*\nRecibirás alertas de tus cultivos en este chat."
	if err := p.sender.SendMessage(ctx, chatID, confirmation); err != nil {
		p.logger.Warn("Failed to send link confirmation",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

// parseStartCommand extracts the grower uid from a "/start <uid>" message
func parseStartCommand(text string) (string, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) != 2 || fields[0] != "/start" {
		return "", false
	}
	return fields[1], true
}
