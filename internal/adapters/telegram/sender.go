package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-kino-bot/internal/domain"
	"tg-kino-bot/internal/infra/metrics"
)

// Sender — транспортный адаптер поверх Bot API: отправка текста,
// копирование сообщений, проверка подписки и резолв каналов.
type Sender struct {
	bot *tgbotapi.BotAPI
}

// NewSender создаёт адаптер.
func NewSender(bot *tgbotapi.BotAPI) *Sender {
	return &Sender{bot: bot}
}

// SendText отправляет текстовое сообщение, при необходимости разрезая
// его под лимит Telegram.
func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	for _, part := range SplitMessage(text) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, part)
		start := time.Now()
		_, err := s.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			metrics.BotSendErrors.Inc()
			return fmt.Errorf("отправка сообщения: %w", err)
		}
	}
	return nil
}

// CopyMessage копирует сообщение без ссылки на оригинал.
func (s *Sender) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID)
	start := time.Now()
	_, err := s.bot.CopyMessage(cfg)
	metrics.ObserveNetworkRequest("telegram_bot", "copy_message", strconv.FormatInt(toChatID, 10), start, err)
	if err != nil {
		return fmt.Errorf("копирование сообщения: %w", err)
	}
	return nil
}

// ChatMemberStatus возвращает статус пользователя в канале
// (member/administrator/creator/left/kicked/restricted).
func (s *Sender) ChatMemberStatus(ctx context.Context, chatID, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	start := time.Now()
	member, err := s.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	metrics.ObserveNetworkRequest("telegram_bot", "get_chat_member", strconv.FormatInt(chatID, 10), start, err)
	if err != nil {
		return "", fmt.Errorf("запрос статуса: %w", err)
	}
	return member.Status, nil
}

// ResolveChat резолвит @username или числовой chat id в канал.
// Бот должен состоять в канале, иначе Bot API вернёт ошибку.
func (s *Sender) ResolveChat(ctx context.Context, ident string) (domain.Channel, error) {
	if err := ctx.Err(); err != nil {
		return domain.Channel{}, err
	}
	cfg := tgbotapi.ChatInfoConfig{}
	if id, err := strconv.ParseInt(ident, 10, 64); err == nil {
		cfg.ChatConfig = tgbotapi.ChatConfig{ChatID: id}
	} else {
		cfg.ChatConfig = tgbotapi.ChatConfig{SuperGroupUsername: ensureAtPrefix(ident)}
	}
	start := time.Now()
	chat, err := s.bot.GetChat(cfg)
	metrics.ObserveNetworkRequest("telegram_bot", "get_chat", ident, start, err)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("резолв чата %s: %w", ident, err)
	}
	return domain.Channel{
		ChatID:     chat.ID,
		Title:      chat.Title,
		Username:   chat.UserName,
		InviteLink: chat.InviteLink,
	}, nil
}

func ensureAtPrefix(ident string) string {
	if strings.HasPrefix(ident, "@") {
		return ident
	}
	return "@" + ident
}
