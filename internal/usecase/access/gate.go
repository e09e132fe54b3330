package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-kino-bot/internal/domain"
)

// Статусы участника, при которых подписка считается неподтверждённой.
const (
	statusLeft   = "left"
	statusKicked = "kicked"
)

// Gate проверяет, на какие обязательные каналы пользователь
// не подписан. Заявка на вступление в приватный канал считается
// временным подтверждением подписки.
type Gate struct {
	channels domain.ChannelRepo
	joins    domain.JoinRequestRepo
	members  domain.MembershipChecker
	cache    domain.Cache
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewGate создаёт гейт. Кэш опционален: при nil или нулевом TTL
// каждый запрос идёт в транспорт.
func NewGate(channels domain.ChannelRepo, joins domain.JoinRequestRepo, members domain.MembershipChecker, cache domain.Cache, cacheTTL time.Duration, log zerolog.Logger) *Gate {
	return &Gate{
		channels: channels,
		joins:    joins,
		members:  members,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Unmet возвращает каналы, подписка на которые не подтверждена.
// Проверки каналов независимы и выполняются параллельно; отказ
// одной проверки не отменяет остальные.
func (g *Gate) Unmet(ctx context.Context, userID int64) ([]domain.Channel, error) {
	channels, err := g.channels.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("список каналов: %w", err)
	}
	if len(channels) == 0 {
		return nil, nil
	}

	satisfied := make([]bool, len(channels))
	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch domain.Channel) {
			defer wg.Done()
			satisfied[i] = g.satisfied(ctx, ch, userID)
		}(i, ch)
	}
	wg.Wait()

	var unmet []domain.Channel
	for i, ok := range satisfied {
		if !ok {
			unmet = append(unmet, channels[i])
		}
	}
	return unmet, nil
}

func (g *Gate) satisfied(ctx context.Context, ch domain.Channel, userID int64) bool {
	key := fmt.Sprintf("member:%d:%d", ch.ChatID, userID)
	if g.cache != nil && g.cacheTTL > 0 {
		if v, err := g.cache.Get(key); err == nil && string(v) == "1" {
			return true
		}
	}

	status, err := g.members.ChatMemberStatus(ctx, ch.ChatID, userID)
	if err != nil || status == statusLeft || status == statusKicked {
		if err != nil {
			g.log.Debug().Err(err).Int64("chat", ch.ChatID).Int64("user", userID).
				Msg("статус участника недоступен, проверяем заявку на вступление")
		}
		has, jerr := g.joins.HasJoinRequest(ctx, ch.ChatID, userID)
		if jerr != nil {
			g.log.Error().Err(jerr).Int64("chat", ch.ChatID).Int64("user", userID).
				Msg("не удалось проверить заявку на вступление")
			return false
		}
		return has
	}

	if g.cache != nil && g.cacheTTL > 0 {
		_ = g.cache.Set(key, []byte("1"), g.cacheTTL)
	}
	return true
}

// RecordJoinRequest безусловно сохраняет заявку на вступление.
// Это единственный путь записи заявок; записи не устаревают.
func (g *Gate) RecordJoinRequest(ctx context.Context, chatID, userID int64) error {
	return g.joins.SaveJoinRequest(ctx, chatID, userID)
}
