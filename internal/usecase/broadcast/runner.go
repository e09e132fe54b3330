package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tg-kino-bot/internal/domain"
	"tg-kino-bot/internal/infra/metrics"
)

const onceTTL = 24 * time.Hour

// Runner — воркер рассылки: читает задачи из очереди, копирует
// сообщение каждому пользователю с ограничением темпа и отчитывается
// счётчиками в чат администратора. Ошибка доставки одному получателю
// никогда не прерывает рассылку.
type Runner struct {
	queue  domain.BroadcastQueue
	users  domain.UserRepo
	copier domain.Copier
	sender domain.Messenger
	cache  domain.Cache
	rps    int
	log    zerolog.Logger
}

// NewRunner создаёт воркер. Кэш опционален и защищает от повторной
// обработки задачи при передоставке из очереди.
func NewRunner(queue domain.BroadcastQueue, users domain.UserRepo, copier domain.Copier, sender domain.Messenger, cache domain.Cache, rps int, log zerolog.Logger) *Runner {
	if rps <= 0 {
		rps = 20
	}
	return &Runner{queue: queue, users: users, copier: copier, sender: sender, cache: cache, rps: rps, log: log}
}

// Run крутит цикл обработки до отмены контекста.
func (r *Runner) Run(ctx context.Context) error {
	for {
		job, err := r.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			r.log.Error().Err(err).Msg("не удалось прочитать задачу рассылки")
			continue
		}
		r.process(ctx, job)
	}
}

func (r *Runner) process(ctx context.Context, job domain.BroadcastJob) {
	run := func() error { return r.fanOut(ctx, job) }
	if r.cache != nil {
		if err := r.cache.Once("broadcast:"+job.ID, onceTTL, run); err != nil {
			r.log.Error().Err(err).Str("job", job.ID).Msg("рассылка завершилась с ошибкой")
		}
		return
	}
	if err := run(); err != nil {
		r.log.Error().Err(err).Str("job", job.ID).Msg("рассылка завершилась с ошибкой")
	}
}

func (r *Runner) fanOut(ctx context.Context, job domain.BroadcastJob) error {
	ids, err := r.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("список пользователей: %w", err)
	}

	ticker := time.NewTicker(time.Second / time.Duration(r.rps))
	defer ticker.Stop()

	var sent, failed int
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := r.copier.CopyMessage(ctx, id, job.FromChatID, job.MessageID); err != nil {
			failed++
			metrics.BroadcastFailedTotal.Inc()
			r.log.Debug().Err(err).Int64("user", id).Msg("доставка не удалась")
			continue
		}
		sent++
		metrics.BroadcastSentTotal.Inc()
	}

	report := fmt.Sprintf("✅ Yuborildi: %d\n❌ Xato: %d", sent, failed)
	if err := r.sender.SendText(ctx, job.AdminChatID, report); err != nil {
		r.log.Error().Err(err).Str("job", job.ID).Msg("не удалось отправить отчёт о рассылке")
	}
	r.log.Info().Str("job", job.ID).Int("sent", sent).Int("failed", failed).Msg("рассылка завершена")
	return nil
}
