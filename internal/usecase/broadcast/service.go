package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tg-kino-bot/internal/domain"
)

// Service ставит рассылки в очередь.
type Service struct {
	queue domain.BroadcastQueue
}

// NewService создаёт сервис рассылок.
func NewService(queue domain.BroadcastQueue) *Service {
	return &Service{queue: queue}
}

// Enqueue публикует задачу: сообщение (fromChatID, messageID) будет
// скопировано каждому известному пользователю, а итоговые счётчики
// придут в adminChatID.
func (s *Service) Enqueue(ctx context.Context, adminChatID, fromChatID int64, messageID int) (domain.BroadcastJob, error) {
	job := domain.BroadcastJob{
		ID:          uuid.NewString(),
		AdminChatID: adminChatID,
		FromChatID:  fromChatID,
		MessageID:   messageID,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return domain.BroadcastJob{}, fmt.Errorf("постановка рассылки: %w", err)
	}
	return job, nil
}
