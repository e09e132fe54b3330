package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"tg-kino-bot/internal/domain"
	"tg-kino-bot/internal/infra/metrics"
	"tg-kino-bot/internal/usecase/access"
)

var (
	// ErrInvalidCode — ввод не похож на числовой код.
	ErrInvalidCode = errors.New("код должен быть числом")
	// ErrNoEpisodes — у сериала пока нет серий.
	ErrNoEpisodes = errors.New("у сериала нет серий")
	// ErrEpisodeRange — запрошенной серии не существует.
	ErrEpisodeRange = errors.New("серия вне диапазона")
)

// SubscriptionRequiredError сообщает, что гейт не пройден, и несёт
// список неподтверждённых каналов для клавиатуры подписки.
type SubscriptionRequiredError struct {
	Unmet []domain.Channel
}

func (e *SubscriptionRequiredError) Error() string {
	return fmt.Sprintf("требуется подписка: %d каналов", len(e.Unmet))
}

// Delivery описывает, что именно отправить пользователю. Клавиатура
// строится на стороне транспорта из токенов навигации.
type Delivery struct {
	Kind      domain.ContentKind
	FileID    string
	Caption   string
	PrevToken string
	NextToken string
}

// Service выдаёт контент по коду и листает сериалы.
type Service struct {
	content domain.ContentRepo
	admins  domain.AdminRepo
	users   domain.UserRepo
	gate    *access.Gate
	log     zerolog.Logger
}

// NewService создаёт сервис каталога.
func NewService(content domain.ContentRepo, admins domain.AdminRepo, users domain.UserRepo, gate *access.Gate, log zerolog.Logger) *Service {
	return &Service{content: content, admins: admins, users: users, gate: gate, log: log}
}

// Deliver обрабатывает введённый код: проверяет гейт, находит контент,
// регистрирует скачивание (счётчик растёт только при первой паре
// контент+пользователь) и возвращает, что отправить.
func (s *Service) Deliver(ctx context.Context, userID int64, code string) (Delivery, error) {
	if err := s.users.TouchActivity(ctx, userID); err != nil {
		s.log.Warn().Err(err).Int64("user", userID).Msg("не удалось обновить активность")
	}
	if err := s.checkGate(ctx, userID); err != nil {
		return Delivery{}, err
	}

	contentID, err := strconv.ParseInt(strings.TrimSpace(code), 10, 64)
	if err != nil {
		return Delivery{}, ErrInvalidCode
	}
	content, err := s.content.GetContent(ctx, contentID)
	if err != nil {
		return Delivery{}, err
	}

	registered, err := s.content.RegisterDownload(ctx, contentID, userID)
	if err != nil {
		s.log.Error().Err(err).Int64("content", contentID).Int64("user", userID).
			Msg("не удалось зарегистрировать скачивание")
	} else if registered {
		metrics.DownloadsTotal.Inc()
	}

	if content.Kind == domain.ContentMovie {
		return Delivery{Kind: domain.ContentMovie, FileID: content.FileID, Caption: movieCaption(content)}, nil
	}

	episodes, err := s.content.ListEpisodes(ctx, contentID)
	if err != nil {
		return Delivery{}, fmt.Errorf("список серий: %w", err)
	}
	if len(episodes) == 0 {
		return Delivery{}, ErrNoEpisodes
	}
	return buildPage(content, episodes, 1), nil
}

// Page обрабатывает нажатие кнопки навигации. Гейт проверяется заново,
// сообщение всегда отправляется новое, счётчик скачиваний не трогается:
// он относится к вводу кода, а не к просмотру серий.
func (s *Service) Page(ctx context.Context, userID int64, token string) (Delivery, error) {
	page, err := ParseToken(token)
	if err != nil {
		return Delivery{}, err
	}
	if err := s.checkGate(ctx, userID); err != nil {
		return Delivery{}, err
	}

	content, err := s.content.GetContent(ctx, page.ContentID)
	if err != nil {
		return Delivery{}, err
	}
	if content.Kind != domain.ContentSerial {
		return Delivery{}, domain.ErrNotFound
	}
	episodes, err := s.content.ListEpisodes(ctx, page.ContentID)
	if err != nil {
		return Delivery{}, fmt.Errorf("список серий: %w", err)
	}
	if page.Episode < 1 || page.Episode > len(episodes) {
		return Delivery{}, ErrEpisodeRange
	}
	return buildPage(content, episodes, page.Episode), nil
}

// checkGate пропускает администраторов без проверки подписки.
func (s *Service) checkGate(ctx context.Context, userID int64) error {
	isAdmin, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		return fmt.Errorf("проверка администратора: %w", err)
	}
	if isAdmin {
		return nil
	}
	unmet, err := s.gate.Unmet(ctx, userID)
	if err != nil {
		return fmt.Errorf("проверка подписки: %w", err)
	}
	if len(unmet) > 0 {
		metrics.GateDeniedTotal.Inc()
		return &SubscriptionRequiredError{Unmet: unmet}
	}
	return nil
}

func movieCaption(c domain.Content) string {
	caption := fmt.Sprintf("🎬 %s\nid: %d", c.Title, c.ID)
	if c.Description != "" {
		caption += "\n📝 " + c.Description
	}
	return caption
}

func buildPage(content domain.Content, episodes []domain.Episode, number int) Delivery {
	episode := episodes[number-1]
	caption := fmt.Sprintf("%s - %s\nid: %d\nepisode: %d/%d",
		content.Title, episode.Title, content.ID, number, len(episodes))
	if content.Description != "" {
		caption += "\n📝 " + content.Description
	}

	d := Delivery{Kind: domain.ContentSerial, FileID: episode.FileID, Caption: caption}
	if number > 1 {
		d.PrevToken = Page{ContentID: content.ID, Episode: number - 1}.Token()
	}
	if number < len(episodes) {
		d.NextToken = Page{ContentID: content.ID, Episode: number + 1}.Token()
	}
	return d
}
