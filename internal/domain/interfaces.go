package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound возвращается репозиториями, когда записи нет.
var ErrNotFound = errors.New("запись не найдена")

// UserRepo управляет пользователями.
type UserRepo interface {
	// UpsertUser создаёт пользователя при первом контакте и обновляет
	// профиль при последующих. Второй результат — true только при
	// самом первом контакте.
	UpsertUser(ctx context.Context, profile TelegramProfile) (User, bool, error)
	TouchActivity(ctx context.Context, userID int64) error
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// AdminRepo управляет администраторами.
type AdminRepo interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	ListAdmins(ctx context.Context) ([]Admin, error)
	AddAdmin(ctx context.Context, userID int64) (bool, error)
	RemoveAdmin(ctx context.Context, userID int64) (bool, error)
	// EnsurePrimaryAdmin сидирует главного администратора при старте.
	EnsurePrimaryAdmin(ctx context.Context, userID int64) error
}

// ChannelRepo управляет обязательными каналами.
type ChannelRepo interface {
	ListChannels(ctx context.Context) ([]Channel, error)
	UpsertChannel(ctx context.Context, ch Channel) error
	RemoveChannel(ctx context.Context, chatID int64) (bool, error)
}

// JoinRequestRepo хранит заявки на вступление в приватные каналы.
// Записи не удаляются и не устаревают.
type JoinRequestRepo interface {
	SaveJoinRequest(ctx context.Context, chatID, userID int64) error
	HasJoinRequest(ctx context.Context, chatID, userID int64) (bool, error)
}

// PromoRepo управляет рекламными ссылками.
type PromoRepo interface {
	AddPromoLink(ctx context.Context, title, url string) (int64, error)
	RemovePromoLink(ctx context.Context, id int64) (bool, error)
	ListPromoLinks(ctx context.Context) ([]PromoLink, error)
}

// ContentRepo управляет каталогом и сериями.
type ContentRepo interface {
	AddContent(ctx context.Context, c Content) (int64, error)
	GetContent(ctx context.Context, id int64) (Content, error)
	// DeleteContent удаляет контент каскадно вместе с сериями
	// и записями о скачиваниях.
	DeleteContent(ctx context.Context, id int64) (bool, error)
	ListContent(ctx context.Context, kind ContentKind) ([]Content, error)
	CountContent(ctx context.Context, kind ContentKind) (int64, error)
	AddEpisode(ctx context.Context, ep Episode) error
	ListEpisodes(ctx context.Context, serialID int64) ([]Episode, error)
	CountEpisodes(ctx context.Context, serialID int64) (int64, error)
	// RegisterDownload отмечает скачивание и возвращает true, если пара
	// (контент, пользователь) встретилась впервые; только в этом случае
	// увеличивается счётчик.
	RegisterDownload(ctx context.Context, contentID, userID int64) (bool, error)
}

// StatsRepo считает статистику для админ-панели.
type StatsRepo interface {
	Statistics(ctx context.Context) (Stats, error)
}

// MembershipChecker запрашивает статус участника канала у транспорта.
type MembershipChecker interface {
	ChatMemberStatus(ctx context.Context, chatID, userID int64) (string, error)
}

// ChatResolver превращает идентификатор канала (@username или chat id)
// в каноничную запись канала.
type ChatResolver interface {
	ResolveChat(ctx context.Context, ident string) (Channel, error)
}

// Messenger отправляет текстовые сообщения.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Copier копирует произвольное сообщение в другой чат.
type Copier interface {
	CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error
}

// BroadcastQueue — очередь задач рассылки.
type BroadcastQueue interface {
	Enqueue(ctx context.Context, job BroadcastJob) error
	Pop(ctx context.Context) (BroadcastJob, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
