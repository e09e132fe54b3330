package domain

import "time"

// User описывает пользователя бота.
type User struct {
	ID          int64
	Username    string
	FirstName   string
	LastName    string
	JoinedAt    time.Time
	LastActive  time.Time
	StartedOnce bool
}

// TelegramProfile содержит данные профиля из входящего апдейта.
type TelegramProfile struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Admin описывает пользователя с правами администратора.
type Admin struct {
	UserID  int64
	AddedAt time.Time
}

// Channel описывает канал с обязательной подпиской.
type Channel struct {
	ChatID     int64
	Title      string
	Username   string
	InviteLink string
	AddedAt    time.Time
}

// PromoLink — рекламная ссылка: показывается рядом с каналами,
// но подписка на неё не проверяется.
type PromoLink struct {
	ID      int64
	Title   string
	URL     string
	AddedAt time.Time
}

// ContentKind определяет тип контента.
type ContentKind string

const (
	ContentMovie  ContentKind = "movie"
	ContentSerial ContentKind = "serial"
)

// Content описывает единицу каталога: фильм или сериал.
type Content struct {
	ID          int64
	FileID      string
	Title       string
	Description string
	Kind        ContentKind
	AddedBy     int64
	AddedAt     time.Time
	Downloads   int64
}

// Episode — одна серия сериала. Номера идут с единицы и уникальны
// внутри сериала; после удаления серии дыры не заполняются.
type Episode struct {
	SerialID int64
	Number   int
	FileID   string
	Title    string
}

// Stats содержит агрегаты для админ-панели.
type Stats struct {
	TotalUsers   int64
	MonthlyUsers int64
	WeeklyUsers  int64
	DailyUsers   int64
	ActiveUsers  int64
	Movies       int64
	Serials      int64
}

// BroadcastJob — задача рассылки: исходное сообщение копируется
// каждому известному пользователю.
type BroadcastJob struct {
	ID          string    `json:"id"`
	AdminChatID int64     `json:"admin_chat_id"`
	FromChatID  int64     `json:"from_chat_id"`
	MessageID   int       `json:"message_id"`
	RequestedAt time.Time `json:"requested_at"`
}
