package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-kino-bot/internal/domain"
	"tg-kino-bot/internal/usecase/broadcast"
)

// Step — именованный шаг открытого диалога администратора.
type Step int

const (
	StepIdle Step = iota
	StepAddAdmin
	StepRemoveAdmin
	StepAddChannel
	StepAddChannelInvite
	StepRemoveChannel
	StepAddPromoTitle
	StepAddPromoURL
	StepRemovePromo
	StepAddMovie
	StepAddSerialTitle
	StepAddSerialDesc
	StepEpisodeSerial
	StepEpisodeVideo
	StepRemoveContent
	StepBroadcast
)

var (
	// ErrNotAdmin — попытка войти в админский диалог без прав.
	ErrNotAdmin = errors.New("нет прав администратора")
	// ErrNoDialog — событие пришло без открытого диалога.
	ErrNoDialog = errors.New("нет открытого диалога")
)

// Event — одно входящее событие шага: текст или видео с подписью.
type Event struct {
	ChatID    int64
	MessageID int
	Text      string
	FileID    string
	Caption   string
}

// Outcome — результат обработки шага. Невалидный ввод — это не
// ошибка, а Reply без Done (переспросить, не продвигаясь).
type Outcome struct {
	Reply string
	Done  bool
}

// session — состояние одного открытого диалога. Живёт только в
// памяти процесса и теряется при рестарте.
type session struct {
	mu   sync.Mutex
	step Step

	channel     domain.Channel
	promoTitle  string
	serialTitle string
	serialID    int64
	nextEpisode int

	updatedAt time.Time
}

func (s *session) reset(step Step) {
	s.step = step
	s.channel = domain.Channel{}
	s.promoTitle = ""
	s.serialTitle = ""
	s.serialID = 0
	s.nextEpisode = 0
	s.updatedAt = time.Now()
}

// Engine — конечный автомат админских диалогов, по одному состоянию
// на пользователя. События одного пользователя сериализуются мьютексом
// сессии, между пользователями порядок не гарантируется.
type Engine struct {
	mu       sync.Mutex
	sessions map[int64]*session

	admins    domain.AdminRepo
	channels  domain.ChannelRepo
	promos    domain.PromoRepo
	content   domain.ContentRepo
	resolver  domain.ChatResolver
	broadcast *broadcast.Service

	primaryAdmin int64
	log          zerolog.Logger
}

// NewEngine создаёт движок диалогов.
func NewEngine(admins domain.AdminRepo, channels domain.ChannelRepo, promos domain.PromoRepo, content domain.ContentRepo, resolver domain.ChatResolver, broadcastSvc *broadcast.Service, primaryAdmin int64, log zerolog.Logger) *Engine {
	return &Engine{
		sessions:     make(map[int64]*session),
		admins:       admins,
		channels:     channels,
		promos:       promos,
		content:      content,
		resolver:     resolver,
		broadcast:    broadcastSvc,
		primaryAdmin: primaryAdmin,
		log:          log,
	}
}

// Begin открывает диалог с указанного шага. Любая точка входа
// требует прав администратора; накопленный ввод прошлого диалога
// сбрасывается.
func (e *Engine) Begin(ctx context.Context, userID int64, step Step) error {
	isAdmin, err := e.admins.IsAdmin(ctx, userID)
	if err != nil {
		return fmt.Errorf("проверка администратора: %w", err)
	}
	if !isAdmin {
		return ErrNotAdmin
	}

	e.mu.Lock()
	s, ok := e.sessions[userID]
	if !ok {
		s = &session{}
		e.sessions[userID] = s
	}
	e.mu.Unlock()

	s.mu.Lock()
	s.reset(step)
	s.mu.Unlock()
	return nil
}

// Cancel закрывает диалог и отбрасывает накопленный ввод. Шаг
// сбрасывается в StepIdle до удаления из карты: параллельное событие,
// успевшее взять указатель на сессию, увидит закрытый диалог, а не
// повторит последний шаг.
func (e *Engine) Cancel(userID int64) {
	e.mu.Lock()
	s, ok := e.sessions[userID]
	delete(e.sessions, userID)
	e.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.reset(StepIdle)
	s.mu.Unlock()
}

// Active сообщает, открыт ли у пользователя диалог.
func (e *Engine) Active(userID int64) bool {
	e.mu.Lock()
	s, ok := e.sessions[userID]
	e.mu.Unlock()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step != StepIdle
}

// Handle обрабатывает очередное событие открытого диалога.
func (e *Engine) Handle(ctx context.Context, userID int64, ev Event) (Outcome, error) {
	e.mu.Lock()
	s, ok := e.sessions[userID]
	e.mu.Unlock()
	if !ok {
		return Outcome{}, ErrNoDialog
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepIdle {
		return Outcome{}, ErrNoDialog
	}
	s.updatedAt = time.Now()

	out, err := e.step(ctx, userID, s, ev)
	if err != nil || out.Done {
		// s.mu уже удерживается: сброс шага до удаления из карты,
		// чтобы догнавшее событие не повторило терминальный шаг
		s.reset(StepIdle)
		e.mu.Lock()
		delete(e.sessions, userID)
		e.mu.Unlock()
	}
	return out, err
}

func (e *Engine) step(ctx context.Context, userID int64, s *session, ev Event) (Outcome, error) {
	switch s.step {
	case StepAddAdmin:
		return e.addAdmin(ctx, ev)
	case StepRemoveAdmin:
		return e.removeAdmin(ctx, ev)
	case StepAddChannel:
		return e.addChannel(ctx, s, ev)
	case StepAddChannelInvite:
		return e.addChannelInvite(ctx, s, ev)
	case StepRemoveChannel:
		return e.removeChannel(ctx, ev)
	case StepAddPromoTitle:
		return e.addPromoTitle(s, ev)
	case StepAddPromoURL:
		return e.addPromoURL(ctx, s, ev)
	case StepRemovePromo:
		return e.removePromo(ctx, ev)
	case StepAddMovie:
		return e.addMovie(ctx, userID, ev)
	case StepAddSerialTitle:
		return e.addSerialTitle(s, ev)
	case StepAddSerialDesc:
		return e.addSerialDesc(ctx, userID, s, ev)
	case StepEpisodeSerial:
		return e.episodeSerial(ctx, s, ev)
	case StepEpisodeVideo:
		return e.episodeVideo(ctx, userID, s, ev)
	case StepRemoveContent:
		return e.removeContent(ctx, ev)
	case StepBroadcast:
		return e.enqueueBroadcast(ctx, ev)
	default:
		return Outcome{}, ErrNoDialog
	}
}

func parseID(text string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	return id, err == nil
}

func (e *Engine) addAdmin(ctx context.Context, ev Event) (Outcome, error) {
	id, ok := parseID(ev.Text)
	if !ok {
		return Outcome{Reply: "❌ Faqat raqam yuboring.", Done: true}, nil
	}
	added, err := e.admins.AddAdmin(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("добавление администратора: %w", err)
	}
	if !added {
		return Outcome{Reply: "❌ Qo'shilmadi (mavjud bo'lishi mumkin).", Done: true}, nil
	}
	return Outcome{Reply: "✅ Admin qo'shildi.", Done: true}, nil
}

func (e *Engine) removeAdmin(ctx context.Context, ev Event) (Outcome, error) {
	id, ok := parseID(ev.Text)
	if !ok {
		return Outcome{Reply: "❌ Faqat raqam yuboring.", Done: true}, nil
	}
	// главный администратор защищён от удаления независимо от вызывающего
	if id == e.primaryAdmin {
		return Outcome{Reply: "❌ Asosiy adminni o'chirib bo'lmaydi.", Done: true}, nil
	}
	removed, err := e.admins.RemoveAdmin(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("удаление администратора: %w", err)
	}
	if !removed {
		return Outcome{Reply: "❌ Admin topilmadi.", Done: true}, nil
	}
	return Outcome{Reply: "✅ Admin o'chirildi.", Done: true}, nil
}

func (e *Engine) addChannel(ctx context.Context, s *session, ev Event) (Outcome, error) {
	ident := NormalizeChannelIdent(ev.Text)
	if IsPrivateInvite(ident) {
		// остаёмся на этом же шаге: invite-ссылка принимается позже
		return Outcome{Reply: "❌ Private invite linkni bu bosqichda qabul qilmaymiz.\nChat ID yoki @username yuboring."}, nil
	}
	channel, err := e.resolver.ResolveChat(ctx, ident)
	if err != nil {
		e.log.Warn().Err(err).Str("ident", ident).Msg("канал не резолвится")
		return Outcome{Reply: fmt.Sprintf("❌ Xatolik: %s topilmadi. Chat ID yoki @username tekshiring.", ident), Done: true}, nil
	}
	s.channel = channel
	s.step = StepAddChannelInvite
	return Outcome{Reply: "✅ Endi kanal uchun invite link yuboring.\n" +
		"Public kanal bo'lsa 'skip' deb yuboring.\n" +
		"Private kanal bo'lsa: https://t.me/+xxxxxx"}, nil
}

func (e *Engine) addChannelInvite(ctx context.Context, s *session, ev Event) (Outcome, error) {
	invite := strings.TrimSpace(ev.Text)
	if strings.EqualFold(invite, "skip") {
		invite = ""
	}
	s.channel.InviteLink = invite
	if err := e.channels.UpsertChannel(ctx, s.channel); err != nil {
		return Outcome{}, fmt.Errorf("сохранение канала: %w", err)
	}
	return Outcome{Reply: fmt.Sprintf("✅ Kanal qo'shildi: %s", s.channel.Title), Done: true}, nil
}

func (e *Engine) removeChannel(ctx context.Context, ev Event) (Outcome, error) {
	id, ok := parseID(ev.Text)
	if !ok {
		return Outcome{Reply: "❌ Faqat raqam yuboring.", Done: true}, nil
	}
	removed, err := e.channels.RemoveChannel(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("удаление канала: %w", err)
	}
	if !removed {
		return Outcome{Reply: "❌ Kanal topilmadi.", Done: true}, nil
	}
	return Outcome{Reply: "✅ Kanal o'chirildi.", Done: true}, nil
}

func (e *Engine) addPromoTitle(s *session, ev Event) (Outcome, error) {
	s.promoTitle = strings.TrimSpace(ev.Text)
	s.step = StepAddPromoURL
	return Outcome{Reply: "Endi Instagram URL yuboring (https://instagram.com/...):"}, nil
}

func (e *Engine) addPromoURL(ctx context.Context, s *session, ev Event) (Outcome, error) {
	url := strings.TrimSpace(ev.Text)
	if !strings.HasPrefix(url, "http") {
		return Outcome{Reply: "❌ To'g'ri URL yuboring (http/https)."}, nil
	}
	title := s.promoTitle
	if title == "" {
		title = "Instagram"
	}
	if _, err := e.promos.AddPromoLink(ctx, title, url); err != nil {
		return Outcome{}, fmt.Errorf("сохранение ссылки: %w", err)
	}
	return Outcome{Reply: "✅ Instagram link qo'shildi.", Done: true}, nil
}

func (e *Engine) removePromo(ctx context.Context, ev Event) (Outcome, error) {
	id, ok := parseID(ev.Text)
	if !ok {
		return Outcome{Reply: "❌ Faqat raqam yuboring.", Done: true}, nil
	}
	removed, err := e.promos.RemovePromoLink(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("удаление ссылки: %w", err)
	}
	if !removed {
		return Outcome{Reply: "❌ ID topilmadi.", Done: true}, nil
	}
	return Outcome{Reply: "✅ O'chirildi.", Done: true}, nil
}

func (e *Engine) addMovie(ctx context.Context, userID int64, ev Event) (Outcome, error) {
	if ev.FileID == "" {
		return Outcome{Reply: "❌ Video yuboring."}, nil
	}
	title, description := SplitCaption(ev.Caption)
	if title == "" {
		count, err := e.content.CountContent(ctx, domain.ContentMovie)
		if err != nil {
			return Outcome{}, fmt.Errorf("подсчёт фильмов: %w", err)
		}
		title = fmt.Sprintf("Kino #%d", count+1)
	}
	id, err := e.content.AddContent(ctx, domain.Content{
		FileID:      ev.FileID,
		Title:       title,
		Description: description,
		Kind:        domain.ContentMovie,
		AddedBy:     userID,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("сохранение фильма: %w", err)
	}
	reply := fmt.Sprintf("✅ Kino qo'shildi!\n\nID: %d\nNomi: %s", id, title)
	if description != "" {
		reply += "\nTavsif: " + description
	}
	reply += fmt.Sprintf("\n\nUserlar %d yuborib ko'radi.", id)
	return Outcome{Reply: reply, Done: true}, nil
}

func (e *Engine) addSerialTitle(s *session, ev Event) (Outcome, error) {
	title := strings.TrimSpace(ev.Text)
	if title == "" {
		return Outcome{Reply: "❌ Matn yuboring."}, nil
	}
	s.serialTitle = title
	s.step = StepAddSerialDesc
	return Outcome{Reply: fmt.Sprintf("📝 '%s' uchun tavsif yuboring:", title)}, nil
}

func (e *Engine) addSerialDesc(ctx context.Context, userID int64, s *session, ev Event) (Outcome, error) {
	description := strings.TrimSpace(ev.Text)
	if description == "" {
		return Outcome{Reply: "❌ Matn yuboring."}, nil
	}
	id, err := e.content.AddContent(ctx, domain.Content{
		Title:       s.serialTitle,
		Description: description,
		Kind:        domain.ContentSerial,
		AddedBy:     userID,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("сохранение сериала: %w", err)
	}
	return Outcome{Reply: fmt.Sprintf(
		"✅ Serial qo'shildi!\n\nID: %d\nNomi: %s\nTavsif: %s\n\nEndi 'Serialga qism qo'shish' orqali qismlar qo'shasiz.",
		id, s.serialTitle, description), Done: true}, nil
}

func (e *Engine) episodeSerial(ctx context.Context, s *session, ev Event) (Outcome, error) {
	id, ok := parseID(ev.Text)
	if !ok {
		return Outcome{Reply: "❌ Faqat raqam yuboring."}, nil
	}
	content, err := e.content.GetContent(ctx, id)
	if err != nil || content.Kind != domain.ContentSerial {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return Outcome{}, fmt.Errorf("поиск сериала: %w", err)
		}
		return Outcome{Reply: "❌ Bunday serial topilmadi."}, nil
	}
	count, err := e.content.CountEpisodes(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("подсчёт серий: %w", err)
	}
	s.serialID = id
	s.nextEpisode = int(count) + 1
	s.step = StepEpisodeVideo
	return Outcome{Reply: fmt.Sprintf(
		"📺 Serial: %s\n🔢 Keyingi qism: %d\n\nEndi video yuboring.\nCaption ixtiyoriy: qism nomi",
		content.Title, s.nextEpisode)}, nil
}

func (e *Engine) episodeVideo(ctx context.Context, userID int64, s *session, ev Event) (Outcome, error) {
	if ev.FileID == "" {
		return Outcome{Reply: "❌ Video yuboring."}, nil
	}
	title := strings.TrimSpace(ev.Caption)
	if title == "" {
		title = fmt.Sprintf("%d-qism", s.nextEpisode)
	}
	err := e.content.AddEpisode(ctx, domain.Episode{
		SerialID: s.serialID,
		Number:   s.nextEpisode,
		FileID:   ev.FileID,
		Title:    title,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("сохранение серии: %w", err)
	}
	return Outcome{Reply: "✅ Qism qo'shildi!", Done: true}, nil
}

func (e *Engine) removeContent(ctx context.Context, ev Event) (Outcome, error) {
	id, ok := parseID(ev.Text)
	if !ok {
		return Outcome{Reply: "❌ Faqat raqam yuboring.", Done: true}, nil
	}
	if _, err := e.content.GetContent(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Outcome{Reply: "❌ Kontent topilmadi.", Done: true}, nil
		}
		return Outcome{}, fmt.Errorf("поиск контента: %w", err)
	}
	removed, err := e.content.DeleteContent(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("удаление контента: %w", err)
	}
	if !removed {
		return Outcome{Reply: "❌ O'chmadi.", Done: true}, nil
	}
	return Outcome{Reply: "✅ O'chirildi.", Done: true}, nil
}

func (e *Engine) enqueueBroadcast(ctx context.Context, ev Event) (Outcome, error) {
	if _, err := e.broadcast.Enqueue(ctx, ev.ChatID, ev.ChatID, ev.MessageID); err != nil {
		return Outcome{}, err
	}
	return Outcome{Reply: "📢 Xabar navbatga qo'yildi. Natija tayyor bo'lgach yuboriladi.", Done: true}, nil
}
