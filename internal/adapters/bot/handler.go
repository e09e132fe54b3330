package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-kino-bot/internal/adapters/telegram"
	"tg-kino-bot/internal/domain"
	"tg-kino-bot/internal/infra/metrics"
	"tg-kino-bot/internal/usecase/access"
	"tg-kino-bot/internal/usecase/catalog"
	"tg-kino-bot/internal/usecase/workflow"
)

// Handler обслуживает вебхук бота.
type Handler struct {
	bot       *tgbotapi.BotAPI
	log       zerolog.Logger
	users     domain.UserRepo
	admins    domain.AdminRepo
	channels  domain.ChannelRepo
	promos    domain.PromoRepo
	content   domain.ContentRepo
	stats     domain.StatsRepo
	gate      *access.Gate
	engine    *workflow.Engine
	catalogUC *catalog.Service
}

// NewHandler создаёт обработчик.
func NewHandler(bot *tgbotapi.BotAPI, log zerolog.Logger, users domain.UserRepo, admins domain.AdminRepo, channels domain.ChannelRepo, promos domain.PromoRepo, content domain.ContentRepo, stats domain.StatsRepo, gate *access.Gate, engine *workflow.Engine, catalogUC *catalog.Service) *Handler {
	return &Handler{
		bot:       bot,
		log:       log,
		users:     users,
		admins:    admins,
		channels:  channels,
		promos:    promos,
		content:   content,
		stats:     stats,
		gate:      gate,
		engine:    engine,
		catalogUC: catalogUC,
	}
}

// HandleUpdate обрабатывает входящий апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.ChatJoinRequest != nil:
		req := upd.ChatJoinRequest
		if err := h.gate.RecordJoinRequest(ctx, req.Chat.ID, req.From.ID); err != nil {
			h.log.Error().Err(err).Int64("chat_id", req.Chat.ID).Msg("не удалось сохранить заявку")
		}
	case upd.Message != nil:
		h.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || !msg.Chat.IsPrivate() {
		return
	}
	text := strings.TrimSpace(msg.Text)

	switch {
	case strings.HasPrefix(text, "/start"):
		h.handleStart(ctx, msg)
		return
	case strings.HasPrefix(text, "/admin"):
		h.handleAdminCommand(ctx, msg.Chat.ID, msg.From.ID)
		return
	}

	if h.engine.Active(msg.From.ID) {
		h.handleDialog(ctx, msg)
		return
	}
	h.deliver(ctx, msg.Chat.ID, msg.From.ID, text)
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	profile := domain.TelegramProfile{
		ID:        msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	}
	user, created, err := h.users.UpsertUser(ctx, profile)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", profile.ID).Msg("не удалось сохранить пользователя")
		h.reply(msg.Chat.ID, "❌ Xatolik yuz berdi. Keyinroq urinib ko'ring.", nil)
		return
	}
	h.notifyAdmins(ctx, user, created)

	unmet, err := h.gate.Unmet(ctx, msg.From.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось проверить подписки")
	}
	if len(unmet) > 0 {
		if isAdmin, _ := h.admins.IsAdmin(ctx, msg.From.ID); !isAdmin {
			h.sendSubscribePrompt(ctx, msg.Chat.ID, unmet)
			return
		}
	}
	h.reply(msg.Chat.ID, welcomeText(), nil)
}

// notifyAdmins рассылает администраторам уведомление о каждом /start.
// Ошибки доставки игнорируются.
func (h *Handler) notifyAdmins(ctx context.Context, user domain.User, created bool) {
	admins, err := h.admins.ListAdmins(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось получить администраторов")
		return
	}
	text := adminNotificationText(user, created, time.Now().UTC())
	for _, admin := range admins {
		h.reply(admin.UserID, text, nil)
	}
}

func adminNotificationText(user domain.User, created bool, at time.Time) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = "—"
	}
	username := user.Username
	if username == "" {
		username = "—"
	} else {
		username = "@" + username
	}
	header := "▶️ /start"
	if created {
		header = "🆕 Yangi foydalanuvchi!"
	}
	return fmt.Sprintf("%s\n\nID: %d\nIsmi: %s\nUsername: %s\nVaqt (UTC): %s",
		header, user.ID, name, username, at.Format("2006-01-02 15:04:05"))
}

func (h *Handler) handleAdminCommand(ctx context.Context, chatID, userID int64) {
	isAdmin, err := h.admins.IsAdmin(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось проверить права")
		return
	}
	if !isAdmin {
		h.reply(chatID, "❌ Siz admin emassiz.", nil)
		return
	}
	kb := adminPanelKeyboard()
	h.reply(chatID, "⚙️ Admin panel", &kb)
}

// handleDialog передаёт событие открытому диалогу движка.
func (h *Handler) handleDialog(ctx context.Context, msg *tgbotapi.Message) {
	ev := workflow.Event{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      strings.TrimSpace(msg.Text),
		Caption:   strings.TrimSpace(msg.Caption),
	}
	if msg.Video != nil {
		ev.FileID = msg.Video.FileID
	}
	out, err := h.engine.Handle(ctx, msg.From.ID, ev)
	if err != nil {
		if errors.Is(err, workflow.ErrNoDialog) {
			h.deliver(ctx, msg.Chat.ID, msg.From.ID, ev.Text)
			return
		}
		h.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("ошибка диалога")
		h.reply(msg.Chat.ID, "❌ Xatolik yuz berdi. Keyinroq urinib ko'ring.", nil)
		return
	}
	if out.Done {
		h.reply(msg.Chat.ID, out.Reply, nil)
		return
	}
	kb := cancelKeyboard()
	h.reply(msg.Chat.ID, out.Reply, &kb)
}

// deliver обрабатывает ввод кода обычным пользователем.
func (h *Handler) deliver(ctx context.Context, chatID, userID int64, code string) {
	if code == "" {
		return
	}
	d, err := h.catalogUC.Deliver(ctx, userID, code)
	if err != nil {
		h.deliverError(ctx, chatID, err)
		return
	}
	h.sendDelivery(chatID, d)
}

func (h *Handler) deliverError(ctx context.Context, chatID int64, err error) {
	var subErr *catalog.SubscriptionRequiredError
	switch {
	case errors.As(err, &subErr):
		h.sendSubscribePrompt(ctx, chatID, subErr.Unmet)
	case errors.Is(err, catalog.ErrInvalidCode):
		h.reply(chatID, "❌ Faqat raqamli kod yuboring.\nMasalan: 123", nil)
	case errors.Is(err, domain.ErrNotFound):
		h.reply(chatID, "❌ Bunday kod topilmadi. Qayta tekshirib ko'ring.", nil)
	case errors.Is(err, catalog.ErrNoEpisodes):
		h.reply(chatID, "❌ Bu serialga hali qismlar qo'shilmagan.", nil)
	case errors.Is(err, catalog.ErrEpisodeRange), errors.Is(err, catalog.ErrBadToken):
		h.reply(chatID, "❌ Bunday qism topilmadi.", nil)
	default:
		h.log.Error().Err(err).Msg("не удалось выдать контент")
		h.reply(chatID, "❌ Xatolik yuz berdi. Keyinroq urinib ko'ring.", nil)
	}
}

// sendDelivery отправляет видео с защитой от пересылки. Для сериалов
// добавляется клавиатура навигации по токенам.
func (h *Handler) sendDelivery(chatID int64, d catalog.Delivery) {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(d.FileID))
	video.Caption = d.Caption
	video.ProtectContent = true
	if kb := navKeyboard(d.PrevToken, d.NextToken); kb != nil {
		video.ReplyMarkup = kb
	}
	start := time.Now()
	_, err := h.bot.Send(video)
	metrics.ObserveNetworkRequest("telegram_bot", "send_video", strconv.FormatInt(chatID, 10), start, err)
	if err != nil {
		metrics.BotSendErrors.Inc()
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("не удалось отправить видео")
	}
}

func (h *Handler) sendSubscribePrompt(ctx context.Context, chatID int64, unmet []domain.Channel) {
	promos, err := h.promos.ListPromoLinks(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось получить рекламные ссылки")
	}
	kb := subscribeKeyboard(unmet, promos)
	h.reply(chatID, "⚠️ Botdan foydalanish uchun quyidagi kanallarga obuna bo'ling va «✅ Tekshirish» tugmasini bosing.", &kb)
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answerCallback(cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID
	data := cb.Data

	switch {
	case data == "check_subscription":
		h.handleCheckSubscription(ctx, cb)
	case catalog.IsPageToken(data):
		d, err := h.catalogUC.Page(ctx, userID, data)
		if err != nil {
			h.deliverError(ctx, chatID, err)
		} else {
			h.sendDelivery(chatID, d)
		}
	case data == "cancel_action":
		h.engine.Cancel(userID)
		kb := adminPanelKeyboard()
		h.editText(chatID, cb.Message.MessageID, "❌ Bekor qilindi.\n\n⚙️ Admin panel", &kb)
	case data == "back_to_main":
		kb := adminPanelKeyboard()
		h.editText(chatID, cb.Message.MessageID, "⚙️ Admin panel", &kb)
	case data == "admin_manage":
		h.showAdmins(ctx, cb)
	case data == "channel_manage":
		h.showChannels(ctx, cb)
	case data == "instagram_manage":
		h.showPromoLinks(ctx, cb)
	case data == "content_manage":
		kb := contentManageKeyboard()
		h.editText(chatID, cb.Message.MessageID, "🎬 Kontent boshqaruvi", &kb)
	case data == "movie_list":
		h.showContentList(ctx, cb, domain.ContentMovie)
	case data == "serial_list":
		h.showContentList(ctx, cb, domain.ContentSerial)
	case data == "stats":
		h.showStats(ctx, cb)
	case data == "add_admin":
		h.beginFlow(ctx, cb, workflow.StepAddAdmin, "Yangi admin ID raqamini yuboring:")
	case data == "remove_admin":
		h.beginFlow(ctx, cb, workflow.StepRemoveAdmin, "O'chiriladigan admin ID raqamini yuboring:")
	case data == "add_channel":
		h.beginFlow(ctx, cb, workflow.StepAddChannel, "Kanal @username yoki chat ID yuboring:\nMasalan: @kanal yoki -1001234567890")
	case data == "remove_channel":
		h.beginFlow(ctx, cb, workflow.StepRemoveChannel, "O'chiriladigan kanal chat ID raqamini yuboring:")
	case data == "ig_add":
		h.beginFlow(ctx, cb, workflow.StepAddPromoTitle, "Tugma nomini yuboring (masalan: Instagram):")
	case data == "ig_remove":
		h.beginFlow(ctx, cb, workflow.StepRemovePromo, "O'chiriladigan link ID raqamini yuboring:")
	case data == "add_movie":
		h.beginFlow(ctx, cb, workflow.StepAddMovie, "🎬 Kino videosini yuboring.\nCaption: Nomi - Tavsif (ixtiyoriy)")
	case data == "add_serial":
		h.beginFlow(ctx, cb, workflow.StepAddSerialTitle, "📺 Serial nomini yuboring:")
	case data == "add_serial_part":
		h.beginFlow(ctx, cb, workflow.StepEpisodeSerial, "Serial ID raqamini yuboring:")
	case data == "remove_content":
		h.beginFlow(ctx, cb, workflow.StepRemoveContent, "O'chiriladigan kontent ID raqamini yuboring:")
	case data == "broadcast":
		h.beginFlow(ctx, cb, workflow.StepBroadcast, "📨 Yuboriladigan xabarni shu yerga yuboring:")
	}

	h.answerCallback(cb.ID, "")
}

// handleCheckSubscription перепроверяет подписки и правит сообщение
// на месте, не плодя новых.
func (h *Handler) handleCheckSubscription(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	unmet, err := h.gate.Unmet(ctx, cb.From.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось проверить подписки")
		h.answerCallback(cb.ID, "❌ Xatolik. Keyinroq urinib ko'ring.")
		return
	}
	if len(unmet) > 0 {
		promos, perr := h.promos.ListPromoLinks(ctx)
		if perr != nil {
			h.log.Error().Err(perr).Msg("не удалось получить рекламные ссылки")
		}
		kb := subscribeKeyboard(unmet, promos)
		h.editText(chatID, cb.Message.MessageID, "⚠️ Hali hamma kanallarga obuna emassiz:", &kb)
		h.answerCallback(cb.ID, "❌ Obuna to'liq emas")
		return
	}
	st, serr := h.stats.Statistics(ctx)
	if serr != nil {
		h.log.Error().Err(serr).Msg("не удалось собрать статистику")
	}
	isAdmin, aerr := h.admins.IsAdmin(ctx, cb.From.ID)
	if aerr != nil {
		h.log.Error().Err(aerr).Msg("не удалось проверить права")
	}
	h.editText(chatID, cb.Message.MessageID, subscriptionSuccessText(st, isAdmin), nil)
	h.answerCallback(cb.ID, "✅")
}

// subscriptionSuccessText — текст после подтверждённой подписки:
// приветствие, размер каталога и подсказка про панель для админов.
func subscriptionSuccessText(st domain.Stats, isAdmin bool) string {
	text := fmt.Sprintf("✅ Obuna tasdiqlandi!\n\n%s\n\n🎬 Kinolar: %d\n📺 Seriallar: %d",
		welcomeText(), st.Movies, st.Serials)
	if isAdmin {
		text += "\n\n/admin — boshqaruv paneli"
	}
	return text
}

func (h *Handler) beginFlow(ctx context.Context, cb *tgbotapi.CallbackQuery, step workflow.Step, prompt string) {
	if err := h.engine.Begin(ctx, cb.From.ID, step); err != nil {
		if errors.Is(err, workflow.ErrNotAdmin) {
			h.answerCallback(cb.ID, "❌ Siz admin emassiz.")
			return
		}
		h.log.Error().Err(err).Msg("не удалось открыть диалог")
		h.answerCallback(cb.ID, "❌ Xatolik")
		return
	}
	kb := cancelKeyboard()
	h.editText(cb.Message.Chat.ID, cb.Message.MessageID, prompt, &kb)
}

func (h *Handler) showAdmins(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	admins, err := h.admins.ListAdmins(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось получить администраторов")
		return
	}
	var b strings.Builder
	b.WriteString("👥 Adminlar:\n\n")
	for _, a := range admins {
		fmt.Fprintf(&b, "• %d\n", a.UserID)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Qo'shish", "add_admin"),
			tgbotapi.NewInlineKeyboardButtonData("➖ O'chirish", "remove_admin"),
		),
		backRow(),
	)
	h.editText(cb.Message.Chat.ID, cb.Message.MessageID, b.String(), &kb)
}

func (h *Handler) showChannels(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	channels, err := h.channels.ListChannels(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось получить каналы")
		return
	}
	var b strings.Builder
	b.WriteString("📢 Majburiy kanallar:\n\n")
	if len(channels) == 0 {
		b.WriteString("Hali kanal qo'shilmagan.\n")
	}
	for _, ch := range channels {
		fmt.Fprintf(&b, "• %s\n  chat ID: %d\n", ch.Title, ch.ChatID)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Qo'shish", "add_channel"),
			tgbotapi.NewInlineKeyboardButtonData("➖ O'chirish", "remove_channel"),
		),
		backRow(),
	)
	h.editText(cb.Message.Chat.ID, cb.Message.MessageID, b.String(), &kb)
}

func (h *Handler) showPromoLinks(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	links, err := h.promos.ListPromoLinks(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось получить рекламные ссылки")
		return
	}
	var b strings.Builder
	b.WriteString("📸 Instagram linklar:\n\n")
	if len(links) == 0 {
		b.WriteString("Hali link qo'shilmagan.\n")
	}
	for _, l := range links {
		fmt.Fprintf(&b, "%d. %s\n  %s\n", l.ID, l.Title, l.URL)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Qo'shish", "ig_add"),
			tgbotapi.NewInlineKeyboardButtonData("➖ O'chirish", "ig_remove"),
		),
		backRow(),
	)
	h.editText(cb.Message.Chat.ID, cb.Message.MessageID, b.String(), &kb)
}

func (h *Handler) showContentList(ctx context.Context, cb *tgbotapi.CallbackQuery, kind domain.ContentKind) {
	items, err := h.content.ListContent(ctx, kind)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось получить каталог")
		return
	}
	var b strings.Builder
	if kind == domain.ContentMovie {
		b.WriteString("🎬 Kinolar:\n\n")
	} else {
		b.WriteString("📺 Seriallar:\n\n")
	}
	if len(items) == 0 {
		b.WriteString("Ro'yxat bo'sh.\n")
	}
	for _, c := range items {
		var episodes int64
		if c.Kind == domain.ContentSerial {
			episodes, err = h.content.CountEpisodes(ctx, c.ID)
			if err != nil {
				h.log.Error().Err(err).Int64("serial", c.ID).Msg("не удалось посчитать серии")
			}
		}
		b.WriteString(contentLine(c, episodes) + "\n")
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Orqaga", "content_manage"),
		),
	)
	h.editText(cb.Message.Chat.ID, cb.Message.MessageID, b.String(), &kb)
}

func (h *Handler) showStats(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	st, err := h.stats.Statistics(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось собрать статистику")
		return
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(backRow())
	h.editText(cb.Message.Chat.ID, cb.Message.MessageID, statsText(st), &kb)
}

func (h *Handler) reply(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	parts := telegram.SplitMessage(text)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 && keyboard != nil {
			msg.ReplyMarkup = keyboard
		}
		start := time.Now()
		_, err := h.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			metrics.BotSendErrors.Inc()
			h.log.Error().Err(err).Msg("не удалось отправить сообщение")
			return
		}
	}
}

// editText правит сообщение на месте; если Telegram отказал (например,
// текст не изменился), отправляет новое.
func (h *Handler) editText(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if keyboard != nil {
		edit.ReplyMarkup = keyboard
	}
	start := time.Now()
	_, err := h.bot.Send(edit)
	metrics.ObserveNetworkRequest("telegram_bot", "edit_message", strconv.FormatInt(chatID, 10), start, err)
	if err != nil {
		h.reply(chatID, text, keyboard)
	}
}

func (h *Handler) answerCallback(id, text string) {
	start := time.Now()
	_, err := h.bot.Request(tgbotapi.NewCallback(id, text))
	metrics.ObserveNetworkRequest("telegram_bot", "answer_callback", id, start, err)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось ответить на callback")
	}
}

// contentLine форматирует строку списка каталога. Для сериалов
// показывается число серий, для фильмов оно не выводится.
func contentLine(c domain.Content, episodes int64) string {
	if c.Kind == domain.ContentSerial {
		return fmt.Sprintf("%d — %s (%d qism, %d yuklab olish)", c.ID, c.Title, episodes, c.Downloads)
	}
	return fmt.Sprintf("%d — %s (%d yuklab olish)", c.ID, c.Title, c.Downloads)
}

func welcomeText() string {
	return "🎬 Botga xush kelibsiz!\n\nKino yoki serial kodini yuboring.\nMasalan: 123"
}

func statsText(st domain.Stats) string {
	return fmt.Sprintf(
		"📊 Statistika\n\n👥 Jami foydalanuvchilar: %d\n📅 Oxirgi 30 kun: %d\n📅 Oxirgi 7 kun: %d\n📅 Bugun: %d\n🔥 Faol (7 kun): %d\n\n🎬 Kinolar: %d\n📺 Seriallar: %d",
		st.TotalUsers, st.MonthlyUsers, st.WeeklyUsers, st.DailyUsers, st.ActiveUsers, st.Movies, st.Serials,
	)
}

// channelURL выбирает ссылку для кнопки подписки: invite link, затем
// публичный username, затем t.me/c/ как последний вариант.
func channelURL(ch domain.Channel) string {
	if ch.InviteLink != "" {
		return ch.InviteLink
	}
	if ch.Username != "" {
		return "https://t.me/" + strings.TrimPrefix(ch.Username, "@")
	}
	id := strconv.FormatInt(ch.ChatID, 10)
	id = strings.TrimPrefix(id, "-100")
	id = strings.TrimPrefix(id, "-")
	return "https://t.me/c/" + id
}

func subscribeKeyboard(unmet []domain.Channel, promos []domain.PromoLink) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range unmet {
		title := ch.Title
		if title == "" {
			title = "Kanal"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 "+title, channelURL(ch)),
		))
	}
	for _, l := range promos {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📸 "+l.Title, l.URL),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Tekshirish", "check_subscription"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func navKeyboard(prevToken, nextToken string) *tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	if prevToken != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Oldingi", prevToken))
	}
	if nextToken != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("➡️ Keyingi", nextToken))
	}
	if len(row) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(row)
	return &kb
}

func adminPanelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Adminlar", "admin_manage"),
			tgbotapi.NewInlineKeyboardButtonData("📢 Kanallar", "channel_manage"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📸 Instagram", "instagram_manage"),
			tgbotapi.NewInlineKeyboardButtonData("🎬 Kontent", "content_manage"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Statistika", "stats"),
			tgbotapi.NewInlineKeyboardButtonData("📨 Xabar yuborish", "broadcast"),
		),
	)
}

func contentManageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Kino", "add_movie"),
			tgbotapi.NewInlineKeyboardButtonData("➕ Serial", "add_serial"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Serial qismi", "add_serial_part"),
			tgbotapi.NewInlineKeyboardButtonData("➖ O'chirish", "remove_content"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎬 Kinolar", "movie_list"),
			tgbotapi.NewInlineKeyboardButtonData("📺 Seriallar", "serial_list"),
		),
		backRow(),
	)
}

func cancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Bekor qilish", "cancel_action"),
		),
	)
}

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Orqaga", "back_to_main"),
	)
}
