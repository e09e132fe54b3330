package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tg-kino-bot/internal/domain"
	"tg-kino-bot/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.UserRepo        = (*Postgres)(nil)
	_ domain.AdminRepo       = (*Postgres)(nil)
	_ domain.ChannelRepo     = (*Postgres)(nil)
	_ domain.JoinRequestRepo = (*Postgres)(nil)
	_ domain.PromoRepo       = (*Postgres)(nil)
	_ domain.ContentRepo     = (*Postgres)(nil)
	_ domain.StatsRepo       = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// UpsertUser реализует domain.UserRepo. Второй результат — true только
// при самом первом контакте пользователя с ботом.
func (p *Postgres) UpsertUser(ctx context.Context, profile domain.TelegramProfile) (domain.User, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	username := strings.TrimSpace(profile.Username)
	firstName := strings.TrimSpace(profile.FirstName)
	lastName := strings.TrimSpace(profile.LastName)

	var (
		user    domain.User
		created bool
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO users (user_id, username, first_name, last_name, joined_at, last_active)
VALUES ($1, NULLIF($2,''), NULLIF($3,''), NULLIF($4,''), now(), now())
ON CONFLICT (user_id) DO UPDATE SET
    username = EXCLUDED.username,
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    last_active = now()
RETURNING user_id, COALESCE(username,''), COALESCE(first_name,''), COALESCE(last_name,''), joined_at, last_active, (xmax = 0) AS inserted
`, profile.ID, username, firstName, lastName).Scan(
		&user.ID, &user.Username, &user.FirstName, &user.LastName,
		&user.JoinedAt, &user.LastActive, &created,
	)
	metrics.ObserveNetworkRequest("postgres", "users_upsert", "users", start, err)
	if err != nil {
		return domain.User{}, false, err
	}
	user.StartedOnce = !created

	if created {
		start = time.Now()
		_, err = p.pool.Exec(ctx, `INSERT INTO user_activity (user_id, action) VALUES ($1, 'start')`, user.ID)
		metrics.ObserveNetworkRequest("postgres", "user_activity_insert", "user_activity", start, err)
		if err != nil {
			return domain.User{}, false, err
		}
	}
	return user, created, nil
}

// TouchActivity обновляет отметку последней активности.
func (p *Postgres) TouchActivity(ctx context.Context, userID int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `UPDATE users SET last_active = now() WHERE user_id=$1`, userID)
	metrics.ObserveNetworkRequest("postgres", "users_touch", "users", start, err)
	return err
}

// ListUserIDs возвращает идентификаторы всех известных пользователей.
func (p *Postgres) ListUserIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT user_id FROM users ORDER BY joined_at`)
	metrics.ObserveNetworkRequest("postgres", "users_list_ids", "users", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsAdmin реализует domain.AdminRepo.
func (p *Postgres) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admins WHERE user_id=$1)`, userID).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "admins_exists", "admins", start, err)
	return exists, err
}

// ListAdmins возвращает администраторов в порядке добавления.
func (p *Postgres) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT user_id, added_at FROM admins ORDER BY added_at`)
	metrics.ObserveNetworkRequest("postgres", "admins_list", "admins", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []domain.Admin
	for rows.Next() {
		var a domain.Admin
		if err := rows.Scan(&a.UserID, &a.AddedAt); err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// AddAdmin добавляет администратора; false — уже был.
func (p *Postgres) AddAdmin(ctx context.Context, userID int64) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `INSERT INTO admins (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	metrics.ObserveNetworkRequest("postgres", "admins_insert", "admins", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveAdmin удаляет администратора; false — не найден.
func (p *Postgres) RemoveAdmin(ctx context.Context, userID int64) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM admins WHERE user_id=$1`, userID)
	metrics.ObserveNetworkRequest("postgres", "admins_delete", "admins", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// EnsurePrimaryAdmin сидирует главного администратора при старте.
func (p *Postgres) EnsurePrimaryAdmin(ctx context.Context, userID int64) error {
	if userID == 0 {
		return nil
	}
	_, err := p.AddAdmin(ctx, userID)
	return err
}

// ListChannels возвращает обязательные каналы в порядке добавления.
func (p *Postgres) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT chat_id, title, COALESCE(username,''), COALESCE(invite_link,''), added_at
FROM channels ORDER BY added_at
`)
	metrics.ObserveNetworkRequest("postgres", "channels_list", "channels", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ChatID, &ch.Title, &ch.Username, &ch.InviteLink, &ch.AddedAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// UpsertChannel сохраняет канал, обновляя данные при повторном добавлении.
func (p *Postgres) UpsertChannel(ctx context.Context, ch domain.Channel) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO channels (chat_id, title, username, invite_link)
VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''))
ON CONFLICT (chat_id) DO UPDATE SET
    title = EXCLUDED.title,
    username = EXCLUDED.username,
    invite_link = EXCLUDED.invite_link
`, ch.ChatID, ch.Title, ch.Username, ch.InviteLink)
	metrics.ObserveNetworkRequest("postgres", "channels_upsert", "channels", start, err)
	return err
}

// RemoveChannel удаляет канал; false — не найден.
func (p *Postgres) RemoveChannel(ctx context.Context, chatID int64) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM channels WHERE chat_id=$1`, chatID)
	metrics.ObserveNetworkRequest("postgres", "channels_delete", "channels", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SaveJoinRequest фиксирует заявку на вступление. Повторная заявка
// той же пары не ошибка.
func (p *Postgres) SaveJoinRequest(ctx context.Context, chatID, userID int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO channel_join_requests (chat_id, user_id) VALUES ($1, $2)
ON CONFLICT (chat_id, user_id) DO NOTHING
`, chatID, userID)
	metrics.ObserveNetworkRequest("postgres", "channel_join_requests_insert", "channel_join_requests", start, err)
	return err
}

// HasJoinRequest проверяет, подавал ли пользователь заявку в канал.
func (p *Postgres) HasJoinRequest(ctx context.Context, chatID, userID int64) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM channel_join_requests WHERE chat_id=$1 AND user_id=$2)
`, chatID, userID).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "channel_join_requests_exists", "channel_join_requests", start, err)
	return exists, err
}

// AddPromoLink сохраняет рекламную ссылку и возвращает её id.
func (p *Postgres) AddPromoLink(ctx context.Context, title, url string) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var id int64
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO instagram_links (title, url) VALUES ($1, $2) RETURNING id
`, title, url).Scan(&id)
	metrics.ObserveNetworkRequest("postgres", "instagram_links_insert", "instagram_links", start, err)
	return id, err
}

// RemovePromoLink удаляет ссылку; false — не найдена.
func (p *Postgres) RemovePromoLink(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM instagram_links WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "instagram_links_delete", "instagram_links", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListPromoLinks возвращает ссылки в порядке добавления.
func (p *Postgres) ListPromoLinks(ctx context.Context) ([]domain.PromoLink, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT id, title, url, added_at FROM instagram_links ORDER BY added_at`)
	metrics.ObserveNetworkRequest("postgres", "instagram_links_list", "instagram_links", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.PromoLink
	for rows.Next() {
		var l domain.PromoLink
		if err := rows.Scan(&l.ID, &l.Title, &l.URL, &l.AddedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// AddContent сохраняет фильм или сериал и возвращает присвоенный код.
func (p *Postgres) AddContent(ctx context.Context, c domain.Content) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var id int64
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO content (file_id, title, description, kind, added_by)
VALUES (NULLIF($1,''), $2, $3, $4, $5)
RETURNING id
`, c.FileID, c.Title, c.Description, string(c.Kind), c.AddedBy).Scan(&id)
	metrics.ObserveNetworkRequest("postgres", "content_insert", "content", start, err)
	return id, err
}

// GetContent возвращает контент по коду.
func (p *Postgres) GetContent(ctx context.Context, id int64) (domain.Content, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		c    domain.Content
		kind string
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, COALESCE(file_id,''), title, COALESCE(description,''), kind, added_by, added_at, downloads_count
FROM content WHERE id=$1
`, id).Scan(&c.ID, &c.FileID, &c.Title, &c.Description, &kind, &c.AddedBy, &c.AddedAt, &c.Downloads)
	metrics.ObserveNetworkRequest("postgres", "content_get", "content", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Content{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Content{}, err
	}
	c.Kind = domain.ContentKind(kind)
	return c, nil
}

// DeleteContent удаляет контент каскадно вместе с сериями и записями
// о скачиваниях; false — не найден.
func (p *Postgres) DeleteContent(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "content", start, err)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	start = time.Now()
	_, err = tx.Exec(ctx, `DELETE FROM serial_parts WHERE serial_id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "serial_parts_delete", "serial_parts", start, err)
	if err != nil {
		return false, err
	}

	start = time.Now()
	_, err = tx.Exec(ctx, `DELETE FROM content_downloads WHERE content_id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "content_downloads_delete", "content_downloads", start, err)
	if err != nil {
		return false, err
	}

	start = time.Now()
	tag, err := tx.Exec(ctx, `DELETE FROM content WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "content_delete", "content", start, err)
	if err != nil {
		return false, err
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "content", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListContent возвращает каталог одного типа в порядке кодов.
func (p *Postgres) ListContent(ctx context.Context, kind domain.ContentKind) ([]domain.Content, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, COALESCE(file_id,''), title, COALESCE(description,''), kind, added_by, added_at, downloads_count
FROM content WHERE kind=$1 ORDER BY id
`, string(kind))
	metrics.ObserveNetworkRequest("postgres", "content_list", "content", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Content
	for rows.Next() {
		var (
			c domain.Content
			k string
		)
		if err := rows.Scan(&c.ID, &c.FileID, &c.Title, &c.Description, &k, &c.AddedBy, &c.AddedAt, &c.Downloads); err != nil {
			return nil, err
		}
		c.Kind = domain.ContentKind(k)
		items = append(items, c)
	}
	return items, rows.Err()
}

// CountContent считает каталог одного типа.
func (p *Postgres) CountContent(ctx context.Context, kind domain.ContentKind) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var count int64
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM content WHERE kind=$1`, string(kind)).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "content_count", "content", start, err)
	return count, err
}

// AddEpisode сохраняет серию сериала.
func (p *Postgres) AddEpisode(ctx context.Context, ep domain.Episode) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO serial_parts (serial_id, part_number, file_id, title)
VALUES ($1, $2, $3, $4)
`, ep.SerialID, ep.Number, ep.FileID, ep.Title)
	metrics.ObserveNetworkRequest("postgres", "serial_parts_insert", "serial_parts", start, err)
	return err
}

// ListEpisodes возвращает серии сериала по возрастанию номеров.
func (p *Postgres) ListEpisodes(ctx context.Context, serialID int64) ([]domain.Episode, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT serial_id, part_number, file_id, title
FROM serial_parts WHERE serial_id=$1 ORDER BY part_number
`, serialID)
	metrics.ObserveNetworkRequest("postgres", "serial_parts_list", "serial_parts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []domain.Episode
	for rows.Next() {
		var ep domain.Episode
		if err := rows.Scan(&ep.SerialID, &ep.Number, &ep.FileID, &ep.Title); err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// CountEpisodes считает серии сериала.
func (p *Postgres) CountEpisodes(ctx context.Context, serialID int64) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var count int64
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM serial_parts WHERE serial_id=$1`, serialID).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "serial_parts_count", "serial_parts", start, err)
	return count, err
}

// RegisterDownload отмечает скачивание. Счётчик контента растёт только
// на первом скачивании пары (контент, пользователь).
func (p *Postgres) RegisterDownload(ctx context.Context, contentID, userID int64) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "content_downloads", start, err)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	start = time.Now()
	tag, err := tx.Exec(ctx, `
INSERT INTO content_downloads (content_id, user_id) VALUES ($1, $2)
ON CONFLICT (content_id, user_id) DO NOTHING
`, contentID, userID)
	metrics.ObserveNetworkRequest("postgres", "content_downloads_insert", "content_downloads", start, err)
	if err != nil {
		return false, err
	}
	first := tag.RowsAffected() > 0

	if first {
		start = time.Now()
		_, err = tx.Exec(ctx, `UPDATE content SET downloads_count = downloads_count + 1 WHERE id=$1`, contentID)
		metrics.ObserveNetworkRequest("postgres", "content_downloads_bump", "content", start, err)
		if err != nil {
			return false, err
		}
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "content_downloads", start, err)
	if err != nil {
		return false, err
	}
	return first, nil
}

// Statistics собирает агрегаты для админ-панели одним запросом.
func (p *Postgres) Statistics(ctx context.Context) (domain.Stats, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var st domain.Stats
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT
    (SELECT COUNT(*) FROM users),
    (SELECT COUNT(*) FROM users WHERE joined_at >= now() - interval '30 days'),
    (SELECT COUNT(*) FROM users WHERE joined_at >= now() - interval '7 days'),
    (SELECT COUNT(*) FROM users WHERE joined_at >= now() - interval '1 day'),
    (SELECT COUNT(*) FROM users WHERE last_active >= now() - interval '7 days'),
    (SELECT COUNT(*) FROM content WHERE kind='movie'),
    (SELECT COUNT(*) FROM content WHERE kind='serial')
`).Scan(&st.TotalUsers, &st.MonthlyUsers, &st.WeeklyUsers, &st.DailyUsers, &st.ActiveUsers, &st.Movies, &st.Serials)
	metrics.ObserveNetworkRequest("postgres", "statistics", "users", start, err)
	return st, err
}
