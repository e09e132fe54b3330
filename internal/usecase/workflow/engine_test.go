package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tg-kino-bot/internal/domain"
	"tg-kino-bot/internal/usecase/broadcast"
)

type fakeAdmins struct {
	set map[int64]bool
}

func (f *fakeAdmins) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return f.set[userID], nil
}

func (f *fakeAdmins) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	var out []domain.Admin
	for id := range f.set {
		out = append(out, domain.Admin{UserID: id})
	}
	return out, nil
}

func (f *fakeAdmins) AddAdmin(ctx context.Context, userID int64) (bool, error) {
	if f.set[userID] {
		return false, nil
	}
	f.set[userID] = true
	return true, nil
}

func (f *fakeAdmins) RemoveAdmin(ctx context.Context, userID int64) (bool, error) {
	if !f.set[userID] {
		return false, nil
	}
	delete(f.set, userID)
	return true, nil
}

func (f *fakeAdmins) EnsurePrimaryAdmin(ctx context.Context, userID int64) error {
	f.set[userID] = true
	return nil
}

type fakeChannels struct {
	saved []domain.Channel
}

func (f *fakeChannels) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	return f.saved, nil
}

func (f *fakeChannels) UpsertChannel(ctx context.Context, ch domain.Channel) error {
	f.saved = append(f.saved, ch)
	return nil
}

func (f *fakeChannels) RemoveChannel(ctx context.Context, chatID int64) (bool, error) {
	for i, ch := range f.saved {
		if ch.ChatID == chatID {
			f.saved = append(f.saved[:i], f.saved[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakePromos struct {
	links []domain.PromoLink
}

func (f *fakePromos) AddPromoLink(ctx context.Context, title, url string) (int64, error) {
	id := int64(len(f.links) + 1)
	f.links = append(f.links, domain.PromoLink{ID: id, Title: title, URL: url})
	return id, nil
}

func (f *fakePromos) RemovePromoLink(ctx context.Context, id int64) (bool, error) {
	for i, l := range f.links {
		if l.ID == id {
			f.links = append(f.links[:i], f.links[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePromos) ListPromoLinks(ctx context.Context) ([]domain.PromoLink, error) {
	return f.links, nil
}

type fakeContent struct {
	items    map[int64]domain.Content
	episodes map[int64][]domain.Episode
	nextID   int64
}

func newFakeContent() *fakeContent {
	return &fakeContent{items: make(map[int64]domain.Content), episodes: make(map[int64][]domain.Episode)}
}

func (f *fakeContent) AddContent(ctx context.Context, c domain.Content) (int64, error) {
	f.nextID++
	c.ID = f.nextID
	f.items[c.ID] = c
	return c.ID, nil
}

func (f *fakeContent) GetContent(ctx context.Context, id int64) (domain.Content, error) {
	c, ok := f.items[id]
	if !ok {
		return domain.Content{}, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeContent) DeleteContent(ctx context.Context, id int64) (bool, error) {
	_, ok := f.items[id]
	delete(f.items, id)
	delete(f.episodes, id)
	return ok, nil
}

func (f *fakeContent) ListContent(ctx context.Context, kind domain.ContentKind) ([]domain.Content, error) {
	var out []domain.Content
	for _, c := range f.items {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContent) CountContent(ctx context.Context, kind domain.ContentKind) (int64, error) {
	list, _ := f.ListContent(ctx, kind)
	return int64(len(list)), nil
}

func (f *fakeContent) AddEpisode(ctx context.Context, ep domain.Episode) error {
	f.episodes[ep.SerialID] = append(f.episodes[ep.SerialID], ep)
	return nil
}

func (f *fakeContent) ListEpisodes(ctx context.Context, serialID int64) ([]domain.Episode, error) {
	return f.episodes[serialID], nil
}

func (f *fakeContent) CountEpisodes(ctx context.Context, serialID int64) (int64, error) {
	return int64(len(f.episodes[serialID])), nil
}

func (f *fakeContent) RegisterDownload(ctx context.Context, contentID, userID int64) (bool, error) {
	return false, nil
}

type fakeResolver struct {
	chats map[string]domain.Channel
}

func (f *fakeResolver) ResolveChat(ctx context.Context, ident string) (domain.Channel, error) {
	ch, ok := f.chats[ident]
	if !ok {
		return domain.Channel{}, errors.New("chat not found")
	}
	return ch, nil
}

type fakeQueue struct {
	jobs []domain.BroadcastJob
}

func (f *fakeQueue) Enqueue(ctx context.Context, job domain.BroadcastJob) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) Pop(ctx context.Context) (domain.BroadcastJob, error) {
	return domain.BroadcastJob{}, context.Canceled
}

type fixture struct {
	engine   *Engine
	admins   *fakeAdmins
	channels *fakeChannels
	promos   *fakePromos
	content  *fakeContent
	queue    *fakeQueue
}

const (
	primaryAdminID = int64(1)
	adminID        = int64(2)
	outsiderID     = int64(100)
)

func newFixture() *fixture {
	f := &fixture{
		admins:   &fakeAdmins{set: map[int64]bool{primaryAdminID: true, adminID: true}},
		channels: &fakeChannels{},
		promos:   &fakePromos{},
		content:  newFakeContent(),
		queue:    &fakeQueue{},
	}
	f.engine = NewEngine(
		f.admins, f.channels, f.promos, f.content,
		&fakeResolver{chats: map[string]domain.Channel{
			"@kino": {ChatID: -100123, Title: "Kino Kanal", Username: "kino"},
		}},
		broadcast.NewService(f.queue),
		primaryAdminID, zerolog.Nop(),
	)
	return f
}

func handle(t *testing.T, e *Engine, userID int64, ev Event) Outcome {
	t.Helper()
	out, err := e.Handle(context.Background(), userID, ev)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	return out
}

func TestBeginRequiresAdmin(t *testing.T) {
	f := newFixture()
	err := f.engine.Begin(context.Background(), outsiderID, StepAddAdmin)
	if !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("ожидали ErrNotAdmin, получили %v", err)
	}
	if f.engine.Active(outsiderID) {
		t.Fatal("диалог не должен открыться")
	}
}

func TestAddChannelRejectsPrivateInvite(t *testing.T) {
	f := newFixture()
	if err := f.engine.Begin(context.Background(), adminID, StepAddChannel); err != nil {
		t.Fatal(err)
	}

	out := handle(t, f.engine, adminID, Event{Text: "https://t.me/+AbCdEf"})
	if out.Done {
		t.Fatal("ожидали остаться на первом шаге")
	}
	if len(f.channels.saved) != 0 {
		t.Fatal("канал не должен сохраниться")
	}
	if !f.engine.Active(adminID) {
		t.Fatal("диалог должен остаться открытым")
	}
}

func TestAddChannelHappyPath(t *testing.T) {
	f := newFixture()
	if err := f.engine.Begin(context.Background(), adminID, StepAddChannel); err != nil {
		t.Fatal(err)
	}

	out := handle(t, f.engine, adminID, Event{Text: "https://t.me/kino"})
	if out.Done {
		t.Fatal("ожидали переход ко второму шагу")
	}
	out = handle(t, f.engine, adminID, Event{Text: "SKIP"})
	if !out.Done {
		t.Fatal("ожидали завершение диалога")
	}
	if len(f.channels.saved) != 1 {
		t.Fatalf("ожидали один канал, получили %d", len(f.channels.saved))
	}
	ch := f.channels.saved[0]
	if ch.ChatID != -100123 || ch.InviteLink != "" {
		t.Fatalf("неверные данные канала: %+v", ch)
	}
	if f.engine.Active(adminID) {
		t.Fatal("диалог должен закрыться")
	}
}

func TestAddChannelResolveFailureAborts(t *testing.T) {
	f := newFixture()
	if err := f.engine.Begin(context.Background(), adminID, StepAddChannel); err != nil {
		t.Fatal(err)
	}

	out := handle(t, f.engine, adminID, Event{Text: "@nomalum"})
	if !out.Done {
		t.Fatal("ожидали прерывание диалога")
	}
	if len(f.channels.saved) != 0 {
		t.Fatal("частичный канал не должен сохраниться")
	}
	if f.engine.Active(adminID) {
		t.Fatal("диалог должен закрыться")
	}
}

func TestAddChannelWithInviteLink(t *testing.T) {
	f := newFixture()
	if err := f.engine.Begin(context.Background(), adminID, StepAddChannel); err != nil {
		t.Fatal(err)
	}
	handle(t, f.engine, adminID, Event{Text: "@kino"})
	handle(t, f.engine, adminID, Event{Text: "https://t.me/+AbCdEf"})

	if len(f.channels.saved) != 1 || f.channels.saved[0].InviteLink != "https://t.me/+AbCdEf" {
		t.Fatalf("invite-ссылка не сохранилась: %+v", f.channels.saved)
	}
}

func TestCancelDiscardsAccumulatedInput(t *testing.T) {
	f := newFixture()
	if err := f.engine.Begin(context.Background(), adminID, StepAddSerialTitle); err != nil {
		t.Fatal(err)
	}
	handle(t, f.engine, adminID, Event{Text: "Eski nom"})

	f.engine.Cancel(adminID)
	if f.engine.Active(adminID) {
		t.Fatal("после отмены диалога быть не должно")
	}

	if err := f.engine.Begin(context.Background(), adminID, StepAddSerialTitle); err != nil {
		t.Fatal(err)
	}
	handle(t, f.engine, adminID, Event{Text: "Yangi nom"})
	out := handle(t, f.engine, adminID, Event{Text: "Tavsif"})
	if !out.Done {
		t.Fatal("ожидали завершение диалога")
	}

	serials, _ := f.content.ListContent(context.Background(), domain.ContentSerial)
	if len(serials) != 1 || serials[0].Title != "Yangi nom" {
		t.Fatalf("старый ввод просочился: %+v", serials)
	}
}

func TestRemoveAdminProtectsPrimary(t *testing.T) {
	f := newFixture()
	if err := f.engine.Begin(context.Background(), adminID, StepRemoveAdmin); err != nil {
		t.Fatal(err)
	}

	before := len(f.admins.set)
	out := handle(t, f.engine, adminID, Event{Text: fmt.Sprintf("%d", primaryAdminID)})
	if !out.Done {
		t.Fatal("ожидали завершение диалога")
	}
	if len(f.admins.set) != before || !f.admins.set[primaryAdminID] {
		t.Fatal("состав администраторов не должен меняться")
	}
}

func TestAddMovieCaptionSplit(t *testing.T) {
	f := newFixture()
	if err := f.engine.Begin(context.Background(), adminID, StepAddMovie); err != nil {
		t.Fatal(err)
	}

	out := handle(t, f.engine, adminID, Event{FileID: "file-1", Caption: "Interstellar - Fantastika"})
	if !out.Done {
		t.Fatal("ожидали завершение диалога")
	}
	movies, _ := f.content.ListContent(context.Background(), domain.ContentMovie)
	if len(movies) != 1 {
		t.Fatalf("ожидали один фильм, получили %d", len(movies))
	}
	if movies[0].Title != "Interstellar" || movies[0].Description != "Fantastika" {
		t.Fatalf("неверный разбор подписи: %+v", movies[0])
	}
}

func TestAddMoviePlaceholderTitle(t *testing.T) {
	f := newFixture()
	if _, err := f.content.AddContent(context.Background(), domain.Content{Kind: domain.ContentMovie, Title: "Bor kino"}); err != nil {
		t.Fatal(err)
	}

	if err := f.engine.Begin(context.Background(), adminID, StepAddMovie); err != nil {
		t.Fatal(err)
	}
	handle(t, f.engine, adminID, Event{FileID: "file-2", Caption: ""})

	movies, _ := f.content.ListContent(context.Background(), domain.ContentMovie)
	var placeholder domain.Content
	for _, m := range movies {
		if m.FileID == "file-2" {
			placeholder = m
		}
	}
	if placeholder.Title != "Kino #2" || placeholder.Description != "" {
		t.Fatalf("ожидали Kino #2 без описания, получили %+v", placeholder)
	}
}

func TestAddMovieRejectsTextStaysOpen(t *testing.T) {
	f := newFixture()
	if err := f.engine.Begin(context.Background(), adminID, StepAddMovie); err != nil {
		t.Fatal(err)
	}
	out := handle(t, f.engine, adminID, Event{Text: "shunchaki matn"})
	if out.Done {
		t.Fatal("без видео диалог не должен завершаться")
	}
	if !f.engine.Active(adminID) {
		t.Fatal("диалог должен остаться открытым")
	}
}

func TestPromoURLRequiresScheme(t *testing.T) {
	f := newFixture()
	if err := f.engine.Begin(context.Background(), adminID, StepAddPromoTitle); err != nil {
		t.Fatal(err)
	}
	handle(t, f.engine, adminID, Event{Text: "Mella Luxe"})

	out := handle(t, f.engine, adminID, Event{Text: "instagram.com/mella"})
	if out.Done {
		t.Fatal("URL без схемы должен переспросить")
	}
	out = handle(t, f.engine, adminID, Event{Text: "https://instagram.com/mella"})
	if !out.Done {
		t.Fatal("ожидали завершение диалога")
	}
	if len(f.promos.links) != 1 || f.promos.links[0].Title != "Mella Luxe" {
		t.Fatalf("ссылка не сохранилась: %+v", f.promos.links)
	}
}

func TestEpisodeNumbering(t *testing.T) {
	f := newFixture()
	serialID, _ := f.content.AddContent(context.Background(), domain.Content{Kind: domain.ContentSerial, Title: "Qasoskorlar"})
	for i := 1; i <= 2; i++ {
		if err := f.content.AddEpisode(context.Background(), domain.Episode{SerialID: serialID, Number: i, FileID: "f"}); err != nil {
			t.Fatal(err)
		}
	}

	if err := f.engine.Begin(context.Background(), adminID, StepEpisodeSerial); err != nil {
		t.Fatal(err)
	}
	handle(t, f.engine, adminID, Event{Text: fmt.Sprintf("%d", serialID)})
	out := handle(t, f.engine, adminID, Event{FileID: "file-3", Caption: ""})
	if !out.Done {
		t.Fatal("ожидали завершение диалога")
	}

	episodes, _ := f.content.ListEpisodes(context.Background(), serialID)
	last := episodes[len(episodes)-1]
	if last.Number != 3 || last.Title != "3-qism" {
		t.Fatalf("ожидали серию 3 с плейсхолдером, получили %+v", last)
	}
}

func TestEpisodeRejectsMovieID(t *testing.T) {
	f := newFixture()
	movieID, _ := f.content.AddContent(context.Background(), domain.Content{Kind: domain.ContentMovie, Title: "Kino"})

	if err := f.engine.Begin(context.Background(), adminID, StepEpisodeSerial); err != nil {
		t.Fatal(err)
	}
	out := handle(t, f.engine, adminID, Event{Text: fmt.Sprintf("%d", movieID)})
	if out.Done {
		t.Fatal("ожидали переспрос, а не завершение")
	}
}

func TestBroadcastEnqueues(t *testing.T) {
	f := newFixture()
	if err := f.engine.Begin(context.Background(), adminID, StepBroadcast); err != nil {
		t.Fatal(err)
	}
	out := handle(t, f.engine, adminID, Event{ChatID: 555, MessageID: 7, Text: "E'lon"})
	if !out.Done {
		t.Fatal("ожидали завершение диалога")
	}
	if len(f.queue.jobs) != 1 {
		t.Fatalf("задача не попала в очередь: %+v", f.queue.jobs)
	}
	job := f.queue.jobs[0]
	if job.FromChatID != 555 || job.MessageID != 7 {
		t.Fatalf("неверная задача: %+v", job)
	}
}

// blockingQueue удерживает первый Enqueue до закрытия release,
// моделируя медленный брокер под открытой сессией.
type blockingQueue struct {
	mu      sync.Mutex
	jobs    []domain.BroadcastJob
	entered chan struct{}
	release chan struct{}
}

func (q *blockingQueue) Enqueue(ctx context.Context, job domain.BroadcastJob) error {
	q.entered <- struct{}{}
	<-q.release
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
	return nil
}

func (q *blockingQueue) Pop(ctx context.Context) (domain.BroadcastJob, error) {
	return domain.BroadcastJob{}, context.Canceled
}

func TestTerminalStepNotReplayedConcurrently(t *testing.T) {
	q := &blockingQueue{entered: make(chan struct{}, 2), release: make(chan struct{})}
	admins := &fakeAdmins{set: map[int64]bool{primaryAdminID: true, adminID: true}}
	engine := NewEngine(admins, &fakeChannels{}, &fakePromos{}, newFakeContent(),
		&fakeResolver{}, broadcast.NewService(q), primaryAdminID, zerolog.Nop())

	if err := engine.Begin(context.Background(), adminID, StepBroadcast); err != nil {
		t.Fatal(err)
	}

	first := make(chan error, 1)
	go func() {
		_, err := engine.Handle(context.Background(), adminID, Event{ChatID: 1, MessageID: 1, Text: "e'lon"})
		first <- err
	}()
	// первый хэндлер застрял внутри терминального шага и держит сессию
	<-q.entered

	second := make(chan error, 1)
	go func() {
		_, err := engine.Handle(context.Background(), adminID, Event{ChatID: 1, MessageID: 2, Text: "e'lon"})
		second <- err
	}()
	// даём второму событию взять указатель на сессию и встать на мьютекс
	time.Sleep(20 * time.Millisecond)
	close(q.release)

	if err := <-first; err != nil {
		t.Fatalf("первое событие: %v", err)
	}
	if err := <-second; !errors.Is(err, ErrNoDialog) {
		t.Fatalf("догнавшее событие должно увидеть закрытый диалог, получили %v", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) != 1 {
		t.Fatalf("терминальный шаг должен выполниться один раз, задач в очереди: %d", len(q.jobs))
	}
}

func TestHandleWithoutDialog(t *testing.T) {
	f := newFixture()
	_, err := f.engine.Handle(context.Background(), adminID, Event{Text: "1"})
	if !errors.Is(err, ErrNoDialog) {
		t.Fatalf("ожидали ErrNoDialog, получили %v", err)
	}
}
