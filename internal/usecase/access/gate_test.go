package access

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"tg-kino-bot/internal/domain"
)

type fakeChannelRepo struct {
	channels []domain.Channel
}

func (f *fakeChannelRepo) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	return f.channels, nil
}

func (f *fakeChannelRepo) UpsertChannel(ctx context.Context, ch domain.Channel) error { return nil }

func (f *fakeChannelRepo) RemoveChannel(ctx context.Context, chatID int64) (bool, error) {
	return false, nil
}

type fakeJoinRepo struct {
	requests map[[2]int64]bool
}

func (f *fakeJoinRepo) SaveJoinRequest(ctx context.Context, chatID, userID int64) error {
	if f.requests == nil {
		f.requests = make(map[[2]int64]bool)
	}
	f.requests[[2]int64{chatID, userID}] = true
	return nil
}

func (f *fakeJoinRepo) HasJoinRequest(ctx context.Context, chatID, userID int64) (bool, error) {
	return f.requests[[2]int64{chatID, userID}], nil
}

type fakeChecker struct {
	statuses map[int64]string
	errs     map[int64]error
}

func (f *fakeChecker) ChatMemberStatus(ctx context.Context, chatID, userID int64) (string, error) {
	if err := f.errs[chatID]; err != nil {
		return "", err
	}
	return f.statuses[chatID], nil
}

func TestUnmetMemberAndFailedQuery(t *testing.T) {
	c1 := domain.Channel{ChatID: -1001, Title: "C1"}
	c2 := domain.Channel{ChatID: -1002, Title: "C2"}
	gate := NewGate(
		&fakeChannelRepo{channels: []domain.Channel{c1, c2}},
		&fakeJoinRepo{},
		&fakeChecker{
			statuses: map[int64]string{-1001: "member"},
			errs:     map[int64]error{-1002: errors.New("chat not found")},
		},
		nil, 0, zerolog.Nop(),
	)

	unmet, err := gate.Unmet(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(unmet) != 1 || unmet[0].ChatID != c2.ChatID {
		t.Fatalf("ожидали только C2, получили %v", unmet)
	}
}

func TestUnmetJoinRequestFallback(t *testing.T) {
	c2 := domain.Channel{ChatID: -1002, Title: "C2"}
	joins := &fakeJoinRepo{}
	if err := joins.SaveJoinRequest(context.Background(), -1002, 42); err != nil {
		t.Fatalf("сохранение заявки: %v", err)
	}
	gate := NewGate(
		&fakeChannelRepo{channels: []domain.Channel{c2}},
		joins,
		&fakeChecker{errs: map[int64]error{-1002: errors.New("chat not found")}},
		nil, 0, zerolog.Nop(),
	)

	unmet, err := gate.Unmet(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(unmet) != 0 {
		t.Fatalf("ожидали пустой список, получили %v", unmet)
	}
}

func TestUnmetDepartedStatuses(t *testing.T) {
	for _, status := range []string{"left", "kicked"} {
		ch := domain.Channel{ChatID: -1003}
		gate := NewGate(
			&fakeChannelRepo{channels: []domain.Channel{ch}},
			&fakeJoinRepo{},
			&fakeChecker{statuses: map[int64]string{-1003: status}},
			nil, 0, zerolog.Nop(),
		)
		unmet, err := gate.Unmet(context.Background(), 42)
		if err != nil {
			t.Fatalf("%s: не ожидали ошибку: %v", status, err)
		}
		if len(unmet) != 1 {
			t.Fatalf("%s: ожидали один неподтверждённый канал", status)
		}
	}
}

func TestUnmetNoChannels(t *testing.T) {
	gate := NewGate(&fakeChannelRepo{}, &fakeJoinRepo{}, &fakeChecker{}, nil, 0, zerolog.Nop())
	unmet, err := gate.Unmet(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if unmet != nil {
		t.Fatalf("ожидали nil, получили %v", unmet)
	}
}
