package interfaces

import (
	"context"
	"sync"

	"github.com/yair/whats-on/pkg/domain"
)

type listCall struct {
	query string
	token string
}

type mockEventsAPI struct {
	mu          sync.Mutex
	listCalls   []listCall
	likeCalls   int
	deleteCalls int

	listFunc   func(ctx context.Context, query, token string) ([]domain.Event, error)
	likeFunc   func(ctx context.Context, eventID int, token string) (*domain.LikeResult, error)
	deleteFunc func(ctx context.Context, eventID int, token string) error
}

func (m *mockEventsAPI) ListEvents(ctx context.Context, query, token string) ([]domain.Event, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, listCall{query: query, token: token})
	m.mu.Unlock()

	if m.listFunc != nil {
		return m.listFunc(ctx, query, token)
	}
	return []domain.Event{}, nil
}

func (m *mockEventsAPI) ToggleLike(ctx context.Context, eventID int, token string) (*domain.LikeResult, error) {
	m.mu.Lock()
	m.likeCalls++
	m.mu.Unlock()

	if m.likeFunc != nil {
		return m.likeFunc(ctx, eventID, token)
	}
	return &domain.LikeResult{}, nil
}

func (m *mockEventsAPI) DeleteEvent(ctx context.Context, eventID int, token string) error {
	m.mu.Lock()
	m.deleteCalls++
	m.mu.Unlock()

	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, eventID, token)
	}
	return nil
}

func (m *mockEventsAPI) calls() (list, like, del int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listCalls), m.likeCalls, m.deleteCalls
}

func (m *mockEventsAPI) lastList() listCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.listCalls) == 0 {
		return listCall{}
	}
	return m.listCalls[len(m.listCalls)-1]
}

type mockSessionRepository struct {
	mu      sync.Mutex
	stored  domain.Session
	saveErr error
}

func (m *mockSessionRepository) Load(ctx context.Context) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored, nil
}

func (m *mockSessionRepository) Save(ctx context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.stored = session
	return nil
}

func (m *mockSessionRepository) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = domain.Session{}
	return nil
}

type mockReloader struct {
	mu    sync.Mutex
	calls int
}

func (m *mockReloader) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (r *recordingNotifier) Notify(notice domain.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

func (r *recordingNotifier) all() []domain.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notice(nil), r.notices...)
}
