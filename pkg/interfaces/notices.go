package interfaces

import (
	"sync"

	"github.com/yair/whats-on/pkg/domain"
)

const defaultNoticeLimit = 50

// NoticeBoard collects user-facing notices until the shell drains them.
// Once full, the oldest notice is dropped.
type NoticeBoard struct {
	mu      sync.Mutex
	limit   int
	notices []domain.Notice
}

func NewNoticeBoard(limit int) *NoticeBoard {
	if limit <= 0 {
		limit = defaultNoticeLimit
	}
	return &NoticeBoard{limit: limit}
}

func (b *NoticeBoard) Notify(notice domain.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.notices = append(b.notices, notice)
	if over := len(b.notices) - b.limit; over > 0 {
		b.notices = append([]domain.Notice(nil), b.notices[over:]...)
	}
}

// Drain returns the pending notices in arrival order and empties the board.
func (b *NoticeBoard) Drain() []domain.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	drained := b.notices
	b.notices = nil
	if drained == nil {
		drained = []domain.Notice{}
	}
	return drained
}
