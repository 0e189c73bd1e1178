package service

import "sync"

// awaitStore помнит, для какой политики чат должен прислать позицию следующим сообщением.
type awaitStore struct {
	mu sync.Mutex
	m  map[int64]string // chatID -> policy
}

func newAwaitStore() *awaitStore {
	return &awaitStore{m: make(map[int64]string)}
}

func (t *Telegram) setAwait(chatID int64, policy string) {
	t.await.mu.Lock()
	defer t.await.mu.Unlock()
	t.await.m[chatID] = policy
}

func (t *Telegram) popAwait(chatID int64) (string, bool) {
	t.await.mu.Lock()
	defer t.await.mu.Unlock()
	policy, ok := t.await.m[chatID]
	delete(t.await.m, chatID)
	return policy, ok
}

func (t *Telegram) clearAwait(chatID int64) {
	t.await.mu.Lock()
	defer t.await.mu.Unlock()
	delete(t.await.m, chatID)
}
