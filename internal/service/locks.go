package service

import (
	"context"
	"sync"

	"multiledger/internal/core/domain"

	"golang.org/x/sync/semaphore"
)

// walletLocks hands out one single-permit semaphore per wallet key, created
// on demand. A semaphore rather than a mutex so acquisition honors the
// caller's context deadline. Entries are never removed: wallets are never
// deleted, and an idle semaphore is a few words.
type walletLocks struct {
	mu   sync.Mutex
	sems map[domain.WalletKey]*semaphore.Weighted
}

func newWalletLocks() *walletLocks {
	return &walletLocks{sems: make(map[domain.WalletKey]*semaphore.Weighted)}
}

func (l *walletLocks) get(key domain.WalletKey) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.sems[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.sems[key] = sem
	}
	return sem
}

// acquire blocks until the wallet's exclusivity is held or ctx expires.
func (l *walletLocks) acquire(ctx context.Context, key domain.WalletKey) error {
	return l.get(key).Acquire(ctx, 1)
}

func (l *walletLocks) release(key domain.WalletKey) {
	l.get(key).Release(1)
}
