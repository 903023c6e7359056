/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package pipeline

import "sync"

// userLocks serializes merges per user inside this process. The store adds
// its own lock for writers in other processes.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// lock blocks until the user's lock is held and returns its release func.
func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()

	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}

	ul.refs++
	l.mu.Unlock()

	ul.Lock()

	return func() {
		ul.Unlock()

		l.mu.Lock()
		ul.refs--

		if ul.refs == 0 {
			delete(l.locks, userID)
		}

		l.mu.Unlock()
	}
}

// held returns the number of users with a pending or held lock.
func (l *userLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
