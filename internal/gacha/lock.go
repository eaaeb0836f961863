// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"sync"
)

// keyedMutex serializes work per string key. The engine keys it by
// (tenant, player, banner) so pulls for the same pair never interleave within
// a process; the row lock in the pity repository covers the cross-process
// case. Entries are reference counted and removed when idle, so the map does
// not grow with the player population.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key and returns the matching unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
