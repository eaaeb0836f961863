// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := newKeyedMutex()
	const workers = 16
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				unlock := km.Lock("player-1")
				counter++ // would race without the keyed lock
				unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, workers*100, counter)
}

func TestKeyedMutex_IndependentKeysDoNotBlock(t *testing.T) {
	km := newKeyedMutex()

	unlockA := km.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()
	<-done // would deadlock if "b" waited on "a"
	unlockA()
}

func TestKeyedMutex_EntriesFreedWhenIdle(t *testing.T) {
	km := newKeyedMutex()

	unlock := km.Lock("ephemeral")
	km.mu.Lock()
	require.Len(t, km.entries, 1)
	km.mu.Unlock()

	unlock()
	km.mu.Lock()
	assert.Empty(t, km.entries, "idle entries should be reclaimed")
	km.mu.Unlock()
}
