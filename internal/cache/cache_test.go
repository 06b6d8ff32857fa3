package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	tmp := t.TempDir()
	store, err := Open(filepath.Join(tmp, "cache.db"), filepath.Join(tmp, "cache.lock"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return clock }
	return store, &clock
}

func TestKeyScopesEndpointAndSubject(t *testing.T) {
	require.Equal(t, "https://rpc.testnet.near.org|keys|alice.testnet", Key("https://rpc.testnet.near.org/ ", "keys", "alice.testnet"))
	require.NotEqual(t, Key("https://a", "keys", "x"), Key("https://b", "keys", "x"))
}

func TestCacheFreshThenStale(t *testing.T) {
	ctx := context.Background()
	store, clock := openTestStore(t)

	type view struct {
		Nonce uint64 `json:"nonce"`
	}
	require.NoError(t, store.SetJSON(ctx, "k1", view{Nonce: 7}, 30*time.Second))

	var got view
	entry, hit, err := store.GetJSON(ctx, "k1", time.Minute, &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.False(t, entry.Stale)
	require.Equal(t, uint64(7), got.Nonce)

	*clock = clock.Add(45 * time.Second)
	entry, err = store.Get(ctx, "k1", time.Minute)
	require.NoError(t, err)
	require.True(t, entry.Hit)
	require.True(t, entry.Stale)
	require.False(t, entry.TooStale)

	*clock = clock.Add(2 * time.Minute)
	entry, err = store.Get(ctx, "k1", time.Minute)
	require.NoError(t, err)
	require.True(t, entry.TooStale)

	entry, err = store.Get(ctx, "k1", -1)
	require.NoError(t, err)
	require.False(t, entry.TooStale)
}

func TestCacheMissAndPrune(t *testing.T) {
	ctx := context.Background()
	store, clock := openTestStore(t)

	entry, err := store.Get(ctx, "absent", time.Minute)
	require.NoError(t, err)
	require.False(t, entry.Hit)

	require.NoError(t, store.Set(ctx, "old", []byte(`{}`), time.Second))
	*clock = clock.Add(time.Hour)
	require.NoError(t, store.Prune(ctx, time.Minute))
	entry, err = store.Get(ctx, "old", -1)
	require.NoError(t, err)
	require.False(t, entry.Hit)
}

func TestCacheConcurrentOpenAndSet(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "cache.db")
	lockPath := filepath.Join(tmp, "cache.lock")

	const workers = 8
	const iterations = 20

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			store, err := Open(dbPath, lockPath)
			if err != nil {
				errCh <- fmt.Errorf("worker %d open: %w", workerID, err)
				return
			}
			defer store.Close()

			for i := 0; i < iterations; i++ {
				key := Key("https://rpc.testnet.near.org", "keys", fmt.Sprintf("w%d-%d.testnet", workerID, i))
				if err := store.Set(context.Background(), key, []byte(`{"ok":true}`), time.Minute); err != nil {
					errCh <- fmt.Errorf("worker %d set iter %d: %w", workerID, i, err)
					return
				}
				res, err := store.Get(context.Background(), key, time.Minute)
				if err != nil || !res.Hit {
					errCh <- fmt.Errorf("worker %d get iter %d: hit=%v err=%v", workerID, i, res.Hit, err)
					return
				}
			}
		}(worker)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatal(err)
	}
}
