package keys

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ err error }

func (f failingStore) Load(context.Context) ([]byte, error) { return nil, f.err }
func (f failingStore) CreateIfAbsent(context.Context, []byte) ([]byte, error) {
	return nil, f.err
}

type countingStore struct {
	*MemoryStore
	mu    sync.Mutex
	loads int
}

func (c *countingStore) Load(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	c.loads++
	c.mu.Unlock()
	return c.MemoryStore.Load(ctx)
}

func newManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(NewMemoryStore())
	require.NoError(t, m.InitializeMasterKey(context.Background()))
	return m
}

func TestManager_EnvelopeRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	fileKey, err := m.GenerateFileKey()
	require.NoError(t, err)
	iv, err := m.GenerateIV()
	require.NoError(t, err)

	clientCiphertext := []byte("opaque bytes produced by the client")
	ct, err := m.EncryptPayload(clientCiphertext, fileKey, iv)
	require.NoError(t, err)

	wrapped, err := m.WrapKey(ctx, fileKey)
	require.NoError(t, err)

	unwrapped, err := m.UnwrapKey(ctx, wrapped)
	require.NoError(t, err)
	assert.Equal(t, fileKey, unwrapped)

	out, err := m.DecryptPayload(ct, unwrapped, iv)
	require.NoError(t, err)
	assert.Equal(t, clientCiphertext, out)
}

func TestManager_InitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	m1 := NewManager(store)
	require.NoError(t, m1.InitializeMasterKey(ctx))
	k1, err := store.Load(ctx)
	require.NoError(t, err)

	m2 := NewManager(store)
	require.NoError(t, m2.InitializeMasterKey(ctx))
	require.NoError(t, m2.InitializeMasterKey(ctx))
	k2, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)

	// a key wrapped by one manager opens with the other
	blob, err := m1.WrapKey(ctx, make([]byte, 32))
	require.NoError(t, err)
	_, err = m2.UnwrapKey(ctx, blob)
	assert.NoError(t, err)
}

func TestManager_ConcurrentFirstRunOnFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "master.key")

	managers := make([]*Manager, 8)
	var wg sync.WaitGroup
	for i := range managers {
		managers[i] = NewManager(NewFileStore(path))
		wg.Add(1)
		go func(m *Manager) {
			defer wg.Done()
			require.NoError(t, m.InitializeMasterKey(ctx))
		}(managers[i])
	}
	wg.Wait()

	blob, err := managers[0].WrapKey(ctx, make([]byte, 32))
	require.NoError(t, err)
	for _, m := range managers[1:] {
		_, err := m.UnwrapKey(ctx, blob)
		assert.NoError(t, err, "all managers must share one master key")
	}
}

func TestManager_UnwrapForeignBlobFails(t *testing.T) {
	ctx := context.Background()
	a := newManager(t)
	b := newManager(t)

	blob, err := a.WrapKey(ctx, make([]byte, 32))
	require.NoError(t, err)

	key, err := b.UnwrapKey(ctx, blob)
	assert.Nil(t, key)
	assert.True(t, errors.Is(err, common.ErrKeyUnwrap))
}

func TestManager_NotInitialized(t *testing.T) {
	m := NewManager(NewMemoryStore())
	_, err := m.WrapKey(context.Background(), make([]byte, 32))
	assert.True(t, errors.Is(err, ErrNotInitialized))
}

func TestManager_StorageFaultPropagates(t *testing.T) {
	fault := errors.Join(common.ErrStorageFault, errors.New("disk gone"))
	m := NewManager(failingStore{err: fault})

	err := m.InitializeMasterKey(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStorageFault))
}

func TestManager_CachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: NewMemoryStore()}
	m := NewManager(store)
	require.NoError(t, m.InitializeMasterKey(ctx))
	base := store.loads

	for i := 0; i < 5; i++ {
		_, err := m.WrapKey(ctx, make([]byte, 32))
		require.NoError(t, err)
	}
	assert.Equal(t, base, store.loads, "cached key must not hit the store")

	m.Invalidate()
	_, err := m.WrapKey(ctx, make([]byte, 32))
	require.NoError(t, err)
	assert.Equal(t, base+1, store.loads)
}
