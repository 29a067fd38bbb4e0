package vault

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/sharevault/internal/cryptox"
	"github.com/dmitrijs2005/sharevault/internal/server/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealUnseal(t *testing.T) {
	v, err := Open(context.Background(), keys.NewMemoryStore())
	require.NoError(t, err)

	plain := []byte("quarterly numbers")
	iv, ct, err := v.Seal(plain)
	require.NoError(t, err)
	assert.Len(t, iv, cryptox.IVSize)
	assert.Zero(t, len(ct)%16)
	assert.False(t, bytes.Contains(ct, plain))

	got, err := v.Unseal(iv, ct)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestOpenFile_ReusesKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.key")
	ctx := context.Background()

	first, err := OpenFile(ctx, path)
	require.NoError(t, err)
	iv, ct, err := first.Seal([]byte("payload"))
	require.NoError(t, err)

	second, err := OpenFile(ctx, path)
	require.NoError(t, err)
	got, err := second.Unseal(iv, ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestUnseal_WrongKey(t *testing.T) {
	a, err := Open(context.Background(), keys.NewMemoryStore())
	require.NoError(t, err)
	b, err := Open(context.Background(), keys.NewMemoryStore())
	require.NoError(t, err)

	iv, ct, err := a.Seal([]byte("private"))
	require.NoError(t, err)

	got, err := b.Unseal(iv, ct)
	if err == nil {
		assert.NotEqual(t, []byte("private"), got)
	}
}
