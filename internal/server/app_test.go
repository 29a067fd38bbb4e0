package server

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = ""
	c.MasterKeyBackend = config.BackendMemory
	c.StorageBackend = config.BackendMemory
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.EndpointAddrHTTP = "127.0.0.1:0"
	return c
}

func TestNewApp_InMemory(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig(t), io.Discard)
	require.NoError(t, err)
	assert.NotNil(t, app.fileService)
	assert.NotNil(t, app.shareService)
	assert.Nil(t, app.db)
}

func TestNewApp_LocalStorageAndFileKey(t *testing.T) {
	c := memoryConfig(t)
	dir := t.TempDir()
	c.StorageBackend = config.BackendLocal
	c.StorageDir = dir + "/blobs"
	c.MasterKeyBackend = config.BackendFile
	c.MasterKeyPath = dir + "/master.key"

	_, err := NewApp(context.Background(), c, io.Discard)
	require.NoError(t, err)
	assert.FileExists(t, c.MasterKeyPath)
}

func TestNewApp_UnknownBackends(t *testing.T) {
	c := memoryConfig(t)
	c.MasterKeyBackend = "vault"
	_, err := NewApp(context.Background(), c, io.Discard)
	assert.ErrorContains(t, err, "unknown master key backend")

	c = memoryConfig(t)
	c.StorageBackend = "ftp"
	_, err = NewApp(context.Background(), c, io.Discard)
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig(t), io.Discard)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}
