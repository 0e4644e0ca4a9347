package cmd

import (
	"bytes"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/internal/config"
	"github.com/blockberries/lightreq/store"
	"github.com/blockberries/lightreq/types"
)

var (
	testAddress  = types.Hash{0xAD, 0x01}
	testKey      = types.Hash{0x4E, 0x02}
	testCodeHash = types.Hash{0xC0, 0xDE}
	testCode     = []byte{0x60, 0x80}
)

func blockHash(n uint64) types.Hash { return types.Hash{0xB0, byte(n)} }

func txHash(n uint64) types.Hash { return types.Hash{0x7E, byte(n)} }

func seedStore(t *testing.T, path string) {
	s, err := store.Open(path, store.Options{})
	require.NoError(t, err)
	defer s.Close()
	for n := uint64(0); n < 8; n++ {
		hash := blockHash(n)
		require.NoError(t, s.PutBlock(store.Block{
			Number:   n,
			Hash:     hash,
			Header:   []byte{0xEE, byte(n)},
			TD:       types.U256FromUint64(n),
			Receipts: [][]byte{{1}, {2}},
			Txs:      []types.Hash{txHash(n)},
		}))
		require.NoError(t, s.PutAccount(hash, testAddress, lightreq.AccountResponse{CodeHash: testCodeHash}))
		require.NoError(t, s.PutStorage(hash, testAddress, testKey, lightreq.StorageResponse{Value: types.Hash{0x0A, byte(n)}}))
	}
	require.NoError(t, s.PutCode(testCodeHash, testCode))
}

// startServe runs serve over a seeded store and returns a config file
// pointing fetch commands at it.
func startServe(t *testing.T) string {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db")
	seedStore(t, dbPath)

	config.Reset()
	config.Set(config.StorePath, dbPath)
	config.Set(config.ServerAddress, "127.0.0.1:0")

	addrs := make(chan string, 1)
	listening = func(a net.Addr) { addrs <- a.String() }
	done := make(chan error, 1)
	go func() { done <- serve() }()

	var addr string
	select {
	case addr = <-addrs:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not start")
	}
	t.Cleanup(func() {
		sigs <- os.Interrupt
		assert.NoError(t, <-done)
		listening = func(net.Addr) {}
	})

	cfg := filepath.Join(dir, "client.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("client:\n  address: "+addr+"\n  timeout: 5s\n"), 0o600))
	return cfg
}

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cfgFile = ""
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs([]string{})
	}()
	err := Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	Version = "v1.2.3"
	defer func() { Version = "" }()
	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3\n", out)
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "-f", filepath.Join(t.TempDir(), "does-not-exist.yaml"), "version")
	assert.Error(t, err)
}

func TestFetchCommands(t *testing.T) {
	cfg := startServe(t)

	out, err := run(t, "-f", cfg, "fetch", "header", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "hash: "+blockHash(3).String())
	assert.Contains(t, out, "header: ee03")

	out, err = run(t, "-f", cfg, "fetch", "storage", "5", testAddress.String(), testKey.String())
	require.NoError(t, err)
	assert.Contains(t, out, "value: "+types.Hash{0x0A, 5}.String())

	out, err = run(t, "-f", cfg, "fetch", "code", "2", testAddress.String())
	require.NoError(t, err)
	assert.Contains(t, out, "codeHash: "+testCodeHash.String())
	assert.Contains(t, out, "code: 6080")
}

func TestFetchTxUsesCache(t *testing.T) {
	cfg := startServe(t)

	out, err := run(t, "-f", cfg, "fetch", "tx", txHash(6).String())
	require.NoError(t, err)
	assert.Contains(t, out, "block: 6")
	assert.Contains(t, out, "canonical: true")
	assert.Contains(t, out, "receipts: 2")
	assert.Contains(t, out, "cached: 0")

	// The index and receipts lookups are keyed by hash and come from
	// the cache; only the header proof goes out again.
	out, err = run(t, "-f", cfg, "fetch", "tx", txHash(6).String())
	require.NoError(t, err)
	assert.Contains(t, out, "canonical: true")
	assert.Contains(t, out, "cached: 2")
}

func TestFetchMissingBlock(t *testing.T) {
	cfg := startServe(t)
	_, err := run(t, "-f", cfg, "fetch", "header", "99")
	assert.True(t, errors.Is(err, lightreq.ErrNotFound), "got %v", err)
}

func TestFetchBadArgs(t *testing.T) {
	_, err := run(t, "fetch", "header", "not-a-number")
	assert.Error(t, err)

	_, err = run(t, "fetch", "code", "1", "0xzz")
	assert.Error(t, err)
}
