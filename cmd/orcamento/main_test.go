package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/orcamento/internal/backup"
	"github.com/a3tai/orcamento/internal/config"
	"github.com/a3tai/orcamento/internal/logging"
	"github.com/a3tai/orcamento/internal/pdf"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	t.Cleanup(func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	})

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)

	out := buf.String()
	for _, want := range []string{
		"Orcamento",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	} {
		assert.Contains(t, out, want)
	}
}

func TestPrintVersionWithDefaults(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)
	assert.Contains(t, buf.String(), "Build Time: "+buildTime)
}

func testConfig(t *testing.T, store string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeServer
	cfg.Port = 0
	cfg.WorkDirectory = dir
	cfg.BackupDirectory = filepath.Join(dir, "backups")
	cfg.Store = store
	cfg.DBPath = filepath.Join(dir, "backups", "backups.db")
	cfg.Decoder = pdf.DecoderLedongthuc
	return cfg
}

func TestRun_ServerModeStopsOnCancel(t *testing.T) {
	for _, store := range []string{backup.StoreDir, backup.StoreSQLite} {
		t.Run(store, func(t *testing.T) {
			cfg := testConfig(t, store)
			cfg.MCPAddr = "127.0.0.1:0"

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				done <- run(ctx, cfg, logging.Discard())
			}()

			time.Sleep(50 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("run did not return after cancel")
			}
		})
	}
}

func TestRun_BadStore(t *testing.T) {
	cfg := testConfig(t, "redis")
	err := run(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup store")
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func textHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	})
}

func getBody(addr string) (string, error) {
	resp, err := http.Get("http://" + addr + "/")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

func TestServeEndpoints_ServesAllUntilCancel(t *testing.T) {
	apiAddr, mcpAddr := freeAddr(t), freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveEndpoints(ctx, logging.Discard(),
			endpoint{name: "api", addr: apiAddr, handler: textHandler("api")},
			endpoint{name: "mcp", addr: mcpAddr, handler: textHandler("mcp")},
		)
	}()

	for addr, want := range map[string]string{apiAddr: "api", mcpAddr: "mcp"} {
		assert.Eventually(t, func() bool {
			body, err := getBody(addr)
			return err == nil && body == want
		}, 5*time.Second, 20*time.Millisecond, "endpoint %s", want)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("endpoints did not stop after cancel")
	}
}

func TestServeEndpoints_FailureStopsOthers(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	apiAddr := freeAddr(t)

	done := make(chan error, 1)
	go func() {
		done <- serveEndpoints(context.Background(), logging.Discard(),
			endpoint{name: "api", addr: apiAddr, handler: textHandler("api")},
			endpoint{name: "mcp", addr: busy.Addr().String(), handler: textHandler("mcp")},
		)
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mcp endpoint")
	case <-time.After(5 * time.Second):
		t.Fatal("a failed endpoint did not stop the others")
	}
}
