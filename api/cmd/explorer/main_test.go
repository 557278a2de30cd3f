package main

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-explorer/api/internal/config"
)

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return strconv.Itoa(port)
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Port:             freePort(t),
		Detector:         "none",
		Store:            "sqlite",
		SQLitePath:       filepath.Join(dir, "explorer.db"),
		UploadDir:        filepath.Join(dir, "uploads"),
		DetectTimeoutSec: 1,
		MaxImageBytes:    1 << 20,
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + cfg.Port + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return")
	}
}

func TestRunReturnsStartupErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = "postgres"
	cfg.DatabaseURL = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"
	err := run(context.Background(), cfg)
	assert.ErrorContains(t, err, "store:")

	cfg = testConfig(t)
	cfg.Detector = "tesseract"
	err = run(context.Background(), cfg)
	assert.ErrorContains(t, err, "vision:")
}
