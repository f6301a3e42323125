package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/orcamento/internal/backup"
	"github.com/a3tai/orcamento/internal/pdf"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, backup.StoreDir, cfg.Store)
	assert.Equal(t, pdf.DecoderLedongthuc, cfg.Decoder)
	assert.Empty(t, cfg.MCPAddr)
	assert.Equal(t, "orcamento", cfg.ServerName)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, DefaultCompany, cfg.Company)

	currentDir, _ := os.Getwd()
	assert.Equal(t, currentDir, cfg.WorkDirectory)
	assert.Equal(t, filepath.Join(currentDir, DefaultBackupDir), cfg.BackupDirectory)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.WorkDirectory = dir
	cfg.BackupDirectory = filepath.Join(dir, "backups")
	cfg.DBPath = filepath.Join(dir, "backups", "backups.db")
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid stdio config", mutate: func(*Config) {}},
		{name: "valid server config", mutate: func(c *Config) { c.Mode = ModeServer }},
		{name: "valid sqlite store", mutate: func(c *Config) { c.Store = backup.StoreSQLite }},
		{name: "decoder none", mutate: func(c *Config) { c.Decoder = pdf.DecoderNone }},
		{name: "separate mcp listener", mutate: func(c *Config) { c.Mode = ModeServer; c.MCPAddr = "127.0.0.1:8090" }},
		{name: "mcp address without port", mutate: func(c *Config) { c.MCPAddr = "localhost" }, wantErr: "invalid mcp address"},
		{name: "mcp address same as api", mutate: func(c *Config) { c.MCPAddr = c.Address() }, wantErr: "must differ"},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "invalid" }, wantErr: "mode must be"},
		{name: "invalid port", mutate: func(c *Config) { c.Mode = ModeServer; c.Port = 70000 }, wantErr: "port must be"},
		{name: "port ignored in stdio", mutate: func(c *Config) { c.Port = 0 }},
		{name: "invalid store", mutate: func(c *Config) { c.Store = "redis" }, wantErr: "invalid store"},
		{name: "invalid decoder", mutate: func(c *Config) { c.Decoder = "poppler" }, wantErr: "invalid decoder"},
		{name: "empty directory", mutate: func(c *Config) { c.WorkDirectory = "" }, wantErr: "working directory"},
		{name: "sqlite without db path", mutate: func(c *Config) { c.Store = backup.StoreSQLite; c.DBPath = "" }, wantErr: "database path"},
		{name: "zero max file size", mutate: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "maximum file size"},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate_CreatesDirectories(t *testing.T) {
	cfg := validConfig(t)
	cfg.WorkDirectory = filepath.Join(cfg.WorkDirectory, "quotes", "2025")
	cfg.BackupDirectory = filepath.Join(cfg.WorkDirectory, "backups")

	require.NoError(t, cfg.Validate())
	assert.DirExists(t, cfg.WorkDirectory)
	assert.DirExists(t, cfg.BackupDirectory)
}

func TestConfigValidate_FileAsDirectory(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(cfg.WorkDirectory, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	cfg.BackupDirectory = file

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "0.0.0.0"
	cfg.Port = 9090
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())

	assert.True(t, cfg.IsStdioMode())
	assert.False(t, cfg.IsServerMode())
	cfg.Mode = ModeServer
	assert.True(t, cfg.IsServerMode())

	assert.False(t, cfg.IsDebug())
	cfg.LogLevel = "debug"
	assert.True(t, cfg.IsDebug())

	assert.Contains(t, cfg.String(), "Port: 9090")
}
