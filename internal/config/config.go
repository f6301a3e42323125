package config

import (
	"errors"
	"fmt"
	"os"
	"net"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/orcamento/internal/backup"
	"github.com/a3tai/orcamento/internal/pdf"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort           = 8080
	DefaultHost           = "127.0.0.1"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
	DefaultBackupDir      = "backups"
	DefaultCompany        = "AW Marcenaria Móveis Sob Medida"
	DefaultCompanyAddress = "Rua Brusque, 880, Bairro Glória - Blumenau - SC"
	DefaultSignature      = "Att. Genesio e Sidnei"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "ORCAMENTO"
)

// ErrVersionRequested is returned by Load when --version is passed.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the quote service
type Config struct {
	// Server configuration
	Mode    string // "server" or "stdio"
	Host    string
	Port    int
	MCPAddr string // optional host:port serving only the MCP transport

	// Storage configuration
	WorkDirectory   string // quote PDFs are read from and written to this tree
	BackupDirectory string
	Store           string // "dir" or "sqlite"
	DBPath          string

	// PDF configuration
	Decoder     string
	MaxFileSize int64 // Maximum PDF file size in bytes
	DumpText    bool  // write decoded text next to the backups

	// Letterhead
	Company        string
	CompanyAddress string
	Logo           string
	Signature      string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio, // stdio is what MCP clients spawn
		Host:            DefaultHost,
		Port:            DefaultPort,
		WorkDirectory:   currentDir,
		BackupDirectory: filepath.Join(currentDir, DefaultBackupDir),
		Store:           backup.StoreDir,
		Decoder:         pdf.DecoderLedongthuc,
		MaxFileSize:     DefaultMaxFileSize,
		Company:         DefaultCompany,
		CompanyAddress:  DefaultCompanyAddress,
		Signature:       DefaultSignature,
		Version:         "1.0.0",
		ServerName:      "orcamento",
		LogLevel:        DefaultLogLevel,
	}
}

// LoadFromFlags parses the process command line and environment
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds a configuration from args, ORCAMENTO_* environment variables
// and an optional --config file, in decreasing order of precedence.
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	if checkVersionFlag(args) {
		return nil, ErrVersionRequested
	}

	v := viper.New()
	fs := pflag.NewFlagSet("orcamento", pflag.ContinueOnError)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(fs, cfg)
	bindFlagsToViper(v, fs)
	setupUsageMessage(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	populateConfigFromViper(v, cfg)
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("mcpaddr", cfg.MCPAddr)
	v.SetDefault("dir", cfg.WorkDirectory)
	v.SetDefault("backupdir", "")
	v.SetDefault("store", cfg.Store)
	v.SetDefault("dbpath", "")
	v.SetDefault("decoder", cfg.Decoder)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("company", cfg.Company)
	v.SetDefault("companyaddress", cfg.CompanyAddress)
	v.SetDefault("logo", cfg.Logo)
	v.SetDefault("signature", cfg.Signature)
	v.SetDefault("dumptext", cfg.DumpText)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("config", "", "Optional config file (yaml, toml or json)")
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("mcpaddr", cfg.MCPAddr, "Extra host:port serving the MCP streamable HTTP transport (server mode only)")
	fs.String("dir", cfg.WorkDirectory, "Working directory for quote PDFs")
	fs.String("backupdir", "", "Backup directory (default <dir>/backups)")
	fs.String("store", cfg.Store, "Backup store: 'dir' or 'sqlite'")
	fs.String("dbpath", "", "SQLite database path (default <backupdir>/backups.db)")
	fs.String("decoder", cfg.Decoder, "PDF text decoder: 'ledongthuc' or 'none'")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.String("company", cfg.Company, "Company name printed on quotes")
	fs.String("companyaddress", cfg.CompanyAddress, "Company address printed on quotes")
	fs.String("logo", cfg.Logo, "Logo image printed on quotes")
	fs.String("signature", cfg.Signature, "Signature line printed on quotes")
	fs.Bool("dumptext", cfg.DumpText, "Write decoded PDF text next to the backups")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOrçamento - builds, renders and re-imports furniture quote PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                   # MCP over stdio, current directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --port=8081         # HTTP API\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --store=sqlite --dir=/srv/quotes  # backups in SQLite\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  Every option can be set as %s_<OPTION>, e.g. %s_PORT=9090\n", envPrefix, envPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.MCPAddr = v.GetString("mcpaddr")
	cfg.WorkDirectory = v.GetString("dir")
	cfg.BackupDirectory = v.GetString("backupdir")
	cfg.Store = v.GetString("store")
	cfg.DBPath = v.GetString("dbpath")
	cfg.Decoder = v.GetString("decoder")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.Company = v.GetString("company")
	cfg.CompanyAddress = v.GetString("companyaddress")
	cfg.Logo = v.GetString("logo")
	cfg.Signature = v.GetString("signature")
	cfg.DumpText = v.GetBool("dumptext")
}

// expandPaths makes directories absolute and derives the backup paths
// that were left empty.
func (c *Config) expandPaths() {
	if c.WorkDirectory != "" {
		if abs, err := filepath.Abs(c.WorkDirectory); err == nil {
			c.WorkDirectory = abs
		}
	}
	if c.BackupDirectory == "" && c.WorkDirectory != "" {
		c.BackupDirectory = filepath.Join(c.WorkDirectory, DefaultBackupDir)
	}
	if c.BackupDirectory != "" {
		if abs, err := filepath.Abs(c.BackupDirectory); err == nil {
			c.BackupDirectory = abs
		}
	}
	if c.DBPath == "" && c.BackupDirectory != "" {
		c.DBPath = filepath.Join(c.BackupDirectory, "backups.db")
	}
}

// Validate checks if the configuration is valid and creates the working
// and backup directories when missing.
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.MCPAddr != "" {
		if _, _, err := net.SplitHostPort(c.MCPAddr); err != nil {
			return fmt.Errorf("invalid mcp address %q: %w", c.MCPAddr, err)
		}
		if c.MCPAddr == c.Address() {
			return errors.New("mcp address must differ from the API address")
		}
	}

	if c.Store != backup.StoreDir && c.Store != backup.StoreSQLite {
		return fmt.Errorf("invalid store: %s (must be one of: dir, sqlite)", c.Store)
	}

	if c.Decoder != pdf.DecoderLedongthuc && c.Decoder != pdf.DecoderNone {
		return fmt.Errorf("invalid decoder: %s (must be one of: ledongthuc, none)", c.Decoder)
	}

	if c.WorkDirectory == "" {
		return errors.New("working directory cannot be empty")
	}
	if c.BackupDirectory == "" {
		return errors.New("backup directory cannot be empty")
	}
	if c.Store == backup.StoreSQLite && c.DBPath == "" {
		return errors.New("sqlite store needs a database path")
	}

	for _, dir := range []string{c.WorkDirectory, c.BackupDirectory} {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, MCPAddr: %s, WorkDirectory: %s, BackupDirectory: %s, "+
		"Store: %s, Decoder: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.MCPAddr, c.WorkDirectory, c.BackupDirectory,
		c.Store, c.Decoder, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
