package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// Config is bip300d's runtime configuration, parsed from flags in main.go.
type Config struct {
	DataDir    string `json:"data_dir"`
	ListenAddr string `json:"listen_addr"`
	LogLevel   string `json:"log_level"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".bip300d"
	}
	return filepath.Join(home, ".bip300d")
}

func DefaultConfig() Config {
	return Config{
		DataDir:    DefaultDataDir(),
		ListenAddr: "127.0.0.1:8300",
		LogLevel:   "info",
	}
}

// DBPath returns the path of the store's bbolt database file within
// cfg.DataDir.
func (cfg Config) DBPath() string {
	return filepath.Join(cfg.DataDir, "bip300.db")
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("invalid listen_addr: %w", err)
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	return nil
}

func validateAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty address")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(port) == "" {
		return errors.New("missing port")
	}
	return nil
}
