package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration, loadable from an HCL file.
type Config struct {
	Server ServerSettings  `hcl:"server,block"`
	Limits *LimitSettings  `hcl:"limits,block"`
	Tables []TableSettings `hcl:"table,block"`
}

// ServerSettings are the process-level knobs.
type ServerSettings struct {
	Listen   string `hcl:"listen,optional"`
	DBPath   string `hcl:"db,optional"`
	AdminKey string `hcl:"admin_key,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// LimitSettings are per-minute rate limits by route class.
type LimitSettings struct {
	AuthPerMin     int `hcl:"auth_per_min,optional"`
	ChatPerMin     int `hcl:"chat_per_min,optional"`
	RegisterPerMin int `hcl:"register_per_min,optional"`
	PublicPerMin   int `hcl:"public_per_min,optional"`
}

// TableSettings configures one table created at boot.
type TableSettings struct {
	Name       string `hcl:"name,label"`
	MaxPlayers int    `hcl:"max_players,optional"`
	SmallBlind int    `hcl:"small_blind,optional"`
}

// DefaultConfig returns the production defaults: one six-seat table named
// main and the documented rate limits.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Listen:   ":8080",
			DBPath:   "agentpoker.db",
			LogLevel: "info",
		},
		Limits: &LimitSettings{
			AuthPerMin:     60,
			ChatPerMin:     10,
			RegisterPerMin: 5,
			PublicPerMin:   30,
		},
		Tables: []TableSettings{
			{Name: "main"},
		},
	}
}

// LoadConfig reads an HCL config file, falling back to defaults when the
// path is empty or the file does not exist. Missing values inside the file
// take their defaults too.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %s", path, diags.Error())
	}
	var loaded Config
	if diags := gohcl.DecodeBody(file.Body, nil, &loaded); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %s", path, diags.Error())
	}

	if loaded.Server.Listen != "" {
		cfg.Server.Listen = loaded.Server.Listen
	}
	if loaded.Server.DBPath != "" {
		cfg.Server.DBPath = loaded.Server.DBPath
	}
	if loaded.Server.AdminKey != "" {
		cfg.Server.AdminKey = loaded.Server.AdminKey
	}
	if loaded.Server.LogLevel != "" {
		cfg.Server.LogLevel = loaded.Server.LogLevel
	}
	if loaded.Limits != nil {
		merge := func(dst *int, v int) {
			if v > 0 {
				*dst = v
			}
		}
		merge(&cfg.Limits.AuthPerMin, loaded.Limits.AuthPerMin)
		merge(&cfg.Limits.ChatPerMin, loaded.Limits.ChatPerMin)
		merge(&cfg.Limits.RegisterPerMin, loaded.Limits.RegisterPerMin)
		merge(&cfg.Limits.PublicPerMin, loaded.Limits.PublicPerMin)
	}
	if len(loaded.Tables) > 0 {
		cfg.Tables = loaded.Tables
	}
	return cfg, nil
}
