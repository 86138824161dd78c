package main

import (
	"fmt"

	"github.com/magiconair/properties"
	"github.com/mitchellh/go-homedir"
)

// ServerConfig is loaded once at startup and only read afterwards.
type ServerConfig struct {
	Port           int    `properties:"port,default=8080"`
	Root           string `properties:"root"`
	DefaultPage    string `properties:"defaultPage"`
	MaxThreads     int    `properties:"maxThreads,default=10"`
	Chunked        bool   `properties:"chunked,default=false"`
	ParamsInfoPage string `properties:"paramsInfoPage,default=/params_info.html"`
}

// LoadConfig reads a key=value properties file such as config.ini.
func LoadConfig(path string) (*ServerConfig, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return decodeConfig(p)
}

func decodeConfig(p *properties.Properties) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := p.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServerConfig) expand() error {
	var err error
	if c.Root, err = homedir.Expand(c.Root); err != nil {
		return fmt.Errorf("expand root: %w", err)
	}
	if c.DefaultPage, err = homedir.Expand(c.DefaultPage); err != nil {
		return fmt.Errorf("expand defaultPage: %w", err)
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if c.DefaultPage == "" {
		return fmt.Errorf("defaultPage is required")
	}
	if c.MaxThreads < 1 {
		return fmt.Errorf("maxThreads must be at least 1, got %d", c.MaxThreads)
	}
	return nil
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
