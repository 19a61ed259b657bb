package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultServiceName          = "llmconnections"
	DefaultRoutePrefix          = "/rpc"
	DefaultAdapter              = "openai"
	DefaultTimeout              = 30 * time.Second
	DefaultMaxResponseBodyBytes = 10 << 20 // 10 MiB
)

type ProjectConfig struct {
	// AllowDefault enables falling back to DefaultID when a call carries no
	// project id. Disabled unless configured explicitly.
	AllowDefault bool   `koanf:"allow_default" mapstructure:"allow_default"`
	DefaultID    string `koanf:"default_id" mapstructure:"default_id"`
}

type ProceduresConfig struct {
	Create string `koanf:"create" mapstructure:"create"`
	Update string `koanf:"update" mapstructure:"update"`
	List   string `koanf:"list" mapstructure:"list"`
	Delete string `koanf:"delete" mapstructure:"delete"`
	Test   string `koanf:"test" mapstructure:"test"`
}

type Config struct {
	ServiceName          string           `koanf:"service_name" mapstructure:"service_name"`
	BaseURL              string           `koanf:"base_url" mapstructure:"base_url"`
	RoutePrefix          string           `koanf:"route_prefix" mapstructure:"route_prefix"`
	Timeout              time.Duration    `koanf:"timeout" mapstructure:"timeout"`
	MaxResponseBodyBytes int64            `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
	DefaultAdapter       string           `koanf:"default_adapter" mapstructure:"default_adapter"`
	Project              ProjectConfig    `koanf:"project" mapstructure:"project"`
	Procedures           ProceduresConfig `koanf:"procedures" mapstructure:"procedures"`
}

func DefaultProcedures() ProceduresConfig {
	return ProceduresConfig{
		Create: "llmApiKey.create",
		Update: "llmApiKey.update",
		List:   "llmApiKey.all",
		Delete: "llmApiKey.delete",
		Test:   "llmApiKey.test",
	}
}

func DefaultConfig() Config {
	return Config{
		ServiceName:          DefaultServiceName,
		RoutePrefix:          DefaultRoutePrefix,
		Timeout:              DefaultTimeout,
		MaxResponseBodyBytes: DefaultMaxResponseBodyBytes,
		DefaultAdapter:       DefaultAdapter,
		Procedures:           DefaultProcedures(),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.RoutePrefix) == "" {
		return fmt.Errorf("core: route_prefix is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("core: timeout must be >= 0")
	}
	if c.MaxResponseBodyBytes < 0 {
		return fmt.Errorf("core: max_response_body_bytes must be >= 0")
	}
	if strings.TrimSpace(c.DefaultAdapter) == "" {
		return fmt.Errorf("core: default_adapter is required")
	}
	if c.Project.AllowDefault && strings.TrimSpace(c.Project.DefaultID) == "" {
		return fmt.Errorf("core: project.default_id is required when project.allow_default is set")
	}
	procedures := [][2]string{
		{"create", c.Procedures.Create},
		{"update", c.Procedures.Update},
		{"list", c.Procedures.List},
		{"delete", c.Procedures.Delete},
		{"test", c.Procedures.Test},
	}
	for _, entry := range procedures {
		if strings.TrimSpace(entry[1]) == "" {
			return fmt.Errorf("core: procedures.%s is required", entry[0])
		}
	}
	return nil
}
