package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                string   `yaml:"addr"`
		Pprof               bool     `yaml:"pprof"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds"`
		AdminAllowCIDRs     []string `yaml:"admin_allow_cidrs"`
	} `yaml:"server"`
	Store struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
		Seed   bool   `yaml:"seed"`
	} `yaml:"store"`
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = "0.0.0.0:5001"
	c.Server.Pprof = false
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Server.AdminAllowCIDRs = []string{"127.0.0.0/8", "::1/128"}
	c.Store.Driver = "json"
	c.Store.Path = "secrets.json"
	c.Store.Seed = true
	return c
}

// Load builds the configuration from defaults, the YAML file named by
// DEMOVAULT_CONFIG (if readable) and DEMOVAULT_* environment overrides.
func Load() Config {
	c := defaultConfig()
	if path := os.Getenv("DEMOVAULT_CONFIG"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	if v := os.Getenv("DEMOVAULT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DEMOVAULT_LOG_PRETTY"); v != "" {
		c.Logging.Pretty = truthy(v)
	}
	if v := os.Getenv("DEMOVAULT_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DEMOVAULT_PPROF"); v != "" {
		c.Server.Pprof = truthy(v)
	}
	if v := os.Getenv("DEMOVAULT_ADMIN_ALLOW_CIDRS"); v != "" {
		c.Server.AdminAllowCIDRs = splitCSV(v)
	}
	if v := os.Getenv("DEMOVAULT_SECRETS_FILE"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("DEMOVAULT_STORE_DRIVER"); v != "" {
		c.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("DEMOVAULT_SEED"); v != "" {
		c.Store.Seed = truthy(v)
	}
	return c
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
