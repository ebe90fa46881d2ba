package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "firecrawl.base_url", typ: kString, env: "ADNIDOCS_FIRECRAWL_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Firecrawl.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Firecrawl.BaseURL },
	},
	{
		key: "firecrawl.api_key", typ: kString, env: "FIRECRAWL_API_KEY", secret: true,
		apply:   func(cfg *Config, v any) { cfg.Firecrawl.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Firecrawl.APIKey },
	},
	{
		key: "firecrawl.map_limit", typ: kInt, env: "ADNIDOCS_FIRECRAWL_MAP_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Firecrawl.MapLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Firecrawl.MapLimit },
	},
	{
		key: "crawl.site_url", typ: kString, env: "ADNIDOCS_CRAWL_SITE_URL",
		apply:   func(cfg *Config, v any) { cfg.Crawl.SiteURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Crawl.SiteURL },
	},
	{
		key: "crawl.raw_output_path", typ: kString, env: "ADNIDOCS_CRAWL_RAW_OUTPUT_PATH",
		apply:   func(cfg *Config, v any) { cfg.Crawl.RawOutputPath = v.(string) },
		extract: func(cfg Config) any { return cfg.Crawl.RawOutputPath },
	},
	{
		key: "crawl.concurrency", typ: kInt, env: "ADNIDOCS_CRAWL_CONCURRENCY",
		apply:   func(cfg *Config, v any) { cfg.Crawl.Concurrency = v.(int) },
		extract: func(cfg Config) any { return cfg.Crawl.Concurrency },
	},
	{
		key: "curate.output_path", typ: kString, env: "ADNIDOCS_CURATE_OUTPUT_PATH",
		apply:   func(cfg *Config, v any) { cfg.Curate.OutputPath = v.(string) },
		extract: func(cfg Config) any { return cfg.Curate.OutputPath },
	},
	{
		key: "server.port", typ: kInt, env: "ADNIDOCS_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_port", typ: kInt, env: "ADNIDOCS_SERVER_MCP_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MCPPort },
	},
	{
		key: "server.token", typ: kString, env: "ADNIDOCS_SERVER_TOKEN", secret: true,
		apply:   func(cfg *Config, v any) { cfg.Server.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Token },
	},
	{
		key: "storage.data_dir", typ: kString, env: "ADNIDOCS_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "ADNIDOCS_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		// Secrets come from the environment only, never the file backend.
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
