// Package config loads adnidocs configuration from a JSON file backend
// and environment variables.
package config

type Config struct {
	Firecrawl FirecrawlConfig
	Crawl     CrawlConfig
	Curate    CurateConfig
	Server    ServerConfig
	Storage   StorageConfig
	Log       LogConfig
}

type FirecrawlConfig struct {
	BaseURL  string
	APIKey   string
	MapLimit int
}

type CrawlConfig struct {
	SiteURL       string
	RawOutputPath string
	Concurrency   int
}

type CurateConfig struct {
	OutputPath string
}

type ServerConfig struct {
	Port    int
	MCPPort int
	Token   string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Firecrawl: FirecrawlConfig{
			BaseURL:  "https://api.firecrawl.dev",
			MapLimit: 5000,
		},
		Crawl: CrawlConfig{
			SiteURL:       "https://adni.loni.usc.edu",
			RawOutputPath: "data/adni_raw.json",
			Concurrency:   4,
		},
		Curate: CurateConfig{
			OutputPath: "adni_documents_curated.json",
		},
		Server: ServerConfig{
			Port:    4200,
			MCPPort: 4201,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/adnidocs/config.json with ADNIDOCS_* environment
// variables overriding backend values. The Firecrawl API key is only
// required by the crawl stage and is validated there, not here.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	return cfg, nil
}
