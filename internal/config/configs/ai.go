package configs

// AI configures the hosted generative model used for ad copy and targeting
// analysis. The orchestration core tolerates this collaborator being down;
// every field it returns has a deterministic fallback.
type AI struct {
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:9090"`
	TimeoutSec int    `env:"TIMEOUT_SEC" envDefault:"60"`
}
