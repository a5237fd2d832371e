package configs

// Graph defines configuration for the remote advertising platform API. The
// BaseURL already includes the scheme; Version is the API version segment
// appended to every request path. MaxAttempts and MaxPages bound the retry
// loop of single creations and the pagination loop of listings respectively.
type Graph struct {
	BaseURL     string `env:"BASE_URL" envDefault:"https://graph.adplatform.com"`
	Version     string `env:"VERSION" envDefault:"v19.0"`
	MaxAttempts int    `env:"MAX_ATTEMPTS" envDefault:"3"`
	MaxPages    int    `env:"MAX_PAGES" envDefault:"25"`
	// TimeoutSec is the per-request HTTP timeout in seconds. No additional
	// deadline is imposed on top of it.
	TimeoutSec int `env:"TIMEOUT_SEC" envDefault:"30"`
}
