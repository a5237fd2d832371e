package configs

// Media configures the media storage collaborator that resolves uploads into
// stable URLs (and cover images for video).
type Media struct {
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:9091"`
	TimeoutSec int    `env:"TIMEOUT_SEC" envDefault:"30"`
}
