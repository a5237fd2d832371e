package configs

// Redis holds configuration for the Redis connection backing the
// stale-while-revalidate cache. Addr is a host:port pair.
type Redis struct {
	Addr     string `env:"ADDRESS" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}
