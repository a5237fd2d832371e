package configs

// Crypto holds the hex-encoded 256-bit AES key used to decrypt platform
// credentials at rest. Tokens are only ever persisted encrypted.
type Crypto struct {
	Key string `env:"KEY,required"`
}
