// internal/workers/application/expire-auctions/config.go
package expireauctions

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		// the sweep walks every live auction, give it room
		Timeout: 60 * time.Second,
	}
}
