package cache

import "fmt"

// Config holds the sizing parameters of a [Cache]. All limits are in bytes.
type Config struct {
	// InitialCapacity pre-sizes the entry index. Purely a performance hint;
	// zero means no pre-sizing.
	InitialCapacity int

	// HighWatermark is the resident size that blocks admission and triggers
	// an eviction pass.
	HighWatermark int64

	// LowWatermark is the resident size an eviction pass drives memory down
	// to. Must be lower than HighWatermark.
	LowWatermark int64
}

// DefaultConfig returns a Config for the given high watermark with the low
// watermark at 80% of it.
func DefaultConfig(high int64) Config {
	return Config{
		HighWatermark: high,
		LowWatermark:  high * 8 / 10,
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.InitialCapacity < 0 {
		return ErrInvalidConfig{"InitialCapacity cannot be negative"}
	}
	if c.HighWatermark <= 0 {
		return ErrInvalidConfig{"HighWatermark must be positive"}
	}
	if c.LowWatermark < 0 {
		return ErrInvalidConfig{"LowWatermark cannot be negative"}
	}
	if c.LowWatermark >= c.HighWatermark {
		return ErrInvalidConfig{fmt.Sprintf("LowWatermark (%d) must be lower than HighWatermark (%d)", c.LowWatermark, c.HighWatermark)}
	}
	return nil
}
