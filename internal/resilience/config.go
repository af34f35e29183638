package resilience

import "time"

// Breaker presets.
const (
	DefaultThreshold         = 5
	DefaultResetTimeout      = 30 * time.Second
	DefaultHalfOpenSuccesses = 3

	// OCR engines stall the capture loop, so trip quickly.
	OCRThreshold         = 3
	OCRResetTimeout      = 10 * time.Second
	OCRHalfOpenSuccesses = 1

	// Alert sinks are best effort; tolerate more failures before skipping them.
	SinkThreshold         = 10
	SinkResetTimeout      = 60 * time.Second
	SinkHalfOpenSuccesses = 2
)

// Config holds circuit breaker settings.
type Config struct {
	Name              string        // used in state change logs
	Threshold         int           // consecutive failures before opening
	ResetTimeout      time.Duration // wait before the trial call
	HalfOpenSuccesses int           // trial successes needed to close
	Clock             func() time.Time
}

// DefaultConfig returns general purpose defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:         DefaultThreshold,
		ResetTimeout:      DefaultResetTimeout,
		HalfOpenSuccesses: DefaultHalfOpenSuccesses,
	}
}

// OCRConfig returns settings for OCR engine calls.
func OCRConfig() Config {
	return Config{
		Threshold:         OCRThreshold,
		ResetTimeout:      OCRResetTimeout,
		HalfOpenSuccesses: OCRHalfOpenSuccesses,
		Name:              "ocr",
	}
}

// SinkConfig returns settings for alert sink calls.
func SinkConfig(name string) Config {
	return Config{
		Threshold:         SinkThreshold,
		ResetTimeout:      SinkResetTimeout,
		HalfOpenSuccesses: SinkHalfOpenSuccesses,
		Name:              name,
	}
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeout
	}
	if c.HalfOpenSuccesses <= 0 {
		c.HalfOpenSuccesses = DefaultHalfOpenSuccesses
	}
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}
