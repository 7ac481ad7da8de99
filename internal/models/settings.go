package models

const (
	DefaultModel       = "openai/gpt-3.5-turbo"
	DefaultTemperature = 1.0
	MinTemperature     = 0.0
	MaxTemperature     = 2.0
)

// Settings holds the user-configurable model endpoint configuration.
// An empty AIEndpoint selects mock mode.
type Settings struct {
	AIEndpoint  string   `json:"aiEndpoint"`
	APIKey      string   `json:"apiKey"`
	AIModel     string   `json:"aiModel"`
	Temperature *float64 `json:"temperature"`
	DebugMode   bool     `json:"debugMode"`
}

// MockMode reports whether requests short-circuit to the mock generator.
func (s Settings) MockMode() bool {
	return s.AIEndpoint == ""
}

// Model returns the configured model or the default.
func (s Settings) Model() string {
	if s.AIModel == "" {
		return DefaultModel
	}
	return s.AIModel
}

// TemperatureOrDefault returns the configured temperature when it lies in range.
func (s Settings) TemperatureOrDefault() (float64, bool) {
	if s.Temperature == nil {
		return DefaultTemperature, true
	}
	t := *s.Temperature
	if t < MinTemperature || t > MaxTemperature {
		return DefaultTemperature, false
	}
	return t, true
}
