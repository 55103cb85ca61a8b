package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the profile file.
const (
	DefaultInterval     = 30 * time.Second
	DefaultWindow       = 200
	DefaultLambda       = 0.2
	DefaultL            = 3.0
	DefaultK            = 0.5
	DefaultH            = 5.0
	DefaultOutlierModel = "zscore"
)

// Profile is the top-level analysis configuration: the monitor loop
// settings plus one entry per monitored variable. Fields map 1:1 to
// profile.example.yaml.
type Profile struct {
	Monitor   MonitorConfig `yaml:"monitor"`
	Variables []Variable    `yaml:"variables"`
}

// MonitorConfig holds the sampling loop settings.
type MonitorConfig struct {
	// Interval controls how often each variable's source is sampled.
	Interval time.Duration `yaml:"interval"`

	// Window is the maximum number of recent measurements analyzed per
	// variable. Older measurements fall off the front.
	Window int `yaml:"window"`
}

// Variable describes one monitored quality characteristic and the chart
// parameters applied to it.
type Variable struct {
	// ID is a unique, human-readable identifier for this variable.
	ID string `yaml:"id"`

	// Source tells the sampler where the measurements come from.
	Source Source `yaml:"source"`

	// Target is the process target μ0 shared by both charts.
	Target float64 `yaml:"target"`

	// Sigma is the process standard deviation, > 0.
	Sigma float64 `yaml:"sigma"`

	EWMA  EWMAChart  `yaml:"ewma"`
	CUSUM CUSUMChart `yaml:"cusum"`

	// SpecLimits enables capability analysis when present.
	SpecLimits *SpecLimits `yaml:"spec_limits"`

	Preprocess PreprocessConfig `yaml:"preprocess"`
	Outlier    OutlierConfig    `yaml:"outlier"`
}

// Source describes where a variable's measurements are sampled from.
type Source struct {
	// Endpoint is the URL of a Prometheus text-exposition endpoint.
	Endpoint string `yaml:"endpoint"`

	// Metric is the family name whose value is sampled. Labeled children
	// are summed.
	Metric string `yaml:"metric"`

	// Auth configures how the sampler authenticates to the endpoint.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig specifies the authentication mode for a source.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// API key fields — used when Mode == "apikey".
	// Header is the HTTP header name to send the key in.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// Bearer token fields — used when Mode == "bearer".
	TokenEnv string `yaml:"token_env"`

	// Basic auth fields — used when Mode == "basic".
	// Username is the literal username (safe to store in config).
	Username string `yaml:"username"`
	// PasswordEnv is the name of the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// EWMAChart holds the EWMA chart parameters for one variable.
type EWMAChart struct {
	// Lambda is the smoothing weight in (0, 1].
	Lambda float64 `yaml:"lambda"`

	// L is the control limit width in sigma units.
	L float64 `yaml:"l"`

	// LimitMode is "time_varying" (default) or "fixed".
	LimitMode string `yaml:"limit_mode"`
}

// CUSUMChart holds the CUSUM chart parameters for one variable.
// K and H are in sigma units.
type CUSUMChart struct {
	K float64 `yaml:"k"`
	H float64 `yaml:"h"`

	// FIR enables the fast-initial-response head start.
	FIR bool `yaml:"fir"`
}

// SpecLimits are the engineering specification limits for capability
// analysis.
type SpecLimits struct {
	LSL float64 `yaml:"lsl"`
	USL float64 `yaml:"usl"`

	// Target, when set, additionally yields the Taguchi Cpm index.
	Target *float64 `yaml:"target"`
}

// PreprocessConfig selects the cleanup applied before the charts run.
type PreprocessConfig struct {
	// Interpolate heals interior non-finite gaps (failed samples).
	Interpolate bool `yaml:"interpolate"`

	// SmoothWindow applies a centered moving average when > 1.
	SmoothWindow int `yaml:"smooth_window"`
}

// OutlierConfig selects the outlier scoring strategy.
type OutlierConfig struct {
	// Method is one of: iqr | zscore | modified_z.
	Method string `yaml:"method"`

	// Threshold of 0 selects the method's default.
	Threshold float64 `yaml:"threshold"`
}

// Load reads and parses the YAML profile at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile, applies defaults and validates.
func Parse(data []byte) (*Profile, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Profile pre-populated with default values.
func defaults() *Profile {
	return &Profile{
		Monitor: MonitorConfig{
			Interval: DefaultInterval,
			Window:   DefaultWindow,
		},
	}
}

// variableDefaults is the pre-decode seed for each variable entry, so
// an absent key picks the default while an explicit zero (cusum.k: 0
// is a valid chart) stays zero.
func variableDefaults() Variable {
	return Variable{
		EWMA:    EWMAChart{Lambda: DefaultLambda, L: DefaultL},
		CUSUM:   CUSUMChart{K: DefaultK, H: DefaultH},
		Outlier: OutlierConfig{Method: DefaultOutlierModel},
	}
}

// UnmarshalYAML decodes the variable on top of its defaults.
func (v *Variable) UnmarshalYAML(node *yaml.Node) error {
	type plain Variable
	raw := plain(variableDefaults())
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = Variable(raw)
	return nil
}

// validate checks required fields and the same parameter domains the
// engines enforce, so a profile that loads is a profile the engines
// accept.
func validate(cfg *Profile) error {
	if cfg.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	if cfg.Monitor.Window <= 0 {
		return fmt.Errorf("monitor.window must be positive")
	}
	seen := make(map[string]bool, len(cfg.Variables))
	for i, v := range cfg.Variables {
		if v.ID == "" {
			return fmt.Errorf("variables[%d]: id is required", i)
		}
		if seen[v.ID] {
			return fmt.Errorf("variables[%d]: duplicate id %q", i, v.ID)
		}
		seen[v.ID] = true

		if v.Source.Endpoint == "" {
			return fmt.Errorf("variables[%d] %q: source.endpoint is required", i, v.ID)
		}
		if v.Source.Metric == "" {
			return fmt.Errorf("variables[%d] %q: source.metric is required", i, v.ID)
		}
		switch v.Source.Auth.Mode {
		case "apikey", "bearer", "basic", "none", "":
		default:
			return fmt.Errorf("variables[%d] %q: unknown auth mode %q", i, v.ID, v.Source.Auth.Mode)
		}

		if v.Sigma <= 0 {
			return fmt.Errorf("variables[%d] %q: sigma must be positive", i, v.ID)
		}
		if v.EWMA.Lambda <= 0 || v.EWMA.Lambda > 1 {
			return fmt.Errorf("variables[%d] %q: ewma.lambda must be in (0, 1]", i, v.ID)
		}
		if v.EWMA.L <= 0 {
			return fmt.Errorf("variables[%d] %q: ewma.l must be positive", i, v.ID)
		}
		switch v.EWMA.LimitMode {
		case "time_varying", "fixed", "":
		default:
			return fmt.Errorf("variables[%d] %q: unknown limit mode %q", i, v.ID, v.EWMA.LimitMode)
		}
		if v.CUSUM.K < 0 {
			return fmt.Errorf("variables[%d] %q: cusum.k must be non-negative", i, v.ID)
		}
		if v.CUSUM.H <= 0 {
			return fmt.Errorf("variables[%d] %q: cusum.h must be positive", i, v.ID)
		}
		if v.SpecLimits != nil && v.SpecLimits.USL <= v.SpecLimits.LSL {
			return fmt.Errorf("variables[%d] %q: spec_limits.usl must exceed lsl", i, v.ID)
		}
		switch v.Outlier.Method {
		case "iqr", "zscore", "modified_z":
		default:
			return fmt.Errorf("variables[%d] %q: unknown outlier method %q", i, v.ID, v.Outlier.Method)
		}
		if v.Preprocess.SmoothWindow < 0 {
			return fmt.Errorf("variables[%d] %q: preprocess.smooth_window must be non-negative", i, v.ID)
		}
	}
	return nil
}
