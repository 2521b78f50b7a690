package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/caarlos0/env/v11"
)

// Supported values for the selector env vars.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	ClassifierHeuristic = "heuristic"
	ClassifierRemote    = "remote"

	TransportBrowser = "browser"
	TransportWhisper = "whisper"

	BackendClient   = "client"
	BackendDatabase = "database"
)

// Config holds the application configuration.
type Config struct {
	EnvVars EnvVars  `json:"env"`
	Prompts *Prompts `json:"-"`
}

// EnvVars holds environment variables required by the application.
// Fields tagged `optional:"true"` are skipped by CheckConfigEnvFields.
type EnvVars struct {
	Port         string `env:"PORT" envDefault:"8765"`
	DatabaseUrl  string `env:"DATABASE_URL" optional:"true"`
	JwtSecretKey string `env:"JWT_SECRET_KEY" optional:"true"`

	LLMProvider string `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMBaseURL  string `env:"LLM_BASE_URL" envDefault:"http://localhost:1234/v1"`
	LLMAPIKey   string `env:"LLM_API_KEY" envDefault:"lm-studio"`
	LLMModel    string `env:"LLM_MODEL" envDefault:"local-model"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" optional:"true"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-haiku-4-5-20251001"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY" optional:"true"`

	ClassifierMode  string   `env:"CLASSIFIER_MODE" envDefault:"heuristic"`
	VoiceTransport  string   `env:"VOICE_TRANSPORT" envDefault:"browser"`
	FunctionBackend string   `env:"FUNCTION_BACKEND" envDefault:"client"`
	WakeWords       []string `env:"WAKE_WORDS" envDefault:"rem-e,remy,remi,reme" envSeparator:","`

	ReconnectBackoff time.Duration `env:"RECONNECT_BACKOFF" envDefault:"3s"`
	WakeTimeout      time.Duration `env:"WAKE_TIMEOUT" envDefault:"8s"`
	FollowUpTimeout  time.Duration `env:"FOLLOW_UP_TIMEOUT" envDefault:"15s"`
	NavigationDelay  time.Duration `env:"NAVIGATION_DELAY" envDefault:"1500ms"`
	FunctionTimeout  time.Duration `env:"FUNCTION_TIMEOUT" envDefault:"30s"`

	MaxToolRounds         int     `env:"MAX_TOOL_ROUNDS" envDefault:"5"`
	MaxHistory            int     `env:"MAX_HISTORY" envDefault:"20"`
	AgentTemperature      float64 `env:"AGENT_TEMPERATURE" envDefault:"0.7"`
	AgentMaxTokens        int     `env:"AGENT_MAX_TOKENS" envDefault:"800"`
	ClassifierTemperature float64 `env:"CLASSIFIER_TEMPERATURE" envDefault:"0.1" optional:"true"`
	ClassifierMaxTokens   int     `env:"CLASSIFIER_MAX_TOKENS" envDefault:"20"`

	RateLimitRPS float64  `env:"RATE_LIMIT_RPS" envDefault:"2"`
	CORSOrigins  []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// LoadConfig parses environment variables into the Config struct.
func LoadConfig() (*Config, error) {
	var config Config
	if err := env.Parse(&config.EnvVars); err != nil {
		return nil, err
	}
	return &config, nil
}

// CheckConfigEnvFields validates that all required EnvVars fields are set.
func (c *Config) CheckConfigEnvFields() error {
	return checkFieldsRecursive(reflect.ValueOf(c.EnvVars))
}

// Validate applies the rules that depend on more than one field.
func (c *Config) Validate() error {
	e := c.EnvVars
	var errs []error

	switch e.LLMProvider {
	case ProviderOpenAI:
		if !govalidator.IsURL(e.LLMBaseURL) {
			errs = append(errs, fmt.Errorf("$LLM_BASE_URL %q is not a valid URL", e.LLMBaseURL))
		}
	case ProviderAnthropic:
		if e.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("$AnthropicAPIKey must be set when LLM_PROVIDER=anthropic"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", e.LLMProvider))
	}

	if e.ClassifierMode != ClassifierHeuristic && e.ClassifierMode != ClassifierRemote {
		errs = append(errs, fmt.Errorf("unknown CLASSIFIER_MODE %q", e.ClassifierMode))
	}

	switch e.VoiceTransport {
	case TransportBrowser:
	case TransportWhisper:
		if e.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("$OpenAIAPIKey must be set when VOICE_TRANSPORT=whisper"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown VOICE_TRANSPORT %q", e.VoiceTransport))
	}

	switch e.FunctionBackend {
	case BackendClient:
	case BackendDatabase:
		if e.DatabaseUrl == "" {
			errs = append(errs, errors.New("$DatabaseUrl must be set when FUNCTION_BACKEND=database"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown FUNCTION_BACKEND %q", e.FunctionBackend))
	}

	if e.MaxToolRounds < 1 {
		errs = append(errs, errors.New("MAX_TOOL_ROUNDS must be at least 1"))
	}
	if e.MaxHistory < 2 {
		errs = append(errs, errors.New("MAX_HISTORY must be at least 2"))
	}

	return errors.Join(errs...)
}

func checkFieldsRecursive(v reflect.Value) error {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := v.Type().Field(i)
		if fieldType.Tag.Get("optional") == "true" {
			continue
		}
		if field.IsZero() {
			return fmt.Errorf("$%s must be set", fieldType.Name)
		}
		if field.Kind() == reflect.Struct {
			if err := checkFieldsRecursive(field); err != nil {
				return err
			}
		}
	}
	return nil
}
