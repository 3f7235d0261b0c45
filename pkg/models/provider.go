package models

// ProviderType identifies the wire shape a provider speaks.
type ProviderType string

const (
	// ProviderAnthropic is the Anthropic Messages API (directly or via Bedrock).
	ProviderAnthropic ProviderType = "anthropic"
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint.
	ProviderOpenAI ProviderType = "openai"
	// ProviderGoogle is Google's OpenAI-compatible endpoint.
	ProviderGoogle ProviderType = "google"
	// ProviderProxy routes prefixed model names through a universal proxy.
	ProviderProxy ProviderType = "proxy"
)

// Valid returns true if the type is a known value.
func (t ProviderType) Valid() bool {
	switch t {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderProxy:
		return true
	default:
		return false
	}
}

// Provider is a named backend profile capable of servicing a code-generation
// request. Providers are read-only inputs to resolution; the engine never
// mutates them.
type Provider struct {
	// Name identifies the profile in config and diagnostics.
	Name string `yaml:"name" json:"name"`
	// Type selects the client implementation.
	Type ProviderType `yaml:"type" json:"type"`
	// Models lists model names this provider serves; the first is preferred.
	Models []string `yaml:"models" json:"models"`
	// Endpoint overrides the default API base URL, if set.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	// APIKey is an explicit credential. Takes precedence over APIKeyEnv.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	// APIKeyEnv names an environment variable holding the credential.
	APIKeyEnv string `yaml:"api_key_env,omitempty" json:"api_key_env,omitempty"`
	// Default marks this provider as the configured primary.
	Default bool `yaml:"default,omitempty" json:"default,omitempty"`
	// UseBedrock routes anthropic calls through AWS Bedrock.
	UseBedrock bool `yaml:"use_bedrock,omitempty" json:"use_bedrock,omitempty"`
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string `yaml:"aws_region,omitempty" json:"aws_region,omitempty"`
	// AWSProfile is the optional shared-config profile for Bedrock.
	AWSProfile string `yaml:"aws_profile,omitempty" json:"aws_profile,omitempty"`
}

// PrimaryModel returns the provider's preferred model, or empty if none.
func (p *Provider) PrimaryModel() string {
	if len(p.Models) == 0 {
		return ""
	}
	return p.Models[0]
}
