package provider

import "github.com/axonhq/axon/pkg/models"

// ProxyTokenEnv is the universal proxy token checked as the last credential
// source in every chain.
const ProxyTokenEnv = "AXON_PROXY_TOKEN"

// fallbackEnvVars are the raw environment variables checked, in priority
// order, when no structured provider config is usable.
var fallbackEnvVars = []string{
	"ANTHROPIC_API_KEY",
	"OPENAI_API_KEY",
	"GOOGLE_API_KEY",
}

// defaultKeyEnv maps a provider type to its conventional credential variable.
func defaultKeyEnv(t models.ProviderType) string {
	switch t {
	case models.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case models.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case models.ProviderGoogle:
		return "GOOGLE_API_KEY"
	case models.ProviderProxy:
		return ProxyTokenEnv
	default:
		return ""
	}
}

// envProviderType maps a fallback environment variable to the provider type
// its key unlocks.
func envProviderType(envVar string) models.ProviderType {
	switch envVar {
	case "ANTHROPIC_API_KEY":
		return models.ProviderAnthropic
	case "OPENAI_API_KEY":
		return models.ProviderOpenAI
	case "GOOGLE_API_KEY":
		return models.ProviderGoogle
	default:
		return models.ProviderProxy
	}
}

// resolveCredential finds a usable credential for a provider profile.
// Priority: explicit key in config, then the named (or conventional)
// environment variable, then the universal proxy token.
func resolveCredential(env Environment, p *models.Provider) (key, source string, ok bool) {
	if p.APIKey != "" {
		return p.APIKey, "config", true
	}
	envVar := p.APIKeyEnv
	if envVar == "" {
		envVar = defaultKeyEnv(p.Type)
	}
	if envVar != "" {
		if v := env.Getenv(envVar); v != "" {
			return v, envVar, true
		}
	}
	if v := env.Getenv(ProxyTokenEnv); v != "" {
		return v, ProxyTokenEnv, true
	}
	return "", "", false
}

// Bedrock needs no API key; AWS credentials are resolved by the SDK chain.
func needsCredential(p *models.Provider) bool {
	return !(p.Type == models.ProviderAnthropic && p.UseBedrock)
}
