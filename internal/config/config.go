package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultModel          = "ibm/granite-3-3-8b-instruct"
	DefaultMaxSteps       = 8
	DefaultTimeout        = 120 * time.Second
	DefaultMaxTokens      = 2000
	DefaultTopP           = 1.0
	DefaultToolMaxBytes   = 30 * 1024
	DefaultGovernanceDir  = "data"
	DefaultRAGDescription = ""
)

// ModelParameters are the tunable inference parameters for Granite chat models.
type ModelParameters struct {
	FrequencyPenalty float64 `mapstructure:"frequency_penalty"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	PresencePenalty  float64 `mapstructure:"presence_penalty"`
	Temperature      float64 `mapstructure:"temperature"`
	TopP             float64 `mapstructure:"top_p"`
}

// CustomToolConfig defines a dynamically compiled custom tool.
type CustomToolConfig struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Code        string         `mapstructure:"code"`
	Schema      map[string]any `mapstructure:"schema"`
	Params      map[string]any `mapstructure:"params"`
}

// ToolkitConfig selects the providers assembled into the toolkit.
type ToolkitConfig struct {
	VectorIndexID          string             `mapstructure:"vector_index_id"`
	RAGDescription         string             `mapstructure:"rag_description"`
	IncludeCodeInterpreter bool               `mapstructure:"include_code_interpreter"`
	IncludeGoogleSearch    bool               `mapstructure:"include_google_search"`
	CustomTools            []CustomToolConfig `mapstructure:"custom_tools"`
}

// ToolLimits controls max output sizes for tool results.
type ToolLimits struct {
	ToolMaxBytes int `mapstructure:"tool_max_bytes"`
}

// Config holds runtime configuration values.
type Config struct {
	Model           string
	Parameters      ModelParameters
	MaxSteps        int
	Timeout         time.Duration
	WatsonxURL      string
	DataPlatformURL string
	ChatEndpoint    string
	APIKey          string
	ProjectID       string
	SpaceID         string
	Toolkit         ToolkitConfig
	ToolLimits      ToolLimits
	Quiet           bool
	JSON            bool
	Verbose         bool
	LogFile         string
	PersistRuns     bool
	GovernanceDir   string
}

type rawConfig struct {
	Model           string          `mapstructure:"model"`
	Parameters      ModelParameters `mapstructure:"parameters"`
	MaxSteps        int             `mapstructure:"max_steps"`
	Timeout         string          `mapstructure:"timeout"`
	WatsonxURL      string          `mapstructure:"watsonx_url"`
	DataPlatformURL string          `mapstructure:"data_platform_url"`
	ChatEndpoint    string          `mapstructure:"chat_endpoint"`
	APIKey          string          `mapstructure:"api_key"`
	ProjectID       string          `mapstructure:"project_id"`
	SpaceID         string          `mapstructure:"space_id"`
	Toolkit         ToolkitConfig   `mapstructure:"toolkit"`
	ToolLimits      ToolLimits      `mapstructure:"tool_limits"`
	Quiet           bool            `mapstructure:"quiet"`
	JSON            bool            `mapstructure:"json"`
	Verbose         bool            `mapstructure:"verbose"`
	LogFile         string          `mapstructure:"log_file"`
	PersistRuns     bool            `mapstructure:"persist_runs"`
	GovernanceDir   string          `mapstructure:"governance_dir"`
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AGENTLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("model", DefaultModel)
	v.SetDefault("parameters.max_tokens", DefaultMaxTokens)
	v.SetDefault("parameters.top_p", DefaultTopP)
	v.SetDefault("parameters.temperature", 0.0)
	v.SetDefault("parameters.frequency_penalty", 0.0)
	v.SetDefault("parameters.presence_penalty", 0.0)
	v.SetDefault("max_steps", DefaultMaxSteps)
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("toolkit.include_code_interpreter", true)
	v.SetDefault("toolkit.include_google_search", true)
	v.SetDefault("tool_limits.tool_max_bytes", DefaultToolMaxBytes)
	v.SetDefault("governance_dir", DefaultGovernanceDir)

	if cmd != nil {
		_ = v.BindPFlag("model", cmd.Flags().Lookup("model"))
		_ = v.BindPFlag("max_steps", cmd.Flags().Lookup("max-steps"))
		_ = v.BindPFlag("timeout", cmd.Flags().Lookup("timeout"))
		_ = v.BindPFlag("project_id", cmd.Flags().Lookup("project-id"))
		_ = v.BindPFlag("space_id", cmd.Flags().Lookup("space-id"))
		_ = v.BindPFlag("toolkit.vector_index_id", cmd.Flags().Lookup("vector-index-id"))
		_ = v.BindPFlag("quiet", cmd.Flags().Lookup("quiet"))
		_ = v.BindPFlag("json", cmd.Flags().Lookup("json"))
		_ = v.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
		_ = v.BindPFlag("log_file", cmd.Flags().Lookup("log-file"))
		_ = v.BindPFlag("persist_runs", cmd.Flags().Lookup("persist-runs"))
		_ = v.BindPFlag("governance_dir", cmd.Flags().Lookup("governance-dir"))
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, _ := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "mapstructure", Result: &raw})
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	timeout := DefaultTimeout
	if raw.Timeout != "" {
		parsed, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid timeout duration: %w", err)
		}
		timeout = parsed
	}

	cfg := Config{
		Model:           raw.Model,
		Parameters:      raw.Parameters,
		MaxSteps:        raw.MaxSteps,
		Timeout:         timeout,
		WatsonxURL:      raw.WatsonxURL,
		DataPlatformURL: raw.DataPlatformURL,
		ChatEndpoint:    raw.ChatEndpoint,
		APIKey:          raw.APIKey,
		ProjectID:       raw.ProjectID,
		SpaceID:         raw.SpaceID,
		Toolkit:         raw.Toolkit,
		ToolLimits:      raw.ToolLimits,
		Quiet:           raw.Quiet,
		JSON:            raw.JSON,
		Verbose:         raw.Verbose,
		LogFile:         raw.LogFile,
		PersistRuns:     raw.PersistRuns,
		GovernanceDir:   raw.GovernanceDir,
	}

	if cmd != nil {
		if cmd.Flags().Changed("no-code") {
			noCode, _ := cmd.Flags().GetBool("no-code")
			cfg.Toolkit.IncludeCodeInterpreter = !noCode
		}
		if cmd.Flags().Changed("no-search") {
			noSearch, _ := cmd.Flags().GetBool("no-search")
			cfg.Toolkit.IncludeGoogleSearch = !noSearch
		}
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Parameters.MaxTokens <= 0 {
		cfg.Parameters.MaxTokens = DefaultMaxTokens
	}
	if cfg.Parameters.TopP <= 0 {
		cfg.Parameters.TopP = DefaultTopP
	}
	if cfg.ToolLimits.ToolMaxBytes <= 0 {
		cfg.ToolLimits.ToolMaxBytes = DefaultToolMaxBytes
	}
	if cfg.GovernanceDir == "" {
		cfg.GovernanceDir = DefaultGovernanceDir
	}

	return cfg, nil
}

func loadConfigFile(v *viper.Viper) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "agentlab")
	candidates := []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
		filepath.Join(base, "config.json"),
	}
	if custom := os.Getenv("AGENTLAB_CONFIG"); custom != "" {
		candidates = append([]string{custom}, candidates...)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}
