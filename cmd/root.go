package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "intake-assistant"
)

type Config struct {
	AI         *AIConfig         `mapstructure:"ai"`
	LogLevel   string            `mapstructure:"log-level"`
	Questions  int               `mapstructure:"questions"`
	Logo       string            `mapstructure:"logo"`
	Exit       *ExitConfig       `mapstructure:"exit"`
	Transcript *TranscriptConfig `mapstructure:"transcript"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	SiteURL      string        `mapstructure:"site-url"`
	Model        string        `mapstructure:"model"`
	Endpoint     string        `mapstructure:"endpoint"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Retry        int           `mapstructure:"retry"`
	RetryDelay   time.Duration `mapstructure:"retry-delay"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type ExitConfig struct {
	Keywords []string `mapstructure:"keywords"`
	Match    string   `mapstructure:"match"`
}

type TranscriptConfig struct {
	Dir string `mapstructure:"dir"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "intake-assistant is a conversational cli that collects candidate details and asks technical questions",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

var envBindings = map[string]string{
	"ai.provider":            "AI_PROVIDER",
	"ai.api-key":             "OPENROUTER_API_KEY",
	"ai.api-key-file":        "OPENROUTER_API_KEY_FILE",
	"ai.site-url":            "SITE_URL",
	"ai.model":               "OPENROUTER_MODEL",
	"ai.endpoint":            "OPENROUTER_API_URL",
	"ai.gemini.api-key":      "GEMINI_API_KEY",
	"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	"log-level":              "LOG_LEVEL",
	"questions":              "NUM_TECH_QUESTIONS",
	"logo":                   "LOGO_FILENAME",
}

func init() {
	setDefaults()

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is intake-assistant.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("ai.provider", "openrouter")
	viper.SetDefault("ai.site-url", "http://localhost:8501")
	viper.SetDefault("ai.model", "openrouter/auto")
	viper.SetDefault("ai.timeout", 60*time.Second)
	viper.SetDefault("ai.retry", 2)
	viper.SetDefault("ai.retry-delay", 1250*time.Millisecond)
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("questions", 3)
	viper.SetDefault("logo", "talentscout_logo.PNG")
	viper.SetDefault("exit.match", "substring")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional: environment variables are enough to run.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Exit == nil {
		config.Exit = &ExitConfig{}
	}
	if config.Transcript == nil {
		config.Transcript = &TranscriptConfig{}
	}

	return config, nil
}
