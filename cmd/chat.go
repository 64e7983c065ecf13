package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spigell/intake-assistant/internal/ai"
	"github.com/spigell/intake-assistant/internal/ai/gemini"
	"github.com/spigell/intake-assistant/internal/ai/openrouter"
	"github.com/spigell/intake-assistant/internal/conversation"
	"github.com/spigell/intake-assistant/internal/logger"
	"github.com/spigell/intake-assistant/internal/questions"
	"github.com/spigell/intake-assistant/internal/secrets"
	"github.com/spigell/intake-assistant/internal/sentiment"
	"github.com/spigell/intake-assistant/internal/transcript"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptSave        = "Save conversation"
	PromptDownload    = "Download " + transcript.FileName
	PromptDumpProfile = "Dump candidate profile to file"
	PromptExit        = "Exit"

	title   = "TalentScout Hiring Assistant"
	caption = "Data is anonymized in stored logs. Demo only; do not enter sensitive personal data."
)

var errExit = errors.New("exit requested")

var menu = promptui.Select{
	Label: "Interview finished. What next?",
	Items: []string{PromptSave, PromptDownload, PromptDumpProfile, PromptExit},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an intake conversation with a candidate",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().BoolP("save", "s", false, "save the anonymized transcript when the conversation ends")
	chatCmd.Flags().String("transcript-dir", "", "directory for "+transcript.FileName+". Default is the OS temp directory.")

	viper.BindPFlag("transcript.dir", chatCmd.Flags().Lookup("transcript-dir"))
}

// chat runs one conversation from greeting to the post-session menu.
func chat(cmd *cobra.Command) {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), viper.GetString("log-level"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the intake-assistant", zap.String("version", version))

	completer, err := newCompleter(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating a completion client", zap.Error(err))
	}

	generator := questions.NewGenerator(completer, completionOptions(config.AI), config.AI.MaxLogLength, logger)

	session, err := conversation.NewSession(conversation.Config{
		QuestionCount: config.Questions,
		ExitKeywords:  config.Exit.Keywords,
		ExitMatch:     conversation.MatchMode(config.Exit.Match),
	}, conversation.Deps{
		Generator:  generator,
		Classifier: sentiment.NewVader(),
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("starting a session", zap.Error(err))
	}

	sink := transcript.NewSink(config.Transcript.Dir, logger)

	renderHeader(out, config, completer, logger)
	say(out, session.Greeting())

	for session.Stage() != conversation.Finished {
		input := promptui.Prompt{Label: "You"}

		text, err := input.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				logger.Info("exiting", zap.String("reason", "input closed"))
				break
			}
			logger.Fatal("reading input", zap.Error(err))
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		turn := session.Handle(ctx, text)
		fmt.Fprintln(out, sentiment.Badge(turn.Sentiment))
		for _, reply := range turn.Replies {
			say(out, reply)
		}
	}

	if cmd.Flag("save").Value.String() == "true" {
		if _, err := sink.Save(session.Messages()); err != nil {
			logger.Error("saving conversation", zap.Error(err))
		}
	}

	for {
		_, action, err := menu.Run()
		if err != nil {
			logger.Info("exiting", zap.Error(err))
			return
		}

		if err := handleAction(action, session, sink, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Error("menu action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func handleAction(action string, session *conversation.Session, sink *transcript.Sink, logger *zap.Logger) error {
	switch action {
	case PromptSave:
		_, err := sink.Save(session.Messages())
		return err
	case PromptDownload:
		if sink.Last() == "" {
			logger.Warn("nothing to download", zap.String("hint", "save the conversation first"))
			return nil
		}
		dirPrompt := promptui.Prompt{Label: "Directory", Default: "."}
		dir, err := dirPrompt.Run()
		if err != nil {
			return err
		}
		_, err = sink.Export(dir)
		return err
	case PromptDumpProfile:
		profile, err := session.Record().Profile()
		if err != nil {
			return err
		}
		filename, err := profile.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump profile to file: %w", err)
		}
		logger.Info("dumping candidate profile to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from menu"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func newCompleter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", "openrouter":
		apiKey, err := secrets.LoadOptional(secrets.Source{
			Name:  "openrouter api key",
			Value: cfg.APIKey,
			File:  cfg.APIKeyFile,
		})
		if err != nil {
			return nil, err
		}
		if apiKey == "" {
			logger.Warn("openrouter api key is not set",
				zap.String("hint", "set OPENROUTER_API_KEY or OPENROUTER_API_KEY_FILE environment variable"),
			)
		}

		return openrouter.New(openrouter.Config{
			APIKey:       apiKey,
			SiteURL:      cfg.SiteURL,
			Model:        cfg.Model,
			Endpoint:     cfg.Endpoint,
			MaxLogLength: cfg.MaxLogLength,
		}, logger), nil
	case "gemini":
		apiKey, err := secrets.LoadOptional(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, err
		}
		if apiKey == "" {
			logger.Warn("gemini api key is not set",
				zap.String("hint", "set GEMINI_API_KEY or GEMINI_API_KEY_FILE environment variable"),
			)
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.MaxLogLength, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

// completionOptions applies the configured timeout and retry policy on top of
// the default sampling parameters.
func completionOptions(cfg *AIConfig) ai.Options {
	opts := ai.DefaultOptions()
	if cfg.Timeout > 0 {
		opts.Timeout = cfg.Timeout
	}
	if cfg.Retry >= 0 {
		opts.Retry = cfg.Retry
	}
	if cfg.RetryDelay > 0 {
		opts.RetryDelay = cfg.RetryDelay
	}
	return opts
}

func renderHeader(out io.Writer, config *Config, completer ai.Completer, logger *zap.Logger) {
	if _, err := os.Stat(config.Logo); err == nil {
		logger.Debug("branding asset found", zap.String("filename", config.Logo))
	} else {
		logger.Debug("branding asset not found", zap.String("filename", config.Logo))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", redact(pretty)))

	fmt.Fprintln(out, title)
	fmt.Fprintf(out, "Powered by %s • Model: %s\n", completer.Provider(), completer.Model())
	fmt.Fprintln(out, caption)
	fmt.Fprintln(out)
}

// redact hides inline api keys in the config dump.
func redact(raw []byte) string {
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return string(raw)
	}
	if section, ok := tree["AI"].(map[string]any); ok {
		if section["APIKey"] != "" {
			section["APIKey"] = "***"
		}
		if g, ok := section["Gemini"].(map[string]any); ok && g["APIKey"] != "" {
			g["APIKey"] = "***"
		}
	}
	pretty, _ := json.MarshalIndent(tree, "", "  ")
	return string(pretty)
}

func say(out io.Writer, msg string) {
	fmt.Fprintf(out, "%s: %s\n", ai.RoleAssistant, msg)
}
