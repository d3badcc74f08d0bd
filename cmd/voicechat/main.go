package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voicechat/internal/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
	mock       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "voicechat",
		Short:         "Answer a spoken question with a spoken reply",
		SilenceUsage:  true,
		SilenceErrors: false,
		Long: `voicechat transcribes an audio clip, asks a language model for a reply with
the recent conversation as context, and voices the reply with text-to-speech.

Settings come from an optional YAML file (--config), a .env file and
VOICECHAT_* environment variables. --mock runs without any external service.`,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "development logging at debug level")
	root.PersistentFlags().BoolVar(&opts.mock, "mock", false, "use placeholder providers, no network; reply audio is WAV and a .mp3 output name becomes .wav")

	root.AddCommand(
		newRunCmd(opts),
		newServeCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

// load reads the config and applies flags that override it.
func (o *rootOptions) load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.mock {
		cfg.Mock = true
	}

	var log *zap.Logger
	if o.verbose {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
