package main

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Vovarama1992/voicechat/internal/pipeline"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var audioPath, outPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one conversational turn on an audio file",
		Long: `Run transcribes --audio, generates a reply, writes the reply audio to --out
(default from config, ai_reply.mp3) and prints the result as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			p, err := pipeline.Build(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.Run(cmd.Context(), pipeline.Request{
				AudioPath:  audioPath,
				OutputPath: outPath,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res.Summary())
		},
	}

	cmd.Flags().StringVar(&audioPath, "audio", "", "input audio file")
	cmd.Flags().StringVar(&outPath, "out", "", "where to write the reply audio")
	_ = cmd.MarkFlagRequired("audio")
	return cmd
}
