package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/synapsocial/synapsocial/internal/ingest"
)

func ClassifyCmd() *cobra.Command {
	var (
		message  string
		platform string
	)

	c := &cobra.Command{
		Use:   "classify <file>...",
		Short: "Show how uploads are classified and which prompt variant they get",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmp, err := os.MkdirTemp("", "synapctl-")
			if err != nil {
				return err
			}
			defer func() { _ = os.RemoveAll(tmp) }()

			out := cmd.OutOrStdout()
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				asset, err := ingest.Stage(tmp, filepath.Base(path), f)
				_ = f.Close()
				if err != nil {
					return err
				}

				payload := ingest.Extract(asset)
				_ = asset.Release()
				prompt := ingest.BuildPrompt(&payload, message, platform)

				_, _ = fmt.Fprintf(out, "%s\tkind=%s inline=%t degraded=%t variant=%s\n",
					asset.Filename, payload.Kind, payload.Inline, payload.Degraded, prompt.Variant)
				if payload.Text != "" {
					_, _ = fmt.Fprintf(out, "\t%s\n", preview(payload.Text, 120))
				}
			}
			return nil
		},
	}

	c.Flags().StringVarP(&message, "message", "m", "", "user message sent with the file")
	c.Flags().StringVarP(&platform, "platform", "p", "", "target platform (linkedin, instagram, youtube)")
	return c
}

func preview(s string, n int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\t' {
			r[i] = ' '
		}
	}
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
