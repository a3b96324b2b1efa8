package cmd

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbind/pkg/prompt"
)

type promptOpts struct {
	fields []string
	write  bool
}

func newPromptCmd() *cobra.Command {
	var opts promptOpts
	cmd := &cobra.Command{
		Use:   "prompt SCHEMA [ID]",
		Short: "Edit one content item from terminal prompts",
		Long: `prompt asks for every editable field of SCHEMA, validates the answers
through the same widgets the HTML forms use and prints the result as JSON.
Rejected answers are asked again. Without ID a new item is edited.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			s, err := a.schema(args[0])
			if err != nil {
				return err
			}
			id := "new"
			if len(args) == 2 {
				id = args[1]
			}
			content := a.content.getOrCreate(s.Name(), id)

			collector := prompt.New(
				prompt.WithLogger(logger),
				prompt.WithRegistry(a.registry),
				prompt.WithPrefix(cfg.Prefix),
				prompt.WithTransactions(a.txns),
			)
			changed, err := collector.Edit(cmd.Context(), s, content, opts.fields...)
			if err != nil {
				return err
			}
			logger.WithField("changed", changed).Debug("formbind: prompt finished")

			if opts.write && changed {
				if cfg.Content == "" {
					logger.Warn("formbind: --write needs --content, nothing saved")
				} else if err := a.content.save(cfg.Content); err != nil {
					return err
				}
			}
			out, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			return err
		},
	}
	cmd.Flags().StringSliceVar(&opts.fields, "fields", nil, "fields to ask for, in order (default all)")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "save the edited item back to the content file")
	return cmd
}
