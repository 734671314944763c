package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"locforge/internal/api"
	"locforge/internal/config"
	"locforge/internal/parser"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func glossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage glossaries on the translation service",
	}
	cmd.AddCommand(
		glossaryListCmd(),
		glossaryShowCmd(),
		glossaryCreateCmd(),
		glossaryAddCmd(),
		glossaryDeleteCmd(),
	)
	return cmd
}

func glossaryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List glossaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := setupContext()
			defer cancel()

			glossaries, err := client.ListGlossaries(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "ID\tNAME\tLANGS\tTERMS\n")
			for _, g := range glossaries {
				fmt.Fprintf(tw, "%s\t%s\t%s → %s\t%d\n", g.ID, g.Name, g.SourceLang, g.TargetLang, g.TermCount)
			}
			return tw.Flush()
		},
	}
}

func glossaryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a glossary and its terms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := setupContext()
			defer cancel()

			g, err := client.GetGlossary(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), g)
		},
	}
}

func glossaryCreateCmd() *cobra.Command {
	var sourceLang, targetLang, termsFile string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a glossary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ParseLanguage(sourceLang)
			if err != nil {
				return err
			}
			target, err := config.ParseLanguage(targetLang)
			if err != nil {
				return err
			}

			var terms []api.GlossaryTerm
			if termsFile != "" {
				if terms, err = readTerms(termsFile); err != nil {
					return err
				}
			}

			client, err := remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := setupContext()
			defer cancel()

			g, err := client.CreateGlossary(ctx, api.Glossary{
				Name:       args[0],
				SourceLang: source,
				TargetLang: target,
				Terms:      terms,
			})
			if err != nil {
				return err
			}
			log.Info().Str("id", g.ID).Str("name", g.Name).Int("terms", len(terms)).Msg("Glossary created")
			fmt.Fprintln(cmd.OutOrStdout(), g.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sourceLang, "source-lang", "s", "en", "Source language")
	cmd.Flags().StringVarP(&targetLang, "target-lang", "t", "", "Target language")
	cmd.Flags().StringVar(&termsFile, "terms", "", "Initial terms (JSON term list or any supported localization file)")
	cmd.MarkFlagRequired("target-lang")

	return cmd
}

func glossaryAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <terms-file>",
		Short: "Add terms to a glossary",
		Long: `Adds terms from a JSON list of {"source", "target", "note"} objects, or from
any supported localization file whose entries already carry a translation.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := readTerms(args[1])
			if err != nil {
				return err
			}
			if len(terms) == 0 {
				return fmt.Errorf("no terms found in %s", args[1])
			}

			client, err := remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := setupContext()
			defer cancel()

			g, err := client.AddGlossaryTerms(ctx, args[0], terms)
			if err != nil {
				return err
			}
			log.Info().Str("id", g.ID).Int("added", len(terms)).Int("total", g.TermCount).Msg("Glossary terms added")
			return nil
		},
	}
}

func glossaryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a glossary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := setupContext()
			defer cancel()

			if err := client.DeleteGlossary(ctx, args[0]); err != nil {
				return err
			}
			log.Info().Str("id", args[0]).Msg("Glossary deleted")
			return nil
		},
	}
}

// readTerms loads glossary terms from path. A JSON array of terms is used
// as is; any other supported file contributes its already-translated
// entries, first occurrence of a source winning.
func readTerms(path string) ([]api.GlossaryTerm, error) {
	f, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if f.Ext() == ".json" {
		var terms []api.GlossaryTerm
		if err := json.Unmarshal(f.Content, &terms); err == nil {
			return terms, nil
		}
	}

	parsed, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read terms: %w", err)
	}
	seen := make(map[string]bool)
	var terms []api.GlossaryTerm
	for _, e := range parsed.Entries {
		if e.Target == "" || seen[e.Source] {
			continue
		}
		seen[e.Source] = true
		terms = append(terms, api.GlossaryTerm{Source: e.Source, Target: e.Target})
	}
	return terms, nil
}
