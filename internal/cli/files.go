package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"locforge/internal/parser"
	"locforge/internal/textutil"
	"locforge/internal/translate"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "List the translatable entries of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readFile(args[0])
			if err != nil {
				return err
			}
			result, err := parser.Parse(f)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			return printEntries(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full parse result as JSON")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := printJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func printEntries(w io.Writer, result *parser.ParseResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tSOURCE\tTARGET\n")
	for i, e := range result.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, oneLine(textutil.Truncate(e.Source, 60)), oneLine(textutil.Truncate(e.Target, 60)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d entries (%s)\n", len(result.Entries), result.Format)
	return err
}

var newlineEscaper = strings.NewReplacer("\r", `\r`, "\n", `\n`, "\t", `\t`)

func oneLine(s string) string {
	return newlineEscaper.Replace(s)
}

func applyCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "apply <file> <translations.json>",
		Short: "Write translations from a JSON file back into a localization file",
		Long: `Reads a JSON array of {"source": ..., "translation": ...} objects and writes
the translations into the file without calling the translation service.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readFile(args[0])
			if err != nil {
				return err
			}
			translations, err := readTranslations(args[1])
			if err != nil {
				return err
			}

			out, parsed, err := translate.Apply(f, translations)
			if err != nil {
				return err
			}

			dest := outputPath(args[0], output, "translated")
			if err := writeOutput(dest, out); err != nil {
				return err
			}
			log.Info().
				Str("file", f.Name).
				Int("entries", len(parsed.Entries)).
				Int("translations", len(translations)).
				Str("output", dest).
				Msg("Translations applied")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: <name>.translated.<ext>)")

	return cmd
}

func readTranslations(path string) ([]parser.Translation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read translations: %w", err)
	}
	var translations []parser.Translation
	if err := json.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("decode translations %s: %w", path, err)
	}
	return translations, nil
}
