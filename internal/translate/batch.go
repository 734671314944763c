package translate

import (
	"context"
	"fmt"
	"os"

	"locforge/internal/filewalker"
	"locforge/internal/worker"

	"github.com/rs/zerolog/log"
)

// FileReport is the outcome of one file in a directory run.
type FileReport struct {
	Input  string
	Output string
	Stats  Stats
	Err    error
}

// DirReport summarises a directory run.
type DirReport struct {
	Files  []FileReport
	Totals Stats
	Failed int
}

// TranslateDir translates every supported file below inDir into the same
// relative location under outDir. Files run concurrently on fileWorkers
// goroutines; a failing file is reported and does not stop the others.
func (s *Service) TranslateDir(ctx context.Context, inDir, outDir string, fileWorkers int, opts Options) (*DirReport, error) {
	entries, err := filewalker.NewWalker().Walk(inDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var totals statsTotals
	pool := worker.NewPool[filewalker.FileEntry, FileReport](fileWorkers,
		func(ctx context.Context, entry filewalker.FileEntry) (FileReport, error) {
			report := FileReport{Input: entry.Path}

			f, err := filewalker.ReadFile(entry)
			if err != nil {
				return report, err
			}
			res, err := s.TranslateFile(ctx, f, opts)
			if err != nil {
				return report, fmt.Errorf("%s: %w", entry.Rel, err)
			}

			out, err := filewalker.OutputPath(outDir, entry)
			if err != nil {
				return report, err
			}
			if err := os.WriteFile(out, res.Content, 0644); err != nil {
				return report, fmt.Errorf("write %s: %w", out, err)
			}

			report.Output = out
			report.Stats = res.Stats
			totals.add(res.Stats)
			log.Info().
				Str("input", entry.Rel).
				Str("output", out).
				Int("translated", res.Stats.Translated).
				Int("cached", res.Stats.Cached).
				Msg("File translated")
			return report, nil
		},
	).OnProgress(func(done, total int) {
		log.Debug().Int("done", done).Int("total", total).Msg("Batch progress")
	})

	report := &DirReport{}
	for _, task := range pool.Execute(ctx, entries) {
		fr := task.Result
		fr.Input = task.Input.Path
		fr.Err = task.Err
		if fr.Err != nil {
			report.Failed++
		}
		report.Files = append(report.Files, fr)
	}
	report.Totals = totals.Stats

	log.Info().
		Int("files", len(entries)).
		Int("failed", report.Failed).
		Int("translated", report.Totals.Translated).
		Str("output", outDir).
		Msg("Batch translation complete")

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}
