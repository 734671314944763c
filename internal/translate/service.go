// Package translate runs the parse, translate, reconstruct workflow for a
// single file or a directory tree.
package translate

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"locforge/internal/api"
	"locforge/internal/cache"
	"locforge/internal/interpolation"
	"locforge/internal/parser"
	"locforge/internal/textutil"
	"locforge/internal/worker"

	"github.com/rs/zerolog/log"
)

// Translator is the part of the remote API the workflow needs.
type Translator interface {
	Translate(ctx context.Context, req api.TranslateRequest) ([]api.Translation, error)
	CreateTask(ctx context.Context, req api.TranslateRequest) (*api.Task, error)
	WaitTask(ctx context.Context, id string, interval time.Duration, onProgress func(*api.Task)) (*api.Task, error)
	TaskResult(ctx context.Context, id string) ([]api.Translation, error)
}

type Options struct {
	SourceLang string
	TargetLang string
	GlossaryID string
	// Overwrite retranslates entries that already carry a target.
	Overwrite bool
	// Async forces a background task regardless of AsyncThreshold.
	Async bool
	// AsyncThreshold switches to a background task when more texts than
	// this are pending. Zero disables the switch.
	AsyncThreshold int
	BatchSize      int
	// Workers bounds concurrent synchronous batch calls.
	Workers      int
	PollInterval time.Duration
	// OnTaskProgress receives background task updates.
	OnTaskProgress func(*api.Task)
}

type Stats struct {
	Entries    int `json:"entries"`
	Unique     int `json:"unique"`
	Cached     int `json:"cached"`
	Translated int `json:"translated"`
	// Missing counts texts the service returned no translation for.
	Missing int `json:"missing"`
	// Mismatched counts translations whose placeholders differ from the
	// source's. They are still written.
	Mismatched int `json:"mismatched"`
}

type Result struct {
	Content      []byte
	Parsed       *parser.ParseResult
	Translations []parser.Translation
	Stats        Stats
}

type Service struct {
	client Translator
	cache  cache.Store
}

// NewService builds a Service. A nil store disables caching.
func NewService(client Translator, store cache.Store) *Service {
	if store == nil {
		store = cache.Nop{}
	}
	return &Service{client: client, cache: store}
}

// TranslateFile parses f, translates every entry that needs it and writes
// the translations back into the file.
func (s *Service) TranslateFile(ctx context.Context, f parser.File, opts Options) (*Result, error) {
	parsed, err := parser.Parse(f)
	if err != nil {
		return nil, err
	}
	if err := parser.Writable(f, parsed); err != nil {
		return nil, err
	}

	res := &Result{Parsed: parsed}
	res.Stats.Entries = len(parsed.Entries)

	var wanted []string
	for _, e := range parsed.Entries {
		if e.Target == "" || opts.Overwrite {
			wanted = append(wanted, e.Source)
		}
	}
	sources := textutil.Unique(wanted)
	res.Stats.Unique = len(sources)

	translated := make(map[string]string, len(sources))
	var pending []string
	for _, src := range sources {
		if v, ok := s.cache.Get(ctx, src, opts.TargetLang); ok {
			translated[src] = v
			res.Stats.Cached++
			continue
		}
		pending = append(pending, src)
	}

	log.Info().
		Str("file", f.Name).
		Int("entries", res.Stats.Entries).
		Int("unique", res.Stats.Unique).
		Int("cached", res.Stats.Cached).
		Int("pending", len(pending)).
		Msg("Translation plan")

	if len(pending) > 0 {
		fresh, err := s.translateTexts(ctx, pending, fileContext(f, parsed), opts)
		if err != nil {
			return nil, fmt.Errorf("translate %s: %w", f.Name, err)
		}
		for _, src := range pending {
			v, ok := fresh[src]
			if !ok {
				res.Stats.Missing++
				log.Warn().Str("file", f.Name).Str("text", textutil.Truncate(src, 40)).Msg("No translation returned")
				continue
			}
			if !placeholdersKept(src, v) {
				res.Stats.Mismatched++
				log.Warn().
					Str("file", f.Name).
					Strs("want", interpolation.Placeholders(src)).
					Strs("got", interpolation.Placeholders(v)).
					Str("text", textutil.Truncate(src, 40)).
					Msg("Translation changed placeholders")
			}
			translated[src] = v
			res.Stats.Translated++
			if err := s.cache.Set(ctx, src, opts.TargetLang, v); err != nil {
				log.Warn().Err(err).Str("text", textutil.Truncate(src, 30)).Msg("Failed to cache translation")
			}
		}
	}

	for _, src := range sources {
		if v, ok := translated[src]; ok {
			res.Translations = append(res.Translations, parser.Translation{Source: src, Translation: v})
		}
	}

	res.Content, err = parser.Reconstruct(f, parsed, res.Translations)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// placeholdersKept reports whether translated carries the same variables as
// source, in any order.
func placeholdersKept(source, translated string) bool {
	want, got := interpolation.Placeholders(source), interpolation.Placeholders(translated)
	slices.Sort(want)
	slices.Sort(got)
	return slices.Equal(want, got)
}

// translateTexts sends texts with their placeholders masked and returns the
// restored translations keyed by original text.
func (s *Service) translateTexts(ctx context.Context, texts []string, hint string, opts Options) (map[string]string, error) {
	masked := make([]string, len(texts))
	mappings := make([][]interpolation.Mapping, len(texts))
	for i, t := range texts {
		masked[i], mappings[i] = interpolation.Protect(t)
	}

	req := api.TranslateRequest{
		SourceLang: opts.SourceLang,
		TargetLang: opts.TargetLang,
		GlossaryID: opts.GlossaryID,
		Context:    hint,
	}

	var (
		got []api.Translation
		err error
	)
	if opts.Async || (opts.AsyncThreshold > 0 && len(texts) > opts.AsyncThreshold) {
		got, err = s.runTask(ctx, req, masked, opts)
	} else {
		got, err = s.runBatches(ctx, req, masked, opts)
	}
	if err != nil {
		return nil, err
	}

	byMasked := make(map[string]string, len(got))
	for _, t := range got {
		byMasked[t.Source] = t.Translation
	}

	out := make(map[string]string, len(texts))
	for i, t := range texts {
		v, ok := byMasked[masked[i]]
		if !ok {
			continue
		}
		out[t] = interpolation.Restore(v, mappings[i])
	}
	return out, nil
}

func (s *Service) runBatches(ctx context.Context, req api.TranslateRequest, texts []string, opts Options) ([]api.Translation, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = len(texts)
	}
	batches := worker.Batch(texts, batchSize)

	pool := worker.NewPool[[]string, []api.Translation](opts.Workers, func(ctx context.Context, batch []string) ([]api.Translation, error) {
		r := req
		r.Texts = batch
		return s.client.Translate(ctx, r)
	})

	var all []api.Translation
	for i, task := range pool.Execute(ctx, batches) {
		if task.Err != nil {
			return nil, fmt.Errorf("batch %d of %d: %w", i+1, len(batches), task.Err)
		}
		all = append(all, task.Result...)
	}
	return all, nil
}

func (s *Service) runTask(ctx context.Context, req api.TranslateRequest, texts []string, opts Options) ([]api.Translation, error) {
	req.Texts = texts
	task, err := s.client.CreateTask(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Info().Str("task", task.ID).Int("texts", len(texts)).Msg("Submitted translation task")

	if _, err := s.client.WaitTask(ctx, task.ID, opts.PollInterval, opts.OnTaskProgress); err != nil {
		return nil, err
	}
	return s.client.TaskResult(ctx, task.ID)
}

// fileContext is the hint sent with every text of a file.
func fileContext(f parser.File, parsed *parser.ParseResult) string {
	if parsed.SourceColumn != "" {
		return fmt.Sprintf("%s (column %s)", f.Name, parsed.SourceColumn)
	}
	return f.Name
}

// Apply reconstructs f offline from a list of translations.
func Apply(f parser.File, translations []parser.Translation) ([]byte, *parser.ParseResult, error) {
	parsed, err := parser.Parse(f)
	if err != nil {
		return nil, nil, err
	}
	out, err := parser.Reconstruct(f, parsed, translations)
	if err != nil {
		return nil, nil, err
	}
	return out, parsed, nil
}

// statsTotals accumulates Stats across files.
type statsTotals struct {
	mu sync.Mutex
	Stats
}

func (t *statsTotals) add(s Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Entries += s.Entries
	t.Unique += s.Unique
	t.Cached += s.Cached
	t.Translated += s.Translated
	t.Missing += s.Missing
	t.Mismatched += s.Mismatched
}
