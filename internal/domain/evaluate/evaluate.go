// Package evaluate resolves input columns, classifies every row against the
// reference table and appends the localized category column.
package evaluate

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/pedbp/internal/domain/age"
	"github.com/okian/pedbp/internal/domain/classify"
	"github.com/okian/pedbp/internal/domain/i18n"
	"github.com/okian/pedbp/internal/domain/record"
	"github.com/okian/pedbp/internal/domain/reference"
	"github.com/okian/pedbp/pkg/logger"
	"github.com/okian/pedbp/pkg/metrics"
)

// minChunkRows keeps small datasets on a single goroutine.
const minChunkRows = 64

// NoticeColumnFallback is emitted when the other language's default columns
// were used.
const NoticeColumnFallback = "column_fallback"

// Notice is an informational message produced during evaluation.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Summary counts rows per combined category.
type Summary map[classify.Status]int

// Outcome is the result of one evaluation.
type Outcome struct {
	Dataset    Dataset           `json:"dataset"`
	Notices    []Notice          `json:"notices"`
	Summary    Summary           `json:"summary"`
	Resolution Resolution        `json:"resolution"`
	Results    []classify.Result `json:"-"`
}

// Evaluator holds evaluation settings. Per-call options passed to Evaluate
// override them without mutating the Evaluator.
type Evaluator struct {
	mapping     Mapping
	language    i18n.Language
	quiet       bool
	detail      bool
	policy      age.Policy
	table       *reference.Table
	parallelism int
	logger      logger.Logger
}

// New creates an evaluator. It defaults to Chinese, the strict age policy,
// the bundled table, GOMAXPROCS goroutines and no logging.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		language:    i18n.Chinese,
		policy:      age.PolicyStrict,
		parallelism: runtime.GOMAXPROCS(0),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate is New(opts...).Evaluate(ctx, ds).
func Evaluate(ctx context.Context, ds Dataset, opts ...Option) (*Outcome, error) {
	return New(opts...).Evaluate(ctx, ds)
}

// Language returns the configured output language.
func (e *Evaluator) Language() i18n.Language { return e.language }

// Evaluate classifies every row of ds. The input is not modified. It fails
// only for structural problems: unknown language or policy, an invalid
// mapping, unresolvable columns or a canceled context.
func (e *Evaluator) Evaluate(ctx context.Context, ds Dataset, opts ...Option) (*Outcome, error) {
	c := *e
	for _, opt := range opts {
		opt(&c)
	}
	return c.run(ctx, ds)
}

func (e *Evaluator) run(ctx context.Context, ds Dataset) (*Outcome, error) {
	start := time.Now()

	if !e.language.Valid() {
		return nil, fmt.Errorf("evaluate: %w: %q", i18n.ErrUnknownLanguage, e.language)
	}
	policy, err := age.ParsePolicy(string(e.policy))
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if err := e.mapping.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	columns := ds.ColumnNames()
	res, err := Resolve(columns, e.mapping, e.language)
	if err != nil {
		metrics.RecordMissingColumns()
		metrics.RecordErrorByComponent("evaluate", "missing_columns")
		return nil, err
	}

	vocab := i18n.For(e.language)
	out := &Outcome{Summary: Summary{}, Resolution: res, Notices: []Notice{}}
	if res.Fallback {
		metrics.RecordMappingFallback(string(res.Source))
		if !e.quiet {
			n := Notice{Kind: NoticeColumnFallback, Message: vocab.Fallback(res.Names())}
			out.Notices = append(out.Notices, n)
			e.logger.Info(ctx, n.Message,
				logger.String("language", string(e.language)),
				logger.String("columns_language", string(res.Source)),
			)
		}
	}

	results, err := e.classifyRows(ctx, ds.Rows, res, policy)
	if err != nil {
		return nil, err
	}
	out.Results = results
	for _, r := range results {
		out.Summary[r.Combined]++
	}
	out.Dataset = merge(columns, ds.Rows, results, vocab, e.detail)

	elapsed := time.Since(start)
	metrics.RecordEvaluation(len(ds.Rows), float64(elapsed.Milliseconds()))
	e.logger.Debug(ctx, "evaluation finished",
		logger.Int("rows", len(ds.Rows)),
		logger.Duration("elapsed", elapsed),
		logger.Bool("fallback", res.Fallback),
	)
	return out, nil
}

// classifyRows splits rows into contiguous chunks classified concurrently.
// Each chunk writes only its own slice positions, so order is preserved.
func (e *Evaluator) classifyRows(ctx context.Context, rows []Row, res Resolution, policy age.Policy) ([]classify.Result, error) {
	out := make([]classify.Result, len(rows))
	if len(rows) == 0 {
		return out, ctx.Err()
	}

	norm := record.NewNormalizer(age.NewParser(age.WithPolicy(policy)))
	clf := classify.New(e.table)

	chunks := min(max((len(rows)+minChunkRows-1)/minChunkRows, 1), e.parallelism)
	size := (len(rows) + chunks - 1) / chunks

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for lo := 0; lo < len(rows); lo += size {
		hi := min(lo+size, len(rows))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				out[i] = e.classifyRow(gctx, i, rows[i], res, norm, clf)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return out, nil
}

func (e *Evaluator) classifyRow(ctx context.Context, i int, row Row, res Resolution, norm *record.Normalizer, clf *classify.Classifier) classify.Result {
	n := norm.Normalize(record.Input{
		Sex:       CellString(row[res.Columns[i18n.FieldSex]]),
		Age:       row[res.Columns[i18n.FieldAge]],
		Height:    record.NumberPtr(row[res.Columns[i18n.FieldHeight]]),
		Systolic:  record.NumberPtr(row[res.Columns[i18n.FieldSystolic]]),
		Diastolic: record.NumberPtr(row[res.Columns[i18n.FieldDiastolic]]),
	})
	metrics.RecordAgeParse(string(n.Age.Form))

	r := clf.Classify(n)
	metrics.RecordRowEvaluated(r.Combined.String())
	if r.Combined == classify.OutOfRange {
		e.logger.Debug(ctx, "row has no reference stratum",
			logger.Int("row", i),
			logger.String("sex", string(n.Sex)),
			logger.String("age_form", string(n.Age.Form)),
			logger.Bool("height_ok", n.HeightOK),
		)
	}
	return r
}

// merge copies every row and writes the label columns. Existing columns with
// the same names are overwritten in place.
func merge(columns []string, rows []Row, results []classify.Result, vocab *i18n.Vocabulary, detail bool) Dataset {
	added := []string{vocab.ResultColumn()}
	if detail {
		added = append(added, vocab.SystolicColumn(), vocab.DiastolicColumn())
	}
	for _, name := range added {
		if !slices.Contains(columns, name) {
			columns = append(columns, name)
		}
	}

	out := make([]Row, len(rows))
	for i, src := range rows {
		row := make(Row, len(src)+len(added))
		maps.Copy(row, src)
		r := results[i]
		row[vocab.ResultColumn()] = vocab.Label(r.Combined)
		if detail {
			row[vocab.SystolicColumn()] = vocab.Label(r.Systolic)
			row[vocab.DiastolicColumn()] = vocab.Label(r.Diastolic)
		}
		out[i] = row
	}
	return Dataset{Columns: columns, Rows: out}
}
