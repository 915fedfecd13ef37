package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/okian/pedbp/internal/adapters/tabular"
	"github.com/okian/pedbp/internal/domain/age"
	"github.com/okian/pedbp/internal/domain/classify"
	"github.com/okian/pedbp/internal/domain/evaluate"
	"github.com/okian/pedbp/internal/domain/i18n"
	"github.com/okian/pedbp/pkg/logger"
)

// columnFlags maps mapping flags to the field they override.
var columnFlags = []struct {
	name  string
	field i18n.Field
}{
	{"sex", i18n.FieldSex},
	{"age", i18n.FieldAge},
	{"height", i18n.FieldHeight},
	{"sbp", i18n.FieldSystolic},
	{"dbp", i18n.FieldDiastolic},
}

func newEvaluateCommand() *cli.Command {
	return &cli.Command{
		Name:      "evaluate",
		Usage:     "Classify every row of a CSV or XLSX file",
		UsageText: "pedbp evaluate --in children.xlsx [--out result.xlsx] [--lang en]",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "input file (.csv or .xlsx)", Required: true},
			&cli.StringFlag{Name: "out", Usage: "output file (.csv or .xlsx); CSV on stdout when empty"},
			&cli.StringFlag{Name: "lang", Usage: "output language: zh or en"},
			&cli.StringFlag{Name: "age-policy", Usage: "bare age policy: strict or months"},
			&cli.StringFlag{Name: "reference", Usage: "reference table CSV replacing the bundled one"},
			&cli.StringFlag{Name: "sheet", Usage: "worksheet to read from an XLSX input"},
			&cli.BoolFlag{Name: "quiet", Usage: "suppress the column fallback notice"},
			&cli.BoolFlag{Name: "detail", Usage: "also append systolic and diastolic categories"},
			&cli.BoolFlag{Name: "bom", Usage: "write a UTF-8 BOM in CSV output"},
			&cli.BoolFlag{Name: "summary", Usage: "print category counts to stderr"},
		}, mappingFlags()...),
		Action: runEvaluate,
	}
}

func mappingFlags() []cli.Flag {
	flags := make([]cli.Flag, 0, len(columnFlags))
	for _, c := range columnFlags {
		flags = append(flags, &cli.StringFlag{Name: c.name, Usage: "column holding " + string(c.field)})
	}
	return flags
}

func runEvaluate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}
	lang, err := i18n.ParseLanguage(firstNonEmpty(cmd.String("lang"), cfg.Language))
	if err != nil {
		return err
	}
	policy, err := age.ParsePolicy(firstNonEmpty(cmd.String("age-policy"), cfg.AgePolicy))
	if err != nil {
		return err
	}
	tablePath := firstNonEmpty(cmd.String("reference"), cfg.ReferenceTable)
	table, err := loadTable(tablePath)
	if err != nil {
		return err
	}
	warnBundled(ctx, tablePath)
	quiet := cmd.Bool("quiet") || cfg.Quiet

	mapping := evaluate.Mapping{}
	for _, c := range columnFlags {
		if col := cmd.String(c.name); col != "" {
			mapping[c.field] = col
		}
	}

	in := cmd.String("in")
	ds, err := tabular.ReadFile(in, tabular.WithSheet(cmd.String("sheet")))
	if err != nil {
		return err
	}

	out, err := evaluate.Evaluate(ctx, ds,
		evaluate.WithLanguage(lang),
		evaluate.WithAgePolicy(policy),
		evaluate.WithTable(table),
		evaluate.WithMapping(mapping),
		evaluate.WithQuiet(quiet),
		evaluate.WithDetail(cmd.Bool("detail")),
		evaluate.WithParallelism(cfg.Parallelism),
		evaluate.WithLogger(logger.Nop()),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	stderr := cmd.Root().ErrWriter
	for _, n := range out.Notices {
		_, _ = fmt.Fprintln(stderr, n.Message)
	}
	if cmd.Bool("summary") {
		vocab := i18n.For(lang)
		for _, s := range classify.Statuses {
			if n := out.Summary[s]; n > 0 {
				_, _ = fmt.Fprintf(stderr, "%s\t%d\n", vocab.Label(s), n)
			}
		}
	}

	if path := cmd.String("out"); path != "" {
		return tabular.WriteFile(path, out.Dataset, tabular.WithBOM(cmd.Bool("bom")), tabular.WithHeaderStyle(true))
	}
	return tabular.WriteCSV(cmd.Root().Writer, out.Dataset, tabular.WithBOM(cmd.Bool("bom")))
}
