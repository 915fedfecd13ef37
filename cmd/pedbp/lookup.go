package main

import (
	"context"
	"encoding/json"

	"github.com/urfave/cli/v3"

	"github.com/okian/pedbp/pkg/logger"
)

func newLookupCommand() *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "Print the reference stratum matching one child",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sex", Usage: "sex, e.g. 男 or male", Required: true},
			&cli.StringFlag{Name: "age", Usage: "age, e.g. 6岁3个月 or 6.25", Required: true},
			&cli.StringFlag{Name: "height", Usage: "height in cm", Required: true},
			&cli.StringFlag{Name: "age-policy", Usage: "bare age policy: strict or months"},
			&cli.StringFlag{Name: "reference", Usage: "reference table CSV replacing the bundled one"},
		},
		Action: runLookup,
	}
}

func runLookup(ctx context.Context, cmd *cli.Command) error {
	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}
	c := *cfg
	c.AgePolicy = firstNonEmpty(cmd.String("age-policy"), cfg.AgePolicy)
	c.ReferenceTable = firstNonEmpty(cmd.String("reference"), cfg.ReferenceTable)

	svc, err := newService(&c, logger.Nop())
	if err != nil {
		return err
	}
	warnBundled(ctx, c.ReferenceTable)
	row, err := svc.Lookup(ctx, cmd.String("sex"), cmd.String("age"), cmd.String("height"))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(row)
}
