package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/soltixdb/cosinor/internal/analysis"
	"github.com/soltixdb/cosinor/internal/config"
	"github.com/soltixdb/cosinor/internal/logging"
	"github.com/soltixdb/cosinor/internal/models"
	"github.com/soltixdb/cosinor/internal/services"
)

const analysisName = "cosinor"

var guessFlags = [...]string{analysis.FieldH, analysis.FieldB, analysis.FieldV, analysis.FieldP}

func analyzeCmd() *cobra.Command {
	var (
		loss        string
		maxNfev     int
		boundsLower string
		boundsUpper string
		asJSON      bool
		verbose     bool
	)
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Fit a cosinor to the first two columns of a spreadsheet",
		Long: `Read time (column A) and data (column B) from an xlsx or csv file,
fit h*cos(2*pi*(x+v)/p)+b and print the summary.`,
		Example: `cosinor analyze sleep.xlsx --h 500 --b 150 --v 2 --p 24
cosinor analyze sleep.csv --bounds-lower 0,-inf,-inf,20 --bounds-upper inf,inf,inf,28 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), level)

			service, err := services.NewAnalysisService(logger, cfg.Analysis, cfg.Ingest, nil)
			if err != nil {
				return err
			}

			values := map[string]string{analysis.FieldIncludeText: "on"}
			for _, name := range guessFlags {
				if cmd.Flags().Changed(name) {
					values[name], _ = cmd.Flags().GetString(name)
				}
			}
			if cmd.Flags().Changed("loss") {
				values[analysis.FieldLoss] = loss
			}
			if cmd.Flags().Changed("max-nfev") {
				values[analysis.FieldMaxNfev] = strconv.Itoa(maxNfev)
			}
			if boundsLower != "" || boundsUpper != "" {
				values[analysis.FieldSpecifyBounds] = "on"
				if err := boundValues(values, "_lower", boundsLower); err != nil {
					return err
				}
				if err := boundValues(values, "_upper", boundsUpper); err != nil {
					return err
				}
			}

			return runAnalyze(cmd, service, args[0], values, asJSON)
		},
	}

	for _, name := range guessFlags {
		cmd.Flags().String(name, "", fmt.Sprintf("Initial guess for %s", name))
	}
	cmd.Flags().StringVar(&loss, "loss", "", "Loss function (linear, soft_l1, huber, cauchy, arctan)")
	cmd.Flags().IntVar(&maxNfev, "max-nfev", 0, "Maximum number of function evaluations")
	cmd.Flags().StringVar(&boundsLower, "bounds-lower", "", "Lower bounds for h,b,v,p")
	cmd.Flags().StringVar(&boundsUpper, "bounds-upper", "", "Upper bounds for h,b,v,p")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log fit progress to stderr")
	return cmd
}

// boundValues spreads a comma list of four bounds over the h,b,v,p fields.
// An empty list leaves the side unbounded.
func boundValues(values map[string]string, suffix, list string) error {
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	if len(parts) != len(guessFlags) {
		return fmt.Errorf("bounds%s: expected %d comma separated values, got %d", strings.ReplaceAll(suffix, "_", "-"), len(guessFlags), len(parts))
	}
	for i, name := range guessFlags {
		values[name+suffix] = strings.TrimSpace(parts[i])
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, service *services.AnalysisService, path string, values map[string]string, asJSON bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	series, err := service.ParseSpreadsheet(filepath.Base(path), f)
	if err != nil {
		return cliError(services.FromError(err))
	}

	res, err := service.Run(context.Background(), analysisName, series, values)
	if err != nil {
		return cliError(err)
	}

	out := cmd.OutOrStdout()
	if !asJSON {
		_, err = fmt.Fprintln(out, res.Output.Text)
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(models.AnalysisResponse{
		RunID:      res.RunID,
		Analysis:   res.Output.Analysis,
		Samples:    series.Len(),
		DurationMS: res.Duration.Milliseconds(),
		Result:     res.Output.Result,
		Metrics:    res.Output.Metrics,
		Curve:      res.Output.Curve,
		Text:       res.Output.Text,
	})
}

// cliError prefixes service errors with their code
func cliError(err error) error {
	var serr *services.ServiceError
	if errors.As(err, &serr) {
		return fmt.Errorf("%s: %w", serr.Code, err)
	}
	return err
}
