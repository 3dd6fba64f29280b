package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/talgya/wuxing/internal/engine"
	g "github.com/talgya/wuxing/internal/ganzhi"
)

var (
	evalInput  g.ChartInput // pillar, age and gender flags
	evalFile   string       // YAML chart file, replaces the pillar flags
	evalFormat string       // text, json or auto
	evalSave   bool         // archive the result
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate one chart",
	Long: `Evaluates a chart given as pillar flags or a YAML file.

Pillars accept characters (丙寅) or pinyin (Bing-Yin, bingyin).
Year, month and day are required; hour and the overlay pillars are optional.

Examples:
  wuxing eval --year 丙寅 --month 己亥 --day 丁丑 --hour 丁未 --age 30
  wuxing eval --file chart.yaml --save`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	f := evalCmd.Flags()
	f.StringVar(&evalInput.Year, "year", "", "year pillar")
	f.StringVar(&evalInput.Month, "month", "", "month pillar")
	f.StringVar(&evalInput.Day, "day", "", "day pillar")
	f.StringVar(&evalInput.Hour, "hour", "", "hour pillar")
	f.StringVar(&evalInput.Luck, "luck", "", "ten-year luck pillar")
	f.StringVar(&evalInput.Annual, "annual", "", "annual pillar")
	f.StringVar(&evalInput.Monthly, "monthly", "", "monthly pillar")
	f.StringVar(&evalInput.Daily, "daily", "", "daily pillar")
	f.StringVar(&evalInput.Hourly, "hourly", "", "hourly pillar")
	f.IntVar(&evalInput.Age, "age", 0, "age in years")
	f.StringVar(&evalInput.Gender, "gender", "", "male or female")
	f.StringVarP(&evalFile, "file", "f", "", "read the chart from a YAML file")
	f.StringVar(&evalFormat, "format", "auto", "output format: text, json or auto")
	f.BoolVar(&evalSave, "save", false, "store the evaluation in the archive")
}

func runEval(cmd *cobra.Command, args []string) error {
	in := evalInput
	if evalFile != "" {
		loaded, err := loadChartFile(evalFile)
		if err != nil {
			return err
		}
		in = loaded
	}

	res, err := evaluateInput(in, cfg.Engine.ParallelBalance)
	if err != nil {
		return err
	}

	var id string
	if evalSave {
		db, err := openArchive()
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer db.Close()
		if id, err = db.SaveEvaluation(res); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	format, err := resolveFormat(evalFormat, out)
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSONResult(out, id, res)
	}
	writeReport(out, res)
	if id != "" {
		fmt.Fprintf(out, "\nSaved as %s\n", id)
	}
	return nil
}

// loadChartFile reads a ChartInput from YAML.
func loadChartFile(path string) (g.ChartInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return g.ChartInput{}, fmt.Errorf("read chart: %w", err)
	}
	var in g.ChartInput
	if err := yaml.Unmarshal(data, &in); err != nil {
		return g.ChartInput{}, fmt.Errorf("parse chart %s: %w", path, err)
	}
	return in, nil
}

// evaluateInput validates, builds and evaluates a textual chart.
func evaluateInput(in g.ChartInput, parallel bool) (*engine.Result, error) {
	if err := validator.New().Struct(in); err != nil {
		return nil, fmt.Errorf("invalid chart: %w", err)
	}
	chart, err := in.Build()
	if err != nil {
		return nil, err
	}
	res, err := engine.Evaluate(chart, engine.Options{ParallelBalance: parallel})
	if err != nil {
		return nil, err
	}
	slog.Debug("chart evaluated", "day_master", res.DayMaster.Stem, "strength", res.DayMaster.Strength)
	return res, nil
}

// resolveFormat turns "auto" into text when out is a terminal and json otherwise.
func resolveFormat(format string, out io.Writer) (string, error) {
	switch format {
	case "text", "json":
		return format, nil
	case "auto", "":
		if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			return "text", nil
		}
		return "json", nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or auto)", format)
}

func writeJSONResult(w io.Writer, id string, res *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		ID string `json:"id,omitempty"`
		*engine.Result
	}{id, res})
}
