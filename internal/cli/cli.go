package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/pureplate/internal/application"
	"github.com/bryanwahyu/pureplate/internal/application/analysis"
	"github.com/bryanwahyu/pureplate/internal/config"
	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
	"github.com/bryanwahyu/pureplate/internal/formatter"
	"github.com/bryanwahyu/pureplate/internal/infra/ai"
	"github.com/bryanwahyu/pureplate/internal/infra/ai/credentials"
	"github.com/bryanwahyu/pureplate/internal/infra/ai/prompt"
	"github.com/bryanwahyu/pureplate/internal/logging"
	"github.com/bryanwahyu/pureplate/internal/middleware"
)

// Analyzer is what the commands need from the orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, query string, uc domain.UserContext) (domain.Result, error)
	AnalyzeLabel(ctx context.Context, image []byte, mimeType string, uc domain.UserContext) (domain.Result, error)
}

// App carries the I/O and service factory shared by all commands.
type App struct {
	Out        io.Writer
	Version    string
	ConfigPath string
	NewService func(cfgPath string, verbose bool) (Analyzer, error)
}

func NewApp(version string) *App {
	return &App{Out: os.Stdout, Version: version, ConfigPath: "config.yaml", NewService: NewService}
}

// NewService builds an in-process orchestrator from config. The CLI keeps
// stdout for results, so logs go to stderr at warn unless verbose.
func NewService(cfgPath string, verbose bool) (Analyzer, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, true)
	if err != nil {
		return nil, err
	}
	reasoner, err := ai.NewReasoner(cfg.AI.Provider, ai.Options{
		Model:       cfg.AI.Model,
		BaseURL:     cfg.AI.BaseURL,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		return nil, err
	}
	matcher, err := analysis.MatcherFor(cfg.Cache.Match)
	if err != nil {
		return nil, err
	}
	return &analysis.Service{
		Pool:     credentials.NewPool(cfg.AI.Keys),
		Builder:  prompt.NewBuilder(),
		Reasoner: reasoner,
		History:  analysis.NewHistory(matcher),
		Clock:    application.SystemClock{},
		Logger:   logger,
		Retry:    analysis.RetryPolicy{Retries: cfg.AI.Retries, Backoff: cfg.AI.Backoff},
	}, nil
}

var (
	outputFormat string
	allergies    []string
	bmiValue     float64
	bmiCategory  string
	verbose      bool
)

func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pureplate",
		Short: "AI food toxicity and nutrition analyzer",
		Long: `pureplate asks a generative model for a structured health analysis of a
food item or a photo of its label, personalised by your allergies and BMI.`,
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetOut(app.Out)
	rootCmd.PersistentFlags().StringVar(&app.ConfigPath, "config", app.ConfigPath, "Path to config.yaml")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "human", "Output format (human, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging to stderr")

	rootCmd.AddCommand(
		newAnalyzeCmd(app),
		newLabelCmd(app),
		newAllergiesCmd(app),
		newVersionCmd(app),
	)
	return rootCmd
}

func addContextFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&allergies, "allergy", "a", nil, "Allergy to check for (repeatable): "+strings.Join(domain.AllergyOptions, ", "))
	cmd.Flags().Float64Var(&bmiValue, "bmi", 0, "Your BMI value")
	cmd.Flags().StringVar(&bmiCategory, "bmi-category", "", "Your BMI category (Underweight, Normal, Overweight, Obese)")
}

func userContext() (domain.UserContext, error) {
	canonical, err := middleware.ValidateAllergies(allergies)
	if err != nil {
		return domain.UserContext{}, err
	}
	bmi, err := middleware.ValidateBMI(bmiValue, bmiCategory)
	if err != nil {
		return domain.UserContext{}, err
	}
	return domain.UserContext{Allergies: canonical, BMI: bmi}, nil
}

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze QUERY",
		Short: "Analyze a food item or chemical by name",
		Long: `Analyze a food item by name.

Examples:
  # Quick check
  pureplate analyze "Energy Drink"

  # Personalised
  pureplate analyze "peanut butter cups" -a Peanuts -a Dairy --bmi 27.4 --bmi-category Overweight

  # Machine-readable
  pureplate analyze "Red 40" -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := middleware.ValidateQuery(strings.Join(args, " "))
			if err != nil {
				return err
			}
			uc, err := userContext()
			if err != nil {
				return err
			}
			svc, err := app.NewService(app.ConfigPath, verbose)
			if err != nil {
				return err
			}

			s := newSpinner(" Analyzing " + query + "...")
			s.Start()
			res, err := svc.Analyze(cmd.Context(), query, uc)
			s.Stop()
			if err != nil {
				return err
			}
			return formatter.DisplayResult(app.Out, res, outputFormat)
		},
	}
	addContextFlags(cmd)
	return cmd
}

func newLabelCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label FILE",
		Short: "Analyze a photo of a food label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read label photo: %w", err)
			}
			mime, err := middleware.ValidateImage(data)
			if err != nil {
				return err
			}
			uc, err := userContext()
			if err != nil {
				return err
			}
			svc, err := app.NewService(app.ConfigPath, verbose)
			if err != nil {
				return err
			}

			s := newSpinner(" Reading label...")
			s.Start()
			res, err := svc.AnalyzeLabel(cmd.Context(), data, mime, uc)
			s.Stop()
			if err != nil {
				return err
			}
			return formatter.DisplayResult(app.Out, res, outputFormat)
		},
	}
	addContextFlags(cmd)
	return cmd
}

func newAllergiesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "allergies",
		Short: "List the allergies pureplate can check for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return formatter.DisplayAllergies(app.Out, domain.AllergyOptions, outputFormat)
		},
	}
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(app.Out, "pureplate %s\n", color.CyanString(app.Version))
		},
	}
}

// newSpinner draws on stderr and stays silent when that is not a terminal.
func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriterFile(os.Stderr))
	s.Suffix = suffix
	return s
}
