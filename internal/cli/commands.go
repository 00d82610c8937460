package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"TradeSuite/internal/di"
	"TradeSuite/internal/domain/models"
	"TradeSuite/internal/usecase"
	"TradeSuite/pkg/config"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X TradeSuite/internal/cli.Version=...".
var Version = "dev"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tradesuite",
		Short: "TradeSuite - signal aggregation and walk-forward backtesting",
		Long: `TradeSuite polls a set of signal sources, combines their votes into one gated
trading decision, and replays that decision engine bar by bar over historical prices.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "configuration file path")

	load := func() (*config.Config, error) {
		return config.LoadWithEnv(configPath)
	}

	rootCmd.AddCommand(newServeCmd(load))
	rootCmd.AddCommand(newDecideCmd(load))
	rootCmd.AddCommand(newBacktestCmd(load))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

type configLoader func() (*config.Config, error)

// newServeCmd runs the HTTP decision service.
func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the decision HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()
			return app.Run(cmd.Context())
		},
	}
}

// newDecideCmd asks the engine for one live decision.
func newDecideCmd(load configLoader) *cobra.Command {
	var (
		minConf float64
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "decide SYMBOL",
		Short: "Poll every source once and print the aggregated decision",
		Long: `Poll every configured source for SYMBOL and print the gated decision.
Example: tradesuite decide AAPL --min-conf=0.6`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			uc, cleanup, err := di.InitializeDecider(cfg)
			if err != nil {
				return fmt.Errorf("decider initialization failed: %w", err)
			}
			defer cleanup()

			d, err := uc.Decide(cmd.Context(), usecase.DecideParams{Symbol: args[0], MinConf: minConf})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDecision(d))
			return nil
		},
	}
	cmd.Flags().Float64Var(&minConf, "min-conf", 0, "confidence threshold for this request (0 uses decision.min_confidence)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the decision as JSON")
	return cmd
}

// newBacktestCmd runs the walk-forward batch over the configured symbols.
func newBacktestCmd(load configLoader) *cobra.Command {
	var (
		symbols []string
		start   string
		end     string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run walk-forward backtests and write the leaderboard",
		Long: `Replay the decision engine over walk-forward windows for every symbol.
Example: tradesuite backtest --symbols=AAPL,MSFT --start=2021-01-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if len(symbols) > 0 {
				cfg.Backtest.Symbols = upper(symbols)
			}
			if start != "" {
				cfg.Backtest.Start = start
			}
			if end != "" {
				cfg.Backtest.End = end
			}
			if output != "" {
				cfg.Backtest.OutputDir = output
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			bt, cleanup, err := di.InitializeBacktest(cfg)
			if err != nil {
				return fmt.Errorf("backtest initialization failed: %w", err)
			}
			defer cleanup()

			report, err := bt.Run(cmd.Context())
			if report != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
			}
			if err != nil && report != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("some result sinks failed: "+err.Error()))
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "comma separated symbols (overrides backtest.symbols)")
	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "end date YYYY-MM-DD (today if empty)")
	cmd.Flags().StringVar(&output, "output", "", "output directory for the file sink")
	return cmd
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tradesuite %s\n", Version)
		},
	}
}

// Execute runs the root command and maps errors to the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, config.ErrInvalid) || errors.Is(err, models.ErrConfiguration) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("configuration error: "+err.Error()))
			return 2
		}
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		return 1
	}
	return 0
}

func upper(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
