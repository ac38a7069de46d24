package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"lpgo/internal/calculation"
	"lpgo/internal/config"
	"lpgo/internal/output"
	"lpgo/internal/store"
)

// simpleCLILogger implements calculation.Logger using the standard log package
type simpleCLILogger struct{}

func (simpleCLILogger) Debugf(format string, args ...any) { log.Printf("DEBUG: "+format, args...) }
func (simpleCLILogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (simpleCLILogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (simpleCLILogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "lpgo",
	Short: "Household life-plan simulator",
	Long:  "Projects household finances month-by-month over a multi-decade horizon under deterministic and Monte Carlo return assumptions",
}

var calculateCmd = &cobra.Command{
	Use:   "calculate [plan-file]",
	Short: "Run the deterministic projection for a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parser := config.NewInputParser()
		params, err := parser.LoadFromFile(args[0])
		if err != nil {
			return err
		}

		engine := calculation.NewEngine()
		if debugFlag, _ := cmd.Flags().GetBool("debug"); debugFlag {
			engine.Debug = true
			engine.SetLogger(simpleCLILogger{})
		}

		result, err := engine.RunProjection(context.Background(), params)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		rg := output.NewReportGenerator(os.Stdout)
		rg.Params = params
		if err := rg.GenerateReport(result, format); err != nil {
			return err
		}

		if withEdu, _ := cmd.Flags().GetBool("education"); withEdu && format == "console" {
			fmt.Println()
			if err := rg.GenerateEducationReport(calculation.BuildEducationSummary(params, result)); err != nil {
				return err
			}
		}
		if withDiv, _ := cmd.Flags().GetBool("dividends"); withDiv && format == "console" {
			fmt.Println()
			if err := rg.GenerateDividendReport(calculation.BuildDividendSummary(params, result)); err != nil {
				return err
			}
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [plan-file]",
	Short: "Validate a plan document without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parser := config.NewInputParser()
		params, err := parser.LoadFromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("plan ok: ages %d-%d, %d buckets, %d phases\n",
			params.BasicInfo.StartAge, params.BasicInfo.EndAge,
			len(params.Investment.Buckets), len(params.Phases))
		return nil
	},
}

var montecarloCmd = &cobra.Command{
	Use:   "monte-carlo [plan-file]",
	Short: "Run the stochastic projection for a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parser := config.NewInputParser()
		params, err := parser.LoadFromFile(args[0])
		if err != nil {
			return err
		}

		trials, _ := cmd.Flags().GetInt("trials")
		std, _ := cmd.Flags().GetFloat64("return-std")
		seed, _ := cmd.Flags().GetInt64("seed")
		mode, _ := cmd.Flags().GetString("mode")
		workers, _ := cmd.Flags().GetInt("workers")
		actualOffset, _ := cmd.Flags().GetFloat64("actual-offset")
		actualAge, _ := cmd.Flags().GetInt("actual-age")

		mcConfig := calculation.MonteCarloConfig{
			Trials:           trials,
			ReturnStd:        decimal.NewFromFloat(std),
			Seed:             seed,
			Mode:             mode,
			Workers:          workers,
			ActualCashOffset: decimal.NewFromFloat(actualOffset),
			ActualAge:        actualAge,
		}

		engine := calculation.NewEngine()
		mce := calculation.NewMonteCarloEngine(engine, params, mcConfig)
		result, err := mce.Run(context.Background())
		if err != nil {
			return err
		}

		return output.NewReportGenerator(os.Stdout).GenerateMonteCarloReport(result)
	},
}

func scenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Archive and manage saved scenarios",
	}

	var dbPath string
	cmd.PersistentFlags().StringVar(&dbPath, "db", "data/scenarios.db", "path to the scenario database")

	saveCmd := &cobra.Command{
		Use:   "save [name] [plan-file]",
		Short: "Run a plan and archive the result under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, planFile := args[0], args[1]

			settings, err := os.ReadFile(planFile)
			if err != nil {
				return err
			}
			parser := config.NewInputParser()
			params, err := parser.Load(settings)
			if err != nil {
				return err
			}

			result, err := calculation.NewEngine().RunProjection(context.Background(), params)
			if err != nil {
				return err
			}
			resultJSON, err := json.Marshal(result)
			if err != nil {
				return err
			}

			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Save(name, string(settings), string(resultJSON)); err != nil {
				return err
			}
			fmt.Printf("scenario %q saved\n", name)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			scenarios, err := st.List()
			if err != nil {
				return err
			}
			if len(scenarios) == 0 {
				fmt.Println("no scenarios saved")
				return nil
			}
			for _, sc := range scenarios {
				fmt.Printf("%s\t(updated %s)\n", sc.Name, sc.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Print an archived scenario's result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			sc, err := st.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Println(sc.ResultData)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete an archived scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("scenario %q deleted\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(saveCmd, listCmd, showCmd, deleteCmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "lpgo %s (commit %s, built %s)\n", version, commit, date)
			if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
				fmt.Fprintln(os.Stdout, bi.Main.Version)
			}
		},
	}
}

func init() {
	calculateCmd.Flags().String("format", "console", "output format: console, json, csv")
	calculateCmd.Flags().Bool("debug", false, "enable per-year debug logging")
	calculateCmd.Flags().Bool("education", false, "append the education cost summary")
	calculateCmd.Flags().Bool("dividends", false, "append the dividend income summary")

	montecarloCmd.Flags().Int("trials", 300, "number of trials")
	montecarloCmd.Flags().Float64("return-std", 0.08, "annual return standard deviation")
	montecarloCmd.Flags().Int64("seed", 42, "random seed")
	montecarloCmd.Flags().String("mode", calculation.SamplePerTrial, "sampling mode: per-trial or per-year")
	montecarloCmd.Flags().Int("workers", 0, "worker goroutines (0 = NumCPU)")
	montecarloCmd.Flags().Float64("actual-offset", 0, "realized cash delta to fold into every trial")
	montecarloCmd.Flags().Int("actual-age", 0, "age from which the realized delta applies")

	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(montecarloCmd)
	rootCmd.AddCommand(scenarioCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
