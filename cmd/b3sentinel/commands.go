package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"B3Sentinel/internal/dashboard"
	"B3Sentinel/internal/report"
	"B3Sentinel/internal/scheduler"
	"B3Sentinel/internal/server"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		a          *app
	)

	rootCmd := &cobra.Command{
		Use:   "b3sentinel",
		Short: "B3Sentinel - Ibovespa and Brazilian rates dashboard",
		Long: `B3Sentinel serves a dashboard of Ibovespa constituent prices and of the
Selic, IPCA and CDI rates with their market expectations.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(configPath)
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path (default $CONFIG_PATH or configs/config.yaml)")

	getApp := func() *app { return a }
	rootCmd.AddCommand(newServeCmd(getApp))
	rootCmd.AddCommand(newCompositionCmd(getApp))
	rootCmd.AddCommand(newPricesCmd(getApp))
	rootCmd.AddCommand(newCardsCmd(getApp))
	rootCmd.AddCommand(newRatesCmd(getApp))
	return rootCmd
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newServeCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			ctx, stop := signalContext()
			defer stop()

			sched := scheduler.NewScheduler(a.clock, a.cfg.Location(), a.log)
			if err := sched.RegisterAll(a.cfg.Schedule.RollCron); err != nil {
				return err
			}
			sched.OnRoll(a.resetCache)
			sched.Start()
			defer sched.Stop()

			srv, err := server.New(server.Config{
				Port:    a.cfg.Server.Port,
				Log:     a.log,
				Pages:   a.service,
				DevMode: a.cfg.Server.DevMode,
			})
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				a.log.Info().Msg("shutdown signal received, stopping...")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newCompositionCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "composition",
		Short: "List the index constituents by weight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tickers, err := getApp().service.Composition()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderComposition(tickers))
			return nil
		},
	}
}

func newPricesCmd(getApp func() *app) *cobra.Command {
	var from, to string
	var last int
	cmd := &cobra.Command{
		Use:   "prices [TICKER...]",
		Short: "Print closing prices of the selected tickers",
		Long: `Print closing prices of the given exchange-qualified tickers (e.g. PETR4.SA).
Without tickers the heaviest constituents are shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			q, err := stockQuery(from, to, args)
			if err != nil {
				return err
			}
			page, err := getApp().service.Stocks(ctx, q)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderPrices(page.Chart, last))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First date, YYYY-MM-DD (default: first available)")
	cmd.Flags().StringVar(&to, "to", "", "Last date, YYYY-MM-DD (default: last available)")
	cmd.Flags().IntVar(&last, "last", 10, "Number of most recent rows to print (0 prints all)")
	return cmd
}

func newCardsCmd(getApp func() *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "cards [TICKER...]",
		Short: "Print the performance cards of the selected tickers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			q, err := stockQuery(from, to, args)
			if err != nil {
				return err
			}
			page, err := getApp().service.Stocks(ctx, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s to %s\n", page.From.Format(time.DateOnly), page.To.Format(time.DateOnly))
			fmt.Fprintln(out, report.RenderCards(report.Cards(page.Returns), report.CardsPerRow))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First date, YYYY-MM-DD (default: first available)")
	cmd.Flags().StringVar(&to, "to", "", "Last date, YYYY-MM-DD (default: last available)")
	return cmd
}

func newRatesCmd(getApp func() *app) *cobra.Command {
	q := dashboard.DefaultRateQuery()
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Print the latest Selic, IPCA and CDI values and expectations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			page, err := getApp().service.Rates(ctx, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.RenderRateCards(page.Cards))
			fmt.Fprintln(out, report.RenderAssumptions(page.Assumptions))
			return nil
		},
	}
	cmd.Flags().Float64Var(&q.LCI, "lci", q.LCI, "LCI / LCA rate in % of CDI")
	cmd.Flags().Float64Var(&q.Fund, "fund", q.Fund, "DI fund rate in % of CDI")
	cmd.Flags().Float64Var(&q.CDB, "cdb", q.CDB, "CDB rate in % of CDI")
	return cmd
}

func stockQuery(from, to string, tickers []string) (dashboard.StockQuery, error) {
	var q dashboard.StockQuery
	var err error
	if from != "" {
		if q.From, err = time.Parse(time.DateOnly, from); err != nil {
			return q, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		if q.To, err = time.Parse(time.DateOnly, to); err != nil {
			return q, fmt.Errorf("--to: %w", err)
		}
	}
	for _, t := range tickers {
		q.Tickers = append(q.Tickers, strings.ToUpper(t))
	}
	return q, nil
}
