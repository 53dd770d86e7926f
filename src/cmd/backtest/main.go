package main

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/spread-trading/src/backtest"
	"github.com/jiaming2012/spread-trading/src/utils"
)

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run an options strategy backtest over a date range",
	Long:  `This program backtests an options strategy (iron condor or bull call spread) against historical option chains, day by day.`,
	Run: func(cmd *cobra.Command, args []string) {
		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		startStr, err := cmd.Flags().GetString("start")
		if err != nil {
			log.Fatalf("error getting start: %v", err)
		}

		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			log.Fatalf("error parsing start date: %v", err)
		}

		endStr, err := cmd.Flags().GetString("end")
		if err != nil {
			log.Fatalf("error getting end: %v", err)
		}

		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			log.Fatalf("error parsing end date: %v", err)
		}

		strategyName, err := cmd.Flags().GetString("strategy")
		if err != nil {
			log.Fatalf("error getting strategy: %v", err)
		}

		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config: %v", err)
		}

		cacheDir, err := cmd.Flags().GetString("cache-dir")
		if err != nil {
			log.Fatalf("error getting cache-dir: %v", err)
		}

		projectDir, err := cmd.Flags().GetString("project-dir")
		if err != nil {
			log.Fatalf("error getting project-dir: %v", err)
		}

		if err := utils.InitEnvironmentVariables(projectDir); err != nil {
			log.Warnf("continuing without env file: %v", err)
		}

		runArgs := backtest.RunArgs{
			Symbol:     symbol,
			Start:      start,
			End:        end,
			Strategy:   strategyName,
			ConfigPath: configPath,
			CacheDir:   cacheDir,
		}

		if err := backtest.Run(context.Background(), runArgs, os.Stdout); err != nil {
			log.Fatalf("error running backtest: %v", err)
		}
	},
}

func main() {
	rootCmd.Flags().String("symbol", "SPY", "underlying symbol")
	rootCmd.Flags().String("start", "", "backtest start date (2006-01-02)")
	rootCmd.Flags().String("end", "", "backtest end date (2006-01-02)")
	rootCmd.Flags().String("strategy", "iron_condor", "strategy to run: iron_condor or bull_call_spread")
	rootCmd.Flags().String("config", "", "optional yaml strategy config path")
	rootCmd.Flags().String("cache-dir", ".chain-cache", "chain cache directory")
	rootCmd.Flags().String("project-dir", ".", "directory holding the env files")

	if err := rootCmd.MarkFlagRequired("start"); err != nil {
		log.Fatalf("error marking start flag required: %v", err)
	}

	if err := rootCmd.MarkFlagRequired("end"); err != nil {
		log.Fatalf("error marking end flag required: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
