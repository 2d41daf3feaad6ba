// kstock 한국 주식 리서치 리포트 생성기
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kstock/internal/config"
	"kstock/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "kstock",
	Short: "Korean stock research report generator",
	Long: `kstock collects market data from Naver Finance and Yahoo Finance,
scores candidates and publishes morning/afternoon research reports
as Markdown, JSON and XLSX.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate one report now",
	RunE:  runOnce,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run morning/afternoon reports on the configured cron schedule",
	RunE:  runSchedule,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report archive over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	runCmd.Flags().StringP("mode", "m", "afternoon", "report mode: morning or afternoon")

	rootCmd.AddCommand(runCmd, scheduleCmd, serveCmd)
}

// loadConfig 설정 로드 후 전역 로거 적용
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Log.Level, err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
