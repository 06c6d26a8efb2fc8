package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/app"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
	runOnce      = flag.Bool("once", false, "Run one scheduled-style pass now and exit")
	pdfOnly      = flag.Bool("pdf-only", false, "Run only the PDF workflow for -report-date and exit")
	reportDate   = flag.String("report-date", "", "Explicit report date (YYYY-MM-DD) for -pdf-only")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("DR Daily Report version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("drreport.toml"); err == nil {
			configFiles = append(configFiles, "drreport.toml")
		} else if _, err := os.Stat("deployments/local/drreport.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/drreport.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", []string(configFiles)).Err(err).Msg("Failed to load configuration")
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	if err := config.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Configuration validation failed")
	}

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	switch {
	case *pdfOnly:
		runPDFWorkflow(application, logger, *reportDate)
	case *runOnce:
		runSinglePass(application, logger)
	default:
		serve(application, logger)
	}
}

// runPDFWorkflow executes the PDF stage for an explicit date. The date flag
// is required; there is no implicit default to today.
func runPDFWorkflow(application *app.App, logger arbor.ILogger, date string) {
	summary, err := application.PDFWorkflow.Run(context.Background(), date)
	if err != nil {
		logger.Fatal().Err(err).Msg("PDF workflow failed")
	}
	logger.Info().Str("summary", summary.String()).Msg("PDF workflow finished")
}

func runSinglePass(application *app.App, logger arbor.ILogger) {
	summary, err := application.RunOnce(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Msg("Run failed")
	}
	logger.Info().Str("summary", summary.String()).Msg("Run finished")

	if summary.Failed > 0 {
		os.Exit(2)
	}
}

func serve(application *app.App, logger arbor.ILogger) {
	if err := application.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	logger.Info().Msg("Scheduler running - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received, shutting down")
}
