package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	diag "github.com/dune-daq/sspdiag/pkg"
	"github.com/jmoiron/sqlx"
)

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	configuration, err := diag.LoadConfiguration(*configFilename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading configuration: %v\n", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if configuration.Verbosity > 0 {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(NewHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	diag.PrintConfiguration(configuration, logger)

	var dbConn *sqlx.DB
	if !configuration.NoDB {
		dbConn, err = diag.ConnectToDatabase(configuration.User, configuration.Passwd,
			configuration.Host, configuration.DBName)
		if err != nil {
			logger.Error(fmt.Sprint("Fail to connect to database: ", err), "module", "main")
			os.Exit(1)
		}
		defer dbConn.Close()
	}

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		logger.Error(fmt.Sprint("Error opening input file: ", err), "module", "main")
		os.Exit(1)
	}
	defer file.Close()

	reformatter := diag.NewReformatter(configuration.Reformatter, logger)
	store := diag.NewFileStore(configuration.OutDir, logger)
	finder := diag.NewSpectrumAnalyzer(100)
	analyzer := diag.NewAnalyzer(configuration, reformatter, store, finder, logger)

	var waveformWriter *diag.WaveformWriter
	if configuration.WriteWaveforms {
		waveformWriter, err = diag.NewWaveformWriter(configuration.FileOut,
			configuration.CompressionLevel, logger)
		if err != nil {
			logger.Error(fmt.Sprint("Error opening output file: ", err), "module", "main")
			os.Exit(1)
		}
		defer waveformWriter.Close()
	}

	reader := NewFileReader(file, configuration, logger)
	analyzer.BeginJob()

	currentRun := -1
	for {
		evt, err := reader.NextEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Error(fmt.Sprint("Error reading event: ", err), "module", "main")
			break
		}

		if evt.Run != currentRun {
			if currentRun >= 0 {
				analyzer.EndRun(currentRun)
			}
			if dbConn != nil {
				if err := reformatter.LoadChannelMap(dbConn, evt.Run); err != nil {
					logger.Error(fmt.Sprint("Error loading channel map: ", err), "module", "main")
					os.Exit(1)
				}
			}
			analyzer.BeginRun(evt.Run)
			currentRun = evt.Run
		}

		if err := analyzer.Analyze(evt); err != nil {
			logger.Error(fmt.Sprintf("Event %d aborted: %v", evt.EventNumber, err), "module", "main")
			continue
		}

		if waveformWriter != nil {
			waveforms, found := evt.WaveformsByLabel(configuration.InputModule, configuration.InputLabel)
			if found && len(waveforms) > 0 {
				if err := waveformWriter.WriteEvent(evt, waveforms); err != nil {
					logger.Error(fmt.Sprint("Error writing waveforms: ", err), "module", "main")
					os.Exit(1)
				}
			}
		}
	}

	if currentRun >= 0 {
		analyzer.EndRun(currentRun)
	}
	analyzer.EndJob()

	if err := store.Close(); err != nil {
		logger.Error(fmt.Sprint("Error writing histograms: ", err), "module", "main")
		os.Exit(1)
	}
}
