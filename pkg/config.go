package diag

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

type Configuration struct {
	FragType         string            `json:"frag_type"`
	RawDataLabel     string            `json:"raw_data_label"`
	InputModule      string            `json:"input_module"`
	InputLabel       string            `json:"input_label"`
	FileIn           string            `json:"file_in"`
	OutDir           string            `json:"out_dir"`
	MaxEvents        int               `json:"max_events"`
	Skip             int               `json:"skip"`
	Verbosity        int               `json:"verbosity"`
	WriteWaveforms   bool              `json:"write_waveforms"`
	FileOut          string            `json:"file_out"`
	CompressionLevel int               `json:"compression_level"`
	NoDB             bool              `json:"no_db"`
	Host             string            `json:"host"`
	User             string            `json:"user"`
	Passwd           string            `json:"pass"`
	DBName           string            `json:"dbname"`
	Reformatter      ReformatterConfig `json:"reformatter"`
}

func LoadConfiguration(filename string) (Configuration, error) {
	var config Configuration

	// Set default values
	config.FragType = "PHOTON"
	config.RawDataLabel = "daq"
	config.InputModule = "ssptooffline"
	config.InputLabel = "offlinePhoton"
	config.OutDir = "diagnostics"
	config.MaxEvents = 1000000000
	config.Skip = 0
	config.Verbosity = 0
	config.WriteWaveforms = false
	config.FileOut = "waveforms.h5"
	config.CompressionLevel = 4
	config.NoDB = true
	config.Host = "localhost"
	config.User = "dunereader"
	config.Passwd = "readonly"
	config.DBName = "dune35t"
	config.Reformatter.ClockFrequency = 150.0
	config.Reformatter.NOvAClockFrequency = 64.0
	config.Reformatter.ChannelsPerModule = 12

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func PrintConfiguration(config Configuration, logger *slog.Logger) {
	logger.Info("====================================", "module", "config")
	logger.Info(fmt.Sprintf("FragType:        %s", config.FragType), "module", "config")
	logger.Info(fmt.Sprintf("RawDataLabel:    %s", config.RawDataLabel), "module", "config")
	logger.Info(fmt.Sprintf("InputModule:     %s", config.InputModule), "module", "config")
	logger.Info(fmt.Sprintf("InputLabel:      %s", config.InputLabel), "module", "config")
	logger.Info(fmt.Sprintf("File in:         %s", config.FileIn), "module", "config")
	logger.Info(fmt.Sprintf("Output dir:      %s", config.OutDir), "module", "config")
	logger.Info(fmt.Sprintf("Max events:      %d", config.MaxEvents), "module", "config")
	logger.Info(fmt.Sprintf("Skip:            %d", config.Skip), "module", "config")
	logger.Info(fmt.Sprintf("Verbosity:       %d", config.Verbosity), "module", "config")
	logger.Info(fmt.Sprintf("Write waveforms: %t", config.WriteWaveforms), "module", "config")
	logger.Info(fmt.Sprintf("File out:        %s", config.FileOut), "module", "config")
	logger.Info(fmt.Sprintf("No DB:           %t", config.NoDB), "module", "config")
	logger.Info(fmt.Sprintf("Host:            %s", config.Host), "module", "config")
	logger.Info(fmt.Sprintf("DB name:         %s", config.DBName), "module", "config")
	logger.Info(fmt.Sprintf("Clock frequency: %.1f MHz", config.Reformatter.ClockFrequency), "module", "config")
	logger.Info("====================================", "module", "config")
}
