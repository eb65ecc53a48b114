package config

import (
	"time"

	"intervention-stats/domain/report"
)

// Config represents the structure of config.yml used by the tool.
type Config struct {
	Dataset Dataset `yaml:"dataset"`
	Server  Server  `yaml:"server"`
	Export  Export  `yaml:"export"`
	Remote  Remote  `yaml:"remote"`
	Log     Log     `yaml:"log"`
}

// Dataset describes the column layout of the intervention workbooks.
// An empty operator_column turns on auto-detection.
type Dataset struct {
	Sheet              string   `yaml:"sheet"`
	DateColumn         string   `yaml:"date_column"`
	OperatorColumn     string   `yaml:"operator_column"`
	OperatorCandidates []string `yaml:"operator_candidates"`
	CategoryColumn     string   `yaml:"category_column"`
	PhotoColumns       []string `yaml:"photo_columns"`
	SampleSize         int      `yaml:"sample_size"`
}

type Server struct {
	Addr        string        `yaml:"addr"`
	UIDir       string        `yaml:"ui_dir"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	MaxUploadMB int           `yaml:"max_upload_mb"`
}

type Export struct {
	Basename string   `yaml:"basename"`
	Formats  []string `yaml:"formats"`
}

type Remote struct {
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Dataset: Dataset{SampleSize: report.DefaultSampleSize},
		Server: Server{
			Addr:        ":8080",
			UIDir:       "./ui/dist",
			SessionTTL:  2 * time.Hour,
			MaxUploadMB: 32,
		},
		Export: Export{
			Basename: "repetitions",
			Formats:  []string{"xlsx", "pdf"},
		},
		Remote: Remote{Timeout: 30 * time.Second},
		Log:    Log{Level: "info"},
	}
}

// Dialect maps the dataset section to the report column bindings.
func (d Dataset) Dialect() report.Dialect {
	return report.Dialect{
		OperatorColumn:     d.OperatorColumn,
		OperatorCandidates: d.OperatorCandidates,
		CategoryColumn:     d.CategoryColumn,
		PhotoColumns:       d.PhotoColumns,
	}
}
