package log

import "io"

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Config struct {
	Level  Level  `yaml:"level" mapstructure:"level"`
	Format Format `yaml:"format" mapstructure:"format"`
	// Silent drops every record. It replaces the global quiet switch of older
	// installers and is passed in explicitly by the caller.
	Silent bool `yaml:"silent" mapstructure:"silent"`
	// Output defaults to os.Stderr.
	Output io.Writer `yaml:"-" mapstructure:"-"`
}

func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
	}
}
