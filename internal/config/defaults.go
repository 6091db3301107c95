package config

const (
	defaultDestinationDir = "~/ingest"
	defaultLogDir         = "~/.local/share/ingot/logs"
	defaultJournalPath    = "~/.local/share/ingot/journal.db"
	defaultWorkers        = 4
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DestinationDir: defaultDestinationDir,
			LogDir:         defaultLogDir,
			JournalPath:    defaultJournalPath,
		},
		Ingest: Ingest{
			Workers:       defaultWorkers,
			ReceiptDigest: true,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
