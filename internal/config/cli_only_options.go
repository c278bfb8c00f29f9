package config

// CliOnlyOptions are options that can only be provided on the command line (never from a config file or env var).
type CliOnlyOptions struct {
	ConfigPath string
	Verbosity  int
}
