package annex

// ConfigError reports an invalid Engine configuration. Run fails with one
// before any input is read.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return "annex: " + e.msg }

var (
	// ErrTypedefModeUnset means neither a typedef recipe file nor typedef
	// stripping was configured. Exactly one mode is required.
	ErrTypedefModeUnset = &ConfigError{msg: "typedef mode not set: configure a recipe file or stripping"}

	// ErrNoDestinations means the run has nothing to produce: neither an
	// annotations archive nor a keep-rule file was configured.
	ErrNoDestinations = &ConfigError{msg: "no destinations: configure an output archive or a proguard file"}
)
