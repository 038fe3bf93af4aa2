package config

const (
	fmtErrEmptyConfig       = "config %s cannot be empty"
	fmtErrEmptyConfigOption = "config field '%s' cannot be empty"
	fmtErrInvalidDuration   = "config field '%s' is not a valid duration: %v"
	fmtErrNotPositive       = "config field '%s' must be greater than zero"
)

const (
	ConstSigningKeyName       = "api.key"
	ConstSigningPublicKeyName = "api.pub"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}
