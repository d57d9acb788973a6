package hmmcopy

import "fmt"

// ConfigError reports a missing table column or an invalid option value.
type ConfigError struct {
	Column string
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Column != "":
		return fmt.Sprintf("config error: column %q %s", e.Column, e.Reason)
	case e.Option != "":
		return fmt.Sprintf("config error: option %q %s", e.Option, e.Reason)
	}
	return "config error: " + e.Reason
}

func missingColumn(name string) error {
	return &ConfigError{Column: name, Reason: "not found in table"}
}
