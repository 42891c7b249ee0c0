package geometry

import (
	"errors"
	"fmt"
)

var ErrInvalidGrid = errors.New("invalid grid configuration")

// ConfigError is returned for grid settings that cannot produce cards. It is
// raised before any page is rasterized.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidGrid, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidGrid, e.Field, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidGrid }

func invalidf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
