// Package validation checks configuration structs and command arguments.
//
// Struct tags are checked with go-playground/validator and reported as an
// INVALID_CONFIG error:
//
//	type StreamConfig struct {
//	    Workers int `mapstructure:"workers" validate:"gte=0,lte=1024"`
//	}
//	err := validation.Validate(cfg)
//
// Arguments are checked programmatically and reported as INVALID_ARGUMENT:
//
//	err := validation.New().
//	    Min("count", n, 0).
//	    Regexp("pattern", pattern).
//	    Validate()
package validation
