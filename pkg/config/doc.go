// Package config defines the sentinel configuration model and its
// loading pipeline.
//
// Configuration is loaded from a YAML file, defaults are applied,
// environment variables of the form SENTINEL_SECTION_FIELD override
// file values, and the result is validated as a whole. Validation
// collects every field error rather than stopping at the first, so a
// bad config file is fixed in one pass.
package config
