// Package config defines the format-agnostic pipeline model, along with the
// Loader interface for reading it from configuration sources.
//
// The `config.Pipeline` is the single source of truth for the `builder`
// package. Concrete loaders, such as for HCL, are provided in separate
// packages.
package config
