// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for file parsing, HCL-to-model translation,
// and converting CTY values into plain Go data for stage contexts.
package hcl
