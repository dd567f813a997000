// Package hcl provides the concrete HCL implementation of the catalog
// loading and compilation interfaces defined in the `config` package.
// It is responsible for file discovery and parsing, HCL-to-model
// translation, and compiling `derive` and `format` expressions into
// registry functions evaluated over cty.
package hcl
