// Package config defines the format-agnostic field catalog model along with
// the interfaces (Loader, Converter) for loading a catalog from some source
// and compiling it into registry definitions.
//
// Concrete implementations, such as for HCL, are provided in separate
// packages.
package config
