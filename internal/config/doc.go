// Package config defines the format-agnostic bundle descriptor model and
// the Loader contract that format-specific packages (currently HCL)
// implement. Nothing in here knows how descriptors are written on disk.
package config
