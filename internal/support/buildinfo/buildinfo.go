// Package buildinfo carries build-time version metadata.
package buildinfo

// Version is stamped at build time via
// -ldflags "-X cadbridge/internal/support/buildinfo.Version=v1.2.3".
var Version = "dev"
