// Package static provides the embedded assets the host shell serves.
package static

import "embed"

// Frontend contains the embedded asset files.
//
//go:embed frontend/*
var Frontend embed.FS
