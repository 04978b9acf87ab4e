// Package gamedata provides embedded game content and utilities for loading it.
package gamedata

import "embed"

// dataFS embeds the symbol set, theme and bundled songs at build time.
//
//go:embed *.json songs/*.json
var dataFS embed.FS
