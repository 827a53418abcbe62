// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package config holds the command-line configuration of the signature
// cache tool. Every setting is a flag with an environment variable
// fallback.
package config

import (
	"flag"
	"os"
)

var (
	CacheFile string = "forms.db" // explicit default
	Verbose   bool
)

func init() {
	flag.StringVar(
		&CacheFile,
		"cache-file",
		getenv("UFL_CACHE_FILE", CacheFile),
		"Path to the signature cache file. Defaults to environment variable UFL_CACHE_FILE.",
	)
	flag.BoolVar(
		&Verbose,
		"verbose",
		os.Getenv("UFL_VERBOSE") != "",
		"Log every cache operation. Defaults to environment variable UFL_VERBOSE.",
	)
}

func getenv(key string, deflt string) string {
	v := os.Getenv(key)
	if v == "" {
		return deflt
	}
	return v
}
