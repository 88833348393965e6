// Package config loads typed configuration structs from environment
// variables, with optional .env support for local development.
//
// Components declare their own Config struct with `env` tags and load it
// through the generic Load/MustLoad helpers. Each type is parsed once per
// process and cached, so the same config can be loaded from several places
// without re-reading the environment.
package config
