// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for deskshell.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DESKSHELL_*)
//   - ~/.deskshell/config.toml, or the path given on the command line
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Reload permission grants when the file changes:
//
//	go config.Watch(ctx, path, func(c *config.Config) {
//	    grants.Replace(c.Permissions.Granted)
//	})
package config
