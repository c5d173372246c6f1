// Package config loads marquee's connection settings.
//
// Settings come from, lowest precedence first:
//
//  1. Built-in defaults (backend at http://127.0.0.1:8080, 2s polling)
//  2. ~/.config/marquee/config.toml, or the path passed with --config
//  3. MARQUEE_* variables, including those from a .env file in the
//     working directory
//  4. Command line flags, applied by the cli package
//
// Example config.toml:
//
//	api_url = "http://kometa.lan:8080"
//	password = "hunter2"
//	poll_seconds = 3
//	log_file = "~/.local/share/marquee/marquee.log"
//	drafts_db = "~/.local/share/marquee/drafts.db"
//
// A missing file is not an error. Invalid TOML and a malformed
// MARQUEE_POLL_SECONDS are. Path values accept a leading ~.
package config
