// Package config loads the TOML configuration of the adae command.
//
// A file is resolved from the --config flag, then ADAE_CONFIG, then
// ~/.config/adae/config.toml and ./adae.toml. A missing file is not an
// error: defaults apply. Loaded values are normalized (trimmed, paths
// expanded) and validated before use.
package config
