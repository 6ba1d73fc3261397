// Package commands defines the wut CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init     Create the local identity (never replaces an existing one)
//   - whoami   Print the public key, its fingerprint and a QR code
//   - chat     Join a topic on a relay and start chatting
//
// # Implementation
//
// The root command resolves the application home, reads the optional TOML
// config, applies flag overrides, opens the log file and builds the
// dependency graph before any subcommand runs.
package commands
