// Package app wires application dependencies for the CLI and runs the chat
// loop.
//
// Config is read from an optional TOML file and overridden by flags. Wire
// builds the concrete stores, transport and services from it; Chat owns the
// single goroutine that routes inbound messages and executes lobby
// commands.
package app
