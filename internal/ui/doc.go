// Package ui is the terminal display for the chat client: a line-editing
// console that is both the lobby sink and the factory for per-peer direct
// message sinks, plus peer-list and QR helpers.
package ui
