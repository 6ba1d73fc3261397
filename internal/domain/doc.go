// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (keys, profiles, wire shapes) and contracts
// (interfaces) only.
package domain
