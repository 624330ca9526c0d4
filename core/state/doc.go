// Package state provides a lightweight in-memory conversation state manager.
// It knows nothing about the transport; callers key sessions by user id.
package state
