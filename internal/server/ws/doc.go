// Package ws serves the live viewer channel. Each WebSocket connection is
// registered with the fan-out hub and receives every accepted document from
// that moment on, optionally narrowed by a ?filter= CEL expression. Inbound
// frames are ignored; the channel is push-only.
package ws
