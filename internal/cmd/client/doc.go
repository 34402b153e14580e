// Package client provides the `phollow` command-line client.
//
// The CLI talks to the phollow HTTP and WebSocket endpoints to inspect
// recorded documents and follow the live feed from a terminal. It is
// primarily intended for developers and operators.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it defaults
// to http://127.0.0.1:8080. The viewer WebSocket address is read from the
// PHOLLOW_WS environment variable (default ws://127.0.0.1:8081).
//
// Usage
//
//	phollow docs list --limit 20
//	phollow docs list --filter 'class == "fatal"'
//	phollow docs get --id 42
//	phollow docs meta
//	phollow docs forget --session 3
//
//	# Follow the live feed; --filter narrows it server-side
//	phollow tail
//	phollow tail --filter 'type == "error" && severity == "WARNING"'
package client
