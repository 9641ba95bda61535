// Package stream serves a running experiment over HTTP. Every step is
// broadcast to websocket subscribers as a JSON [Frame], clients can pause or
// rescale time with a [Control] message, and step metrics are exposed for
// Prometheus scraping.
package stream
