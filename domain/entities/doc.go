// Package entities provides the core domain types shared by the engine.
// They mirror the JSON shapes the CosmWasm standard library exchanges with
// the host: environment, message info, responses, sub-messages, replies and
// queries. Addresses are human-readable strings; byte payloads are base64.
package entities
