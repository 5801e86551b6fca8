// Package hostfuncs implements the functions a contract imports from the
// "env" module: storage, address handling, signature verification, chain
// queries and diagnostics.
//
// Host functions are plain Go over the Guest and Environment interfaces and
// know nothing about the wasm runtime; infrastructure/wazero binds a Registry
// to a wazero host module. Every pointer a function receives is a Region
// pointer and every buffer it returns is copied into a fresh guest
// allocation.
package hostfuncs
