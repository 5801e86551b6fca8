// Package ports defines the interfaces of the engine's external collaborators:
// the transactional store, the gas meter, the bank, the contract registry,
// the code store, the address codec, metrics and event publication.
// Domain logic depends on these abstractions and infrastructure adapters
// implement them.
package ports
