// Package executor marshals host-side entry point calls into the shape a
// contract expects and parses what comes back.
//
// Every entry point takes region pointers: env, then message info for
// instantiate and execute, then the message. The guest answers with a single
// region pointer holding a JSON ContractResult, which the host reads and
// hands back to the guest allocator. Return shapes are checked strictly:
// allocate yields one raw value, deallocate yields nothing, everything else
// yields exactly one pointer.
package executor
