// Package system is the dispatcher: it runs one contract entry point,
// turns the response into events, and executes the sub-messages the
// contract returned, each inside its own nested transaction and gas
// checkpoint.
//
// What happens after a sub-message is decided by Decide from the dispatch
// outcome and the sub-message's ReplyOn policy:
//
//	| result  | reply_on         | continuation                    |
//	|---------|------------------|---------------------------------|
//	| success | never, error     | commit, carry the data forward  |
//	| success | always, success  | commit, call reply with Ok      |
//	| failure | always, error    | roll back, call reply with Err  |
//	| failure | never, success   | roll back, abort the whole call |
//
// Events from a sub-message reach the caller only if its transaction
// commits. A reply that itself fails aborts the whole call.
//
// The dispatcher holds no state. Everything it touches comes through the VM
// it is given.
package system
