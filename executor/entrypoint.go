package executor

// EntryPoint is a contract export the host may call with environment,
// optional message info and a message.
type EntryPoint struct {
	name    string
	hasInfo bool
	ibc     bool
}

// Name is the exported function name.
func (e EntryPoint) Name() string { return e.name }

// HasInfo reports whether the call takes a MessageInfo argument.
func (e EntryPoint) HasInfo() bool { return e.hasInfo }

// IBC reports whether the entry point belongs to the inter-chain set.
func (e EntryPoint) IBC() bool { return e.ibc }

func (e EntryPoint) String() string { return e.name }

var (
	Instantiate = EntryPoint{name: "instantiate", hasInfo: true}
	Execute     = EntryPoint{name: "execute", hasInfo: true}
	Migrate     = EntryPoint{name: "migrate"}
	Reply       = EntryPoint{name: "reply"}
	Query       = EntryPoint{name: "query"}
	Sudo        = EntryPoint{name: "sudo"}

	IBCChannelOpen    = EntryPoint{name: "ibc_channel_open", ibc: true}
	IBCChannelConnect = EntryPoint{name: "ibc_channel_connect", ibc: true}
	IBCChannelClose   = EntryPoint{name: "ibc_channel_close", ibc: true}
	IBCPacketReceive  = EntryPoint{name: "ibc_packet_receive", ibc: true}
	IBCPacketAck      = EntryPoint{name: "ibc_packet_ack", ibc: true}
	IBCPacketTimeout  = EntryPoint{name: "ibc_packet_timeout", ibc: true}
)

var entryPoints = []EntryPoint{
	Instantiate, Execute, Migrate, Reply, Query, Sudo,
	IBCChannelOpen, IBCChannelConnect, IBCChannelClose,
	IBCPacketReceive, IBCPacketAck, IBCPacketTimeout,
}

// EntryPoints lists the callable entry points, leaving out the inter-chain
// ones unless ibc is set.
func EntryPoints(ibc bool) []EntryPoint {
	out := make([]EntryPoint, 0, len(entryPoints))
	for _, ep := range entryPoints {
		if ep.ibc && !ibc {
			continue
		}
		out = append(out, ep)
	}
	return out
}

// Lookup finds an entry point by export name.
func Lookup(name string) (EntryPoint, bool) {
	for _, ep := range entryPoints {
		if ep.name == name {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

const (
	// AllocateExport and DeallocateExport are the guest's memory management
	// exports.
	AllocateExport   = "allocate"
	DeallocateExport = "deallocate"
)
