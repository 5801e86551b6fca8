package hostfuncs

// Bundle is a pre-configured set of related host functions.
// Bundles allow registering multiple functions at once.
type Bundle interface {
	Funcs() []Func
}

// staticBundle implements Bundle with a fixed set of functions.
type staticBundle struct {
	funcs []Func
}

func (b *staticBundle) Funcs() []Func {
	return b.funcs
}

// StorageBundle returns db_read, db_write and db_remove.
func StorageBundle() Bundle {
	return &staticBundle{funcs: []Func{
		{Name: "db_read", Params: 1, Results: 1, Fn: DBRead},
		{Name: "db_write", Params: 2, Results: 0, Fn: DBWrite},
		{Name: "db_remove", Params: 1, Results: 0, Fn: DBRemove},
	}}
}

// AddressBundle returns addr_validate, addr_canonicalize and addr_humanize.
func AddressBundle() Bundle {
	return &staticBundle{funcs: []Func{
		{Name: "addr_validate", Params: 1, Results: 1, Fn: AddrValidate},
		{Name: "addr_canonicalize", Params: 2, Results: 1, Fn: AddrCanonicalize},
		{Name: "addr_humanize", Params: 2, Results: 1, Fn: AddrHumanize},
	}}
}

// CryptoBundle returns secp256k1_verify and ed25519_verify.
func CryptoBundle() Bundle {
	return &staticBundle{funcs: []Func{
		{Name: "secp256k1_verify", Params: 3, Results: 1, Fn: Secp256k1Verify},
		{Name: "ed25519_verify", Params: 3, Results: 1, Fn: Ed25519Verify},
	}}
}

// QueryBundle returns query_chain.
func QueryBundle() Bundle {
	return &staticBundle{funcs: []Func{
		{Name: "query_chain", Params: 1, Results: 1, Fn: QueryChain},
	}}
}

// DebugBundle returns debug and abort.
func DebugBundle() Bundle {
	return &staticBundle{funcs: []Func{
		{Name: "debug", Params: 1, Results: 0, Fn: Debug},
		{Name: "abort", Params: 1, Results: 0, Fn: Abort},
	}}
}

// compositeBundle combines multiple bundles into one.
type compositeBundle struct {
	bundles []Bundle
}

func (b *compositeBundle) Funcs() []Func {
	var result []Func
	for _, bundle := range b.bundles {
		result = append(result, bundle.Funcs()...)
	}
	return result
}

// AllBundles returns every standard contract import.
func AllBundles() Bundle {
	return &compositeBundle{
		bundles: []Bundle{
			StorageBundle(),
			AddressBundle(),
			CryptoBundle(),
			QueryBundle(),
			DebugBundle(),
		},
	}
}

// WithBundle registers all functions from a bundle.
func WithBundle(bundle Bundle) RegistryOption {
	return func(b *registryBuilder) {
		for _, f := range bundle.Funcs() {
			if err := b.addFunc(f); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}
