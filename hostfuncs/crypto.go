package hostfuncs

import (
	"context"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/reglet-dev/cwvm/memory"
	"golang.org/x/crypto/ed25519"
)

// Verification result codes. 0 and 1 are verdicts; anything else tells the
// guest its input was malformed.
const (
	VerifySuccess             uint32 = 0
	VerifyFailure             uint32 = 1
	VerifyInvalidHashFormat   uint32 = 3
	VerifyInvalidSigFormat    uint32 = 4
	VerifyInvalidPubkeyFormat uint32 = 5
)

func readCryptoArgs(g Guest, params []uint64, limits [3]uint32) ([3][]byte, error) {
	var out [3][]byte
	for i := range out {
		data, err := memory.ReadRegionLimited(g.Memory(), ptrParam(params, i), limits[i])
		if err != nil {
			return out, err
		}
		out[i] = data
	}
	return out, nil
}

// Secp256k1Verify implements secp256k1_verify(hash, signature, pubkey).
// The signature is the 64 byte compact r||s form; the key may be compressed
// or uncompressed.
func Secp256k1Verify(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
	env, err := EnvironmentFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := env.Gas().Consume(env.Costs().Secp256k1Verify); err != nil {
		return nil, err
	}
	args, err := readCryptoArgs(g, params, [3]uint32{MaxCryptoLength, MaxCryptoLength, MaxCryptoLength})
	if err != nil {
		return nil, fmt.Errorf("secp256k1_verify: %w", err)
	}
	return []uint64{uint64(VerifySecp256k1(args[0], args[1], args[2]))}, nil
}

// VerifySecp256k1 checks a compact signature over a 32 byte digest.
func VerifySecp256k1(hash, sig, pubkey []byte) uint32 {
	if len(hash) != 32 {
		return VerifyInvalidHashFormat
	}
	if len(sig) != 64 {
		return VerifyInvalidSigFormat
	}
	pk, err := secp256k1.ParsePubKey(pubkey)
	if err != nil {
		return VerifyInvalidPubkeyFormat
	}
	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(sig[:32]) || s.SetByteSlice(sig[32:]) {
		return VerifyInvalidSigFormat
	}
	if r.IsZero() || s.IsZero() {
		return VerifyInvalidSigFormat
	}
	if ecdsa.NewSignature(&r, &s).Verify(hash, pk) {
		return VerifySuccess
	}
	return VerifyFailure
}

// Ed25519Verify implements ed25519_verify(message, signature, pubkey).
func Ed25519Verify(ctx context.Context, g Guest, params []uint64) ([]uint64, error) {
	env, err := EnvironmentFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := env.Gas().Consume(env.Costs().Ed25519Verify); err != nil {
		return nil, err
	}
	args, err := readCryptoArgs(g, params, [3]uint32{MaxMessageLength, MaxCryptoLength, MaxCryptoLength})
	if err != nil {
		return nil, fmt.Errorf("ed25519_verify: %w", err)
	}
	if err := chargeBytes(env, len(args[0])); err != nil {
		return nil, err
	}
	return []uint64{uint64(VerifyEd25519(args[0], args[1], args[2]))}, nil
}

// VerifyEd25519 checks an ed25519 signature.
func VerifyEd25519(msg, sig, pubkey []byte) uint32 {
	if len(sig) != ed25519.SignatureSize {
		return VerifyInvalidSigFormat
	}
	if len(pubkey) != ed25519.PublicKeySize {
		return VerifyInvalidPubkeyFormat
	}
	if ed25519.Verify(ed25519.PublicKey(pubkey), msg, sig) {
		return VerifySuccess
	}
	return VerifyFailure
}
