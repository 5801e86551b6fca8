package host

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/klauspost/compress/gzip"
	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/executor"
	wazeroadapter "github.com/reglet-dev/cwvm/infrastructure/wazero"
	"github.com/reglet-dev/cwvm/system"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// MaxCodeSize bounds uploaded code after decompression.
const MaxCodeSize = 3 * units.MiB

// InterfaceVersionPrefix starts the export that marks a module as a
// contract.
const InterfaceVersionPrefix = "interface_version_"

var gzipMagic = []byte{0x1f, 0x8b}

// StoreCode uploads code on behalf of sender and assigns it a code id. Code
// may be gzip compressed. It is compiled and checked against the contract
// interface before anything is written.
func (e *Executor) StoreCode(ctx context.Context, sender entities.Addr, code []byte) (entities.CodeInfo, []entities.Event, error) {
	var info entities.CodeInfo

	code, err := decompress(code)
	if err != nil {
		return info, nil, err
	}
	compiled, err := e.runtime.CompileModule(ctx, code)
	if err != nil {
		return info, nil, &engerrors.CodeValidationError{Reason: "compile", Err: err}
	}
	if err := e.validate(compiled); err != nil {
		_ = compiled.Close(ctx)
		return info, nil, err
	}

	err = e.transact(func() error {
		checksum, err := e.chain.Codes.Put(code)
		if err != nil {
			return err
		}
		codeID, err := e.chain.Registry.NextCodeID()
		if err != nil {
			return err
		}
		info = entities.CodeInfo{Creator: sender, Checksum: checksum, CodeID: codeID}
		return e.chain.Registry.SetCodeInfo(info)
	})
	if err != nil {
		_ = compiled.Close(ctx)
		return entities.CodeInfo{}, nil, err
	}
	if _, ok := e.compiled.Get(info.Checksum); ok || e.isPinned(info.Checksum) {
		_ = compiled.Close(ctx)
	} else {
		e.compiled.Add(info.Checksum, compiled)
	}

	e.logger.Info("code stored",
		zap.Uint64("code_id", info.CodeID),
		zap.Stringer("checksum", info.Checksum),
		zap.Int("size", len(code)))
	events := []entities.Event{codeEvent(system.EventStoreCode, info)}
	if e.publisher != nil {
		e.publisher.Publish(sender, events)
	}
	return info, events, nil
}

func codeEvent(typ system.EventType, info entities.CodeInfo) entities.Event {
	return system.SystemEvent{Type: typ, Attributes: []system.SystemAttribute{
		{Key: system.AttributeCodeID, Value: strconv.FormatUint(info.CodeID, 10)},
		{Key: system.AttributeChecksum, Value: info.Checksum.String()},
	}}.Event()
}

func decompress(code []byte) ([]byte, error) {
	if !bytes.HasPrefix(code, gzipMagic) {
		if len(code) > MaxCodeSize {
			return nil, &engerrors.CodeValidationError{Reason: fmt.Sprintf("code exceeds %d bytes", MaxCodeSize)}
		}
		return code, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(code))
	if err != nil {
		return nil, &engerrors.CodeValidationError{Reason: "gzip", Err: err}
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, MaxCodeSize+1))
	if err != nil {
		return nil, &engerrors.CodeValidationError{Reason: "gzip", Err: err}
	}
	if len(out) > MaxCodeSize {
		return nil, &engerrors.CodeValidationError{Reason: fmt.Sprintf("code exceeds %d bytes", MaxCodeSize)}
	}
	return out, nil
}

// validate checks the exports every contract must have and that every
// import is a known host function with a matching signature.
func (e *Executor) validate(compiled wazero.CompiledModule) error {
	if _, ok := compiled.ExportedMemories()["memory"]; !ok {
		return &engerrors.CodeValidationError{Reason: `missing "memory" export`}
	}

	exports := compiled.ExportedFunctions()
	required := []struct {
		name            string
		params, results int
	}{
		{executor.AllocateExport, 1, 1},
		{executor.DeallocateExport, 1, 0},
	}
	for _, r := range required {
		def, ok := exports[r.name]
		if !ok {
			return &engerrors.CodeValidationError{Reason: fmt.Sprintf("missing %q export", r.name)}
		}
		if !allI32(def, r.params, r.results) {
			return &engerrors.CodeValidationError{Reason: fmt.Sprintf("%q has the wrong signature", r.name)}
		}
	}
	hasVersion := false
	for name := range exports {
		if strings.HasPrefix(name, InterfaceVersionPrefix) {
			hasVersion = true
			break
		}
	}
	if !hasVersion {
		return &engerrors.CodeValidationError{Reason: fmt.Sprintf("missing %s* export", InterfaceVersionPrefix)}
	}

	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		if module != wazeroadapter.DefaultModuleName {
			return &engerrors.CodeValidationError{Reason: fmt.Sprintf("import from unknown module %q", module)}
		}
		f, ok := e.registry.Lookup(name)
		if !ok {
			return &engerrors.CodeValidationError{Reason: fmt.Sprintf("unknown import %q", name)}
		}
		if !allI32(def, f.Params, f.Results) {
			return &engerrors.CodeValidationError{Reason: fmt.Sprintf("import %q has the wrong signature", name)}
		}
	}
	return nil
}

func allI32(def api.FunctionDefinition, params, results int) bool {
	if len(def.ParamTypes()) != params || len(def.ResultTypes()) != results {
		return false
	}
	for _, types := range [][]api.ValueType{def.ParamTypes(), def.ResultTypes()} {
		for _, t := range types {
			if t != api.ValueTypeI32 {
				return false
			}
		}
	}
	return true
}

// module returns the compiled form of the code with checksum, compiling it
// from the code store on a cache miss.
func (e *Executor) module(ctx context.Context, checksum entities.Checksum) (wazero.CompiledModule, error) {
	e.mu.Lock()
	mod, ok := e.pinned[checksum]
	e.mu.Unlock()
	if ok {
		return mod, nil
	}
	if mod, ok := e.compiled.Get(checksum); ok {
		return mod, nil
	}

	code, err := e.chain.Codes.Get(checksum)
	if err != nil {
		return nil, err
	}
	mod, err = e.runtime.CompileModule(ctx, code)
	if err != nil {
		return nil, &engerrors.CodeValidationError{Reason: "compile", Err: err}
	}
	e.logger.Debug("module compiled", zap.Stringer("checksum", checksum))
	if prev, ok, _ := e.compiled.PeekOrAdd(checksum, mod); ok {
		_ = mod.Close(ctx)
		return prev, nil
	}
	return mod, nil
}

// evict closes modules that leave the cache, unless they left it to be
// pinned.
func (e *Executor) evict(checksum entities.Checksum, mod wazero.CompiledModule) {
	if e.isPinned(checksum) {
		return
	}
	_ = mod.Close(context.Background())
}

func (e *Executor) isPinned(checksum entities.Checksum) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pinned[checksum]
	return ok
}

// PinCode keeps the compiled module of codeID in memory regardless of cache
// pressure and marks the code as pinned.
func (e *Executor) PinCode(ctx context.Context, codeID uint64) ([]entities.Event, error) {
	return e.setPinned(ctx, codeID, true)
}

// UnpinCode returns the module of codeID to the regular cache.
func (e *Executor) UnpinCode(ctx context.Context, codeID uint64) ([]entities.Event, error) {
	return e.setPinned(ctx, codeID, false)
}

func (e *Executor) setPinned(ctx context.Context, codeID uint64, pinned bool) ([]entities.Event, error) {
	info, err := e.chain.Registry.CodeInfo(codeID)
	if err != nil {
		return nil, err
	}
	if info.Pinned == pinned {
		return nil, nil
	}

	if pinned {
		mod, err := e.module(ctx, info.Checksum)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.pinned[info.Checksum] = mod
		e.mu.Unlock()
		e.compiled.Remove(info.Checksum)
	} else {
		e.mu.Lock()
		mod, ok := e.pinned[info.Checksum]
		delete(e.pinned, info.Checksum)
		e.mu.Unlock()
		if ok {
			e.compiled.Add(info.Checksum, mod)
		}
	}

	err = e.transact(func() error {
		info.Pinned = pinned
		return e.chain.Registry.SetCodeInfo(info)
	})
	if err != nil {
		return nil, err
	}

	typ := system.EventUnpinCode
	if pinned {
		typ = system.EventPinCode
	}
	events := []entities.Event{codeEvent(typ, info)}
	e.logger.Info("code pin changed", zap.Uint64("code_id", codeID), zap.Bool("pinned", pinned))
	return events, nil
}
