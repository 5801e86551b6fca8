// Package errors provides the engine's error taxonomy.
// All error types support error unwrapping via errors.As() and errors.Is().
// Kind-carrying types also match their package-level sentinels, so callers
// can write errors.Is(err, errors.ErrZeroOffset) without caring about the
// pointer or message attached to a particular failure.
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/cwvm/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
// This function recognizes custom error types and categorizes them appropriately.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		d := de.ToErrorDetail()
		// a typed error wrapping another, like a trap caused by running out
		// of gas, keeps the inner one as its cause
		var inner DetailedError
		if next := stdErrors.Unwrap(de); next != nil && stdErrors.As(next, &inner) {
			d.Cause = ToErrorDetail(next)
		}
		return d
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// MemoryErrorKind enumerates guest memory failures.
type MemoryErrorKind int

const (
	MemoryInvalidTypeSize MemoryErrorKind = iota + 1
	MemoryOverflowLimit
	MemoryInvalidPointer
	MemoryOutOfRange
	MemoryLengthExceedsCapacity
	MemoryZeroOffset
	MemoryRegionTooSmall
	MemoryBufferSizeOverflowPointer
	MemoryTypeSizeOverflow
	MemoryRead
	MemoryWrite
)

var memoryKindNames = map[MemoryErrorKind]string{
	MemoryInvalidTypeSize:           "invalid type size",
	MemoryOverflowLimit:             "length overflows limit",
	MemoryInvalidPointer:            "invalid pointer",
	MemoryOutOfRange:                "out of range",
	MemoryLengthExceedsCapacity:     "length exceeds capacity",
	MemoryZeroOffset:                "region is uninitialized (zero offset)",
	MemoryRegionTooSmall:            "region too small",
	MemoryBufferSizeOverflowPointer: "buffer size overflows pointer",
	MemoryTypeSizeOverflow:          "type size overflow",
	MemoryRead:                      "read out of bounds",
	MemoryWrite:                     "write out of bounds",
}

func (k MemoryErrorKind) String() string {
	if s, ok := memoryKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("memory error %d", int(k))
}

// MemoryError is a failed guest memory access.
type MemoryError struct {
	Detail  string
	Kind    MemoryErrorKind
	Pointer uint32
}

func (e *MemoryError) Error() string {
	msg := fmt.Sprintf("memory: %s at 0x%x", e.Kind, e.Pointer)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches any MemoryError of the same kind.
func (e *MemoryError) Is(target error) bool {
	t, ok := target.(*MemoryError)
	return ok && t.Kind == e.Kind
}

// ToErrorDetail implements DetailedError.
func (e *MemoryError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "memory", Code: e.Kind.String()}
}

var (
	ErrInvalidTypeSize           = &MemoryError{Kind: MemoryInvalidTypeSize}
	ErrOverflowLimit             = &MemoryError{Kind: MemoryOverflowLimit}
	ErrInvalidPointer            = &MemoryError{Kind: MemoryInvalidPointer}
	ErrOutOfRange                = &MemoryError{Kind: MemoryOutOfRange}
	ErrLengthExceedsCapacity     = &MemoryError{Kind: MemoryLengthExceedsCapacity}
	ErrZeroOffset                = &MemoryError{Kind: MemoryZeroOffset}
	ErrRegionTooSmall            = &MemoryError{Kind: MemoryRegionTooSmall}
	ErrBufferSizeOverflowPointer = &MemoryError{Kind: MemoryBufferSizeOverflowPointer}
	ErrTypeSizeOverflow          = &MemoryError{Kind: MemoryTypeSizeOverflow}
	ErrMemoryRead                = &MemoryError{Kind: MemoryRead}
	ErrMemoryWrite               = &MemoryError{Kind: MemoryWrite}
)

// MarshalErrorKind enumerates entry point return shape violations.
type MarshalErrorKind int

const (
	MarshalUnexpectedReturnType MarshalErrorKind = iota + 1
	MarshalExpectedUnit
	MarshalExpectedPointer
)

func (k MarshalErrorKind) String() string {
	switch k {
	case MarshalUnexpectedReturnType:
		return "unexpected return shape"
	case MarshalExpectedUnit:
		return "expected no return value"
	case MarshalExpectedPointer:
		return "expected a single pointer"
	}
	return fmt.Sprintf("marshal error %d", int(k))
}

// MarshalError means a guest function returned values that do not match its
// declared signature. It is always fatal to the call.
type MarshalError struct {
	Function string
	Kind     MarshalErrorKind
	Got      int
}

func (e *MarshalError) Error() string {
	if e.Function == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s, got %d values", e.Function, e.Kind, e.Got)
}

// Is matches any MarshalError of the same kind.
func (e *MarshalError) Is(target error) bool {
	t, ok := target.(*MarshalError)
	return ok && t.Kind == e.Kind
}

// ToErrorDetail implements DetailedError.
func (e *MarshalError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "marshal", Code: e.Function}
}

var (
	ErrUnexpectedReturnType = &MarshalError{Kind: MarshalUnexpectedReturnType}
	ErrExpectedUnit         = &MarshalError{Kind: MarshalExpectedUnit}
	ErrExpectedPointer      = &MarshalError{Kind: MarshalExpectedPointer}
)

// SystemErrorKind enumerates dispatcher failures.
type SystemErrorKind int

const (
	SystemUnsupportedMessage SystemErrorKind = iota + 1
	SystemFailedToSerialize
	SystemContractExecutionFailure
	SystemImmutableCantMigrate
	SystemMustBeAdmin
	SystemReservedEventPrefixIsUsed
	SystemEmptyEventKey
	SystemEmptyEventValue
	SystemEventTypeIsTooShort
)

var systemKindNames = map[SystemErrorKind]string{
	SystemUnsupportedMessage:        "unsupported message",
	SystemFailedToSerialize:         "failed to serialize",
	SystemContractExecutionFailure:  "contract execution failure",
	SystemImmutableCantMigrate:      "contract is immutable",
	SystemMustBeAdmin:               "caller must be admin",
	SystemReservedEventPrefixIsUsed: "reserved event prefix is used",
	SystemEmptyEventKey:             "empty event key",
	SystemEmptyEventValue:           "empty event value",
	SystemEventTypeIsTooShort:       "event type is too short",
}

func (k SystemErrorKind) String() string {
	if s, ok := systemKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("system error %d", int(k))
}

// SystemError is raised by the dispatcher itself rather than by a collaborator.
type SystemError struct {
	Message string
	Kind    SystemErrorKind
}

func (e *SystemError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

// Is matches any SystemError of the same kind.
func (e *SystemError) Is(target error) bool {
	t, ok := target.(*SystemError)
	return ok && t.Kind == e.Kind
}

// ToErrorDetail implements DetailedError.
func (e *SystemError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "system", Code: e.Kind.String()}
}

// NewSystemError builds a SystemError of the given kind.
func NewSystemError(kind SystemErrorKind, format string, args ...any) *SystemError {
	return &SystemError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrUnsupportedMessage        = &SystemError{Kind: SystemUnsupportedMessage}
	ErrFailedToSerialize         = &SystemError{Kind: SystemFailedToSerialize}
	ErrContractExecutionFailure  = &SystemError{Kind: SystemContractExecutionFailure}
	ErrImmutableCantMigrate      = &SystemError{Kind: SystemImmutableCantMigrate}
	ErrMustBeAdmin               = &SystemError{Kind: SystemMustBeAdmin}
	ErrReservedEventPrefixIsUsed = &SystemError{Kind: SystemReservedEventPrefixIsUsed}
	ErrEmptyEventKey             = &SystemError{Kind: SystemEmptyEventKey}
	ErrEmptyEventValue           = &SystemError{Kind: SystemEmptyEventValue}
	ErrEventTypeIsTooShort       = &SystemError{Kind: SystemEventTypeIsTooShort}
)

// CallDepthError is returned when re-entry into guest code, or nesting of
// sub-message dispatch, passes its configured bound.
type CallDepthError struct {
	Scope string
	Depth uint32
	Limit uint32
}

func (e *CallDepthError) Error() string {
	return fmt.Sprintf("%s call depth %d exceeds limit %d", e.Scope, e.Depth, e.Limit)
}

// Is matches any CallDepthError.
func (e *CallDepthError) Is(target error) bool {
	_, ok := target.(*CallDepthError)
	return ok
}

// ToErrorDetail implements DetailedError.
func (e *CallDepthError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "call_depth", Code: e.Scope}
}

// ErrCallDepthExceeded matches every CallDepthError.
var ErrCallDepthExceeded = &CallDepthError{}

// OutOfGasError is returned by the gas meter once a scope's budget is spent.
type OutOfGasError struct {
	Requested uint64
	Remaining uint64
}

func (e *OutOfGasError) Error() string {
	return fmt.Sprintf("out of gas: requested %d, remaining %d", e.Requested, e.Remaining)
}

// Is matches any OutOfGasError.
func (e *OutOfGasError) Is(target error) bool {
	_, ok := target.(*OutOfGasError)
	return ok
}

// ToErrorDetail implements DetailedError.
func (e *OutOfGasError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "gas", Code: "out_of_gas"}
}

// ErrOutOfGas matches every OutOfGasError.
var ErrOutOfGas = &OutOfGasError{}

// ContractNotFoundError is returned when an address has no contract metadata.
type ContractNotFoundError struct {
	Address string
}

func (e *ContractNotFoundError) Error() string {
	return fmt.Sprintf("contract %s not found", e.Address)
}

// ToErrorDetail implements DetailedError.
func (e *ContractNotFoundError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "not_found", Code: "contract", NotFound: true}
}

// CodeNotFoundError is returned for an unknown code id or checksum.
type CodeNotFoundError struct {
	Checksum string
	CodeID   uint64
}

func (e *CodeNotFoundError) Error() string {
	if e.Checksum != "" {
		return fmt.Sprintf("code with checksum %s not found", e.Checksum)
	}
	return fmt.Sprintf("code %d not found", e.CodeID)
}

// ToErrorDetail implements DetailedError.
func (e *CodeNotFoundError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "not_found", Code: "code", NotFound: true}
}

// InsufficientFundsError is returned by the bank when a debit exceeds a balance.
type InsufficientFundsError struct {
	Address string
	Denom   string
	Balance string
	Needed  string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for %s: have %s%s, need %s%s",
		e.Address, e.Balance, e.Denom, e.Needed, e.Denom)
}

// ToErrorDetail implements DetailedError.
func (e *InsufficientFundsError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "bank", Code: "insufficient_funds"}
}

// CodeValidationError is returned when uploaded code does not satisfy the
// contract interface.
type CodeValidationError struct {
	Err    error
	Reason string
}

func (e *CodeValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid contract code: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid contract code: %s", e.Reason)
}

func (e *CodeValidationError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *CodeValidationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: "code"}
}

// GuestTrapError wraps a failure raised while guest code was running: a wasm
// trap, an abort call, or a host function error that unwound the guest.
type GuestTrapError struct {
	Err      error
	Function string
	Message  string
}

func (e *GuestTrapError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("guest %s aborted: %s", e.Function, e.Message)
	}
	return fmt.Sprintf("guest %s trapped: %v", e.Function, e.Err)
}

func (e *GuestTrapError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *GuestTrapError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "guest", Code: e.Function}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}
