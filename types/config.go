package types

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"reflect"

	errorsmod "cosmossdk.io/errors"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

const (
	// WasmPageSize is the size of one page of linear memory (64 KiB).
	WasmPageSize = 65536
	// MaxWasmPages is the number of pages addressable with 32-bit offsets.
	MaxWasmPages = 65536

	// Engine names accepted in VMConfig.Engine.
	EngineCompiler    = "compiler"
	EngineInterpreter = "interpreter"
)

// VMConfig defines the configuration for the VM.
type VMConfig struct {
	// Engine selects the wazero engine. The interpreter is slower but available on every platform.
	Engine string `json:"engine" validate:"oneof=compiler interpreter" jsonschema:"enum=compiler,enum=interpreter"`
	// InstanceMemoryLimit caps the linear memory of every instance.
	InstanceMemoryLimit Size `json:"instance_memory_limit" validate:"min=65536"`
	// DefaultGasLimit is used by callers that do not bring their own budget.
	DefaultGasLimit uint64     `json:"default_gas_limit" validate:"required"`
	HostLimits      HostLimits `json:"host_limits"`
}

// HostLimits bounds how much guest-controlled data a host function may read in one call.
type HostLimits struct {
	MaxLengthDbKey   int `json:"max_length_db_key" validate:"min=1"`
	MaxLengthDbValue int `json:"max_length_db_value" validate:"min=1"`
	MaxLengthDebug   int `json:"max_length_debug" validate:"min=1"`
	MaxLengthAbort   int `json:"max_length_abort" validate:"min=1"`
}

// DefaultVMConfig returns the configuration used when nothing else is specified.
func DefaultVMConfig() VMConfig {
	return VMConfig{
		Engine:              EngineCompiler,
		InstanceMemoryLimit: NewSizeMebi(32),
		DefaultGasLimit:     500_000_000_000,
		HostLimits: HostLimits{
			MaxLengthDbKey:   64 * 1024,
			MaxLengthDbValue: 128 * 1024,
			MaxLengthDebug:   2 * 1024 * 1024,
			MaxLengthAbort:   2 * 1024 * 1024,
		},
	}
}

// LoadVMConfig reads a JSON config file. Fields missing from the file keep their defaults.
func LoadVMConfig(path string) (VMConfig, error) {
	config := DefaultVMConfig()
	bz, err := os.ReadFile(path)
	if err != nil {
		return VMConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(bz, &config); err != nil {
		return VMConfig{}, errorsmod.Wrapf(ErrInvalidConfig, "parse %s: %v", path, err)
	}
	if err := config.Validate(); err != nil {
		return VMConfig{}, err
	}
	return config, nil
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if s, ok := field.Interface().(Size); ok {
			return uint64(s.uint32)
		}
		return nil
	}, Size{})
	return v
}

// Validate checks the config for values the VM cannot work with.
func (c VMConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return errorsmod.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

// Size is a number of bytes, serialized as a plain JSON number.
type Size struct{ uint32 }

// JSONSchema describes Size as the plain byte count it serializes to.
func (Size) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Minimum:     json.Number("0"),
		Maximum:     json.Number("4294967295"),
		Description: "size in bytes",
	}
}

// VMConfigSchema returns the JSON schema of the config file read by LoadVMConfig.
func VMConfigSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	bz, err := json.MarshalIndent(reflector.Reflect(&VMConfig{}), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return bz, nil
}

func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.uint32)
}

func (s *Size) UnmarshalJSON(bz []byte) error {
	return json.Unmarshal(bz, &s.uint32)
}

// Bytes returns the size in bytes.
func (s Size) Bytes() uint32 {
	return s.uint32
}

// Pages returns the number of whole wasm pages that fit in this size.
func (s Size) Pages() uint32 {
	return s.uint32 / WasmPageSize
}

func NewSize(v uint32) Size {
	return Size{v}
}

// NewSizeKibi returns v KiB. Sizes that do not fit in 32 bits saturate at math.MaxUint32.
func NewSizeKibi(v uint32) Size {
	return saturatingSize(uint64(v) * 1024)
}

// NewSizeMebi returns v MiB, saturating like NewSizeKibi.
func NewSizeMebi(v uint32) Size {
	return saturatingSize(uint64(v) * 1024 * 1024)
}

func saturatingSize(bytes uint64) Size {
	if bytes > math.MaxUint32 {
		return Size{math.MaxUint32}
	}
	return Size{uint32(bytes)}
}
