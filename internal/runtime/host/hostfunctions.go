package host

import (
	"context"

	errorsmod "cosmossdk.io/errors"

	"github.com/CosmWasm/regionvm/internal/runtime/constants"
	"github.com/CosmWasm/regionvm/internal/runtime/gas"
	"github.com/CosmWasm/regionvm/types"
)

func charge(ctx context.Context, base uint64, bytes int, descriptor string) error {
	return gas.ConsumeFromContext(ctx, base+uint64(bytes)*constants.GasPerByte, descriptor)
}

// DbRead reads the value stored under the key in the Region at keyPtr. It returns 0 when
// the key does not exist and a pointer to a guest-owned Region holding the value otherwise.
func DbRead(ctx context.Context, keyPtr uint32) (uint32, error) {
	env, err := FromContext(ctx)
	if err != nil {
		return 0, err
	}
	mem, err := env.memory()
	if err != nil {
		return 0, err
	}
	key, err := mem.ReadRegion(keyPtr, env.Limits.MaxLengthDbKey)
	if err != nil {
		return 0, err
	}
	if err := charge(ctx, constants.GasCostRead, len(key), "db_read"); err != nil {
		return 0, err
	}

	value, err := env.Store.Get(key)
	if err != nil {
		return 0, errorsmod.Wrap(err, "db_read")
	}
	if value == nil {
		return 0, nil
	}
	if err := charge(ctx, 0, len(value), "db_read value"); err != nil {
		return 0, err
	}
	return env.writeToGuest(ctx, mem, value)
}

// DbWrite stores the value in the Region at valuePtr under the key in the Region at keyPtr.
func DbWrite(ctx context.Context, keyPtr, valuePtr uint32) error {
	env, err := FromContext(ctx)
	if err != nil {
		return err
	}
	mem, err := env.memory()
	if err != nil {
		return err
	}
	key, err := mem.ReadRegion(keyPtr, env.Limits.MaxLengthDbKey)
	if err != nil {
		return err
	}
	value, err := mem.ReadRegion(valuePtr, env.Limits.MaxLengthDbValue)
	if err != nil {
		return err
	}
	if err := charge(ctx, constants.GasCostWrite, len(key)+len(value), "db_write"); err != nil {
		return err
	}
	return errorsmod.Wrap(env.Store.Set(key, value), "db_write")
}

// DbRemove deletes the key in the Region at keyPtr. Removing a missing key is not an error.
func DbRemove(ctx context.Context, keyPtr uint32) error {
	env, err := FromContext(ctx)
	if err != nil {
		return err
	}
	mem, err := env.memory()
	if err != nil {
		return err
	}
	key, err := mem.ReadRegion(keyPtr, env.Limits.MaxLengthDbKey)
	if err != nil {
		return err
	}
	if err := charge(ctx, constants.GasCostRemove, len(key), "db_remove"); err != nil {
		return err
	}
	return errorsmod.Wrap(env.Store.Delete(key), "db_remove")
}

// DbScan opens an iteration over [start, end). Either bound may be omitted by passing a null
// pointer. The returned id is valid until the environment's EndCall. The store is not
// locked between db_next calls, so the guest may write while iterating.
func DbScan(ctx context.Context, startPtr, endPtr uint32, order int32) (uint32, error) {
	env, err := FromContext(ctx)
	if err != nil {
		return 0, err
	}
	start, err := readBound(env, startPtr)
	if err != nil {
		return 0, err
	}
	end, err := readBound(env, endPtr)
	if err != nil {
		return 0, err
	}
	if err := charge(ctx, constants.GasCostIteratorCreate, len(start)+len(end), "db_scan"); err != nil {
		return 0, err
	}

	if order != constants.OrderAscending && order != constants.OrderDescending {
		return 0, errorsmod.Wrapf(types.ErrCommunication, "invalid order value %d", order)
	}
	return env.OpenCursor(start, end, order), nil
}

// readBound reads an optional iterator bound. The store treats an empty bound as invalid,
// so an empty Region means unbounded, just like a null pointer.
func readBound(env *Environment, ptr uint32) ([]byte, error) {
	mem, err := env.memory()
	if err != nil {
		return nil, err
	}
	bound, ok, err := mem.MaybeReadRegion(ptr, env.Limits.MaxLengthDbKey)
	if err != nil || !ok || len(bound) == 0 {
		return nil, err
	}
	return bound, nil
}

// DbNext advances the iterator and returns a Region holding the key and value encoded with
// EncodeSections. Once the iterator is exhausted both sections are empty.
func DbNext(ctx context.Context, iteratorID uint32) (uint32, error) {
	env, err := FromContext(ctx)
	if err != nil {
		return 0, err
	}
	cursor := env.Cursor(iteratorID)
	if cursor == nil {
		return 0, errorsmod.Wrapf(types.ErrCommunication, "iterator %d does not exist", iteratorID)
	}
	mem, err := env.memory()
	if err != nil {
		return 0, err
	}
	if err := charge(ctx, constants.GasCostIteratorNext, 0, "db_next"); err != nil {
		return 0, err
	}
	key, value, err := cursor.Next(env.Store)
	if err != nil {
		return 0, errorsmod.Wrap(err, "db_next")
	}
	if err := charge(ctx, 0, len(key)+len(value), "db_next entry"); err != nil {
		return 0, err
	}
	return env.writeToGuest(ctx, mem, EncodeSections(key, value))
}

// Debug logs the message in the Region at msgPtr.
func Debug(ctx context.Context, msgPtr uint32) error {
	env, err := FromContext(ctx)
	if err != nil {
		return err
	}
	mem, err := env.memory()
	if err != nil {
		return err
	}
	msg, err := mem.ReadRegion(msgPtr, env.Limits.MaxLengthDebug)
	if err != nil {
		return err
	}
	if err := charge(ctx, constants.GasCostDebug, len(msg), "debug"); err != nil {
		return err
	}
	env.Logger.Debug().Str("source", "guest").Msg(string(msg))
	return nil
}

// Abort reads the message in the Region at msgPtr and always returns it as an AbortError,
// which traps the call.
func Abort(ctx context.Context, msgPtr uint32) error {
	env, err := FromContext(ctx)
	if err != nil {
		return err
	}
	mem, err := env.memory()
	if err != nil {
		return err
	}
	msg, err := mem.ReadRegion(msgPtr, env.Limits.MaxLengthAbort)
	if err != nil {
		return err
	}
	return types.AbortError{Msg: string(msg)}
}

// Gas charges points for guest instructions. Instrumented guests call it at the start of
// every metered block.
func Gas(ctx context.Context, points uint64) error {
	return gas.ConsumeFromContext(ctx, points, "wasm instructions")
}
