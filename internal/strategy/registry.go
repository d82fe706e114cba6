package strategy

import (
	"context"
	"encoding/gob"
	"fmt"
	"sync"
)

// taskRunner handles exactly one unit on the worker side: decode the input,
// run the registered function, encode the result header and output.
type taskRunner func(ctx context.Context, dec *gob.Decoder, enc *gob.Encoder, index int) error

var (
	taskMu sync.RWMutex
	tasks  = make(map[string]taskRunner)
)

// RegisterTask registers a named worker function for the multiprocessing
// strategy. The worker process is a re-exec of the running binary and
// resolves the function by name, so registration must happen identically in
// parent and worker. Register from a package-level init.
func RegisterTask[I, O any](name string, fn WorkFunc[I, O]) {
	if name == "" {
		panic("strategy: task name must not be empty")
	}

	taskMu.Lock()
	defer taskMu.Unlock()
	if _, exists := tasks[name]; exists {
		panic(fmt.Sprintf("strategy: task %q registered twice", name))
	}

	tasks[name] = func(ctx context.Context, dec *gob.Decoder, enc *gob.Encoder, index int) error {
		var unit I
		if err := dec.Decode(&unit); err != nil {
			// The unit could not cross the boundary. Report it to the
			// parent as a serialization failure rather than dying, so the
			// batch error names the unit.
			return enc.Encode(resultHeader{
				Index:         index,
				Failed:        true,
				Serialization: true,
				Message:       err.Error(),
			})
		}

		out, err := fn(ctx, unit)
		if err != nil {
			return enc.Encode(resultHeader{
				Index:   index,
				Failed:  true,
				Message: err.Error(),
			})
		}

		if err := enc.Encode(resultHeader{Index: index}); err != nil {
			return err
		}
		return enc.Encode(out)
	}
}

// lookupTask resolves a registered task by name.
func lookupTask(name string) (taskRunner, error) {
	taskMu.RLock()
	defer taskMu.RUnlock()
	task, ok := tasks[name]
	if !ok {
		return nil, fmt.Errorf("task %q is not registered", name)
	}
	return task, nil
}
