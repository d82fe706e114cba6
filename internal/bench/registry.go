package bench

import (
	"fmt"
	"sync"
)

// Registry holds the benchmark tasks in registration order. Order matters:
// the Manager executes tasks in the order they were registered so report
// output is stable across runs.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task
	order []string
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]Task),
	}
}

// Register adds a task to the registry.
func (r *Registry) Register(task Task) error {
	if task == nil {
		return fmt.Errorf("cannot register nil task")
	}
	id := task.ID()
	if id == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[id]; exists {
		return fmt.Errorf("task %s already registered", id)
	}
	r.tasks[id] = task
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a task by ID.
func (r *Registry) Get(id string) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, exists := r.tasks[id]
	if !exists {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return task, nil
}

// List returns all tasks in registration order.
func (r *Registry) List() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]Task, 0, len(r.order))
	for _, id := range r.order {
		tasks = append(tasks, r.tasks[id])
	}
	return tasks
}

// Count returns the number of registered tasks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
