package websocket

import (
	"rollbench/pkg/contracts/domain"
)

// RunObserver adapts run lifecycle notifications into hub broadcasts. It
// implements the manager's Observer contract.
type RunObserver struct {
	hub *Hub
}

// NewRunObserver creates an observer pushing into the hub.
func NewRunObserver(hub *Hub) *RunObserver {
	return &RunObserver{hub: hub}
}

// RunStarted implements the observer contract.
func (o *RunObserver) RunStarted(task, strategy string) {
	o.hub.Broadcast(TypeRunStarted, map[string]string{
		"task":     task,
		"strategy": strategy,
	})
}

// RunCompleted pushes the run metadata. Result payloads stay on the REST
// API; the push only carries what a dashboard needs to update.
func (o *RunObserver) RunCompleted(run domain.StrategyRun) {
	o.hub.Broadcast(TypeRunCompleted, map[string]interface{}{
		"run_id":          run.ID,
		"task":            run.Task,
		"strategy":        run.Strategy,
		"workers":         run.Workers,
		"elapsed_seconds": run.ElapsedSeconds,
		"peak_memory_mib": run.PeakMemoryMiB,
	})
}

// RunFailed pushes the failure.
func (o *RunObserver) RunFailed(task, strategy string, err error) {
	data := map[string]string{
		"task":     task,
		"strategy": strategy,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	o.hub.Broadcast(TypeRunFailed, data)
}
