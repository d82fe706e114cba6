package profile

import (
	"os"
	"runtime"

	"github.com/prometheus/procfs"
)

const bytesPerMiB = 1024 * 1024

// memoryReader returns the current resident footprint in MiB for this
// process plus its direct children (pool workers).
type memoryReader interface {
	ResidentMiB() float64
}

// newMemoryReader picks procfs when /proc is available, otherwise the Go
// runtime's own accounting. The runtime fallback cannot see child processes,
// which only matters for the process-pool strategy on non-Linux hosts.
func newMemoryReader() memoryReader {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return runtimeReader{}
	}
	return &procReader{fs: fs, pid: os.Getpid(), pageSize: os.Getpagesize()}
}

// procReader samples RSS out of /proc, summing the parent with any direct
// child, which covers the pool workers spawned for one batch.
type procReader struct {
	fs       procfs.FS
	pid      int
	pageSize int
}

// ResidentMiB implements memoryReader.
func (r *procReader) ResidentMiB() float64 {
	total := r.residentPages(r.pid)

	procs, err := r.fs.AllProcs()
	if err == nil {
		for _, p := range procs {
			stat, err := p.Stat()
			if err != nil {
				continue
			}
			if stat.PPID == r.pid {
				total += stat.RSS
			}
		}
	}

	return float64(total) * float64(r.pageSize) / bytesPerMiB
}

func (r *procReader) residentPages(pid int) int {
	p, err := r.fs.Proc(pid)
	if err != nil {
		return 0
	}
	stat, err := p.Stat()
	if err != nil {
		return 0
	}
	return stat.RSS
}

// runtimeReader approximates resident memory with the bytes the Go runtime
// holds from the OS.
type runtimeReader struct{}

// ResidentMiB implements memoryReader.
func (runtimeReader) ResidentMiB() float64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return float64(stats.Sys-stats.HeapReleased) / bytesPerMiB
}
