package cli

import (
	"sync"

	"github.com/flatrecord/flatrecord/pkg/nativefile"
)

// handlePool is process-wide so repeated commands against the same log
// path within one flatrecordctl invocation - and the long-lived
// `tail`/`inspect` commands in particular - reuse an already-open
// [nativefile.RealHandle] instead of paying an open(2) per access,
// capped per §5's shared-resource policy.
var (
	handlePoolOnce sync.Once
	handlePool     *nativefile.HandlePool
)

func pooledHandle(cfg Config, path string) (*nativefile.RealHandle, error) {
	handlePoolOnce.Do(func() {
		handlePool = nativefile.NewHandlePoolWithCapacity(cfg.PoolCapacity)
	})

	return handlePool.Acquire(path)
}

func releaseHandle(path string) {
	if handlePool != nil {
		handlePool.Release(path)
	}
}
