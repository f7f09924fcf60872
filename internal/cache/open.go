package cache

import (
	"path/filepath"
	"time"
)

// Open returns the named store: layered under dir/name when dir is set,
// memory-only otherwise
func Open(name, dir string, memoryTTL, diskTTL time.Duration) Cache {
	if dir == "" {
		return NewMemoryCache(name, memoryTTL, memorySweep)
	}
	return NewLayeredCache(name, memoryTTL, filepath.Join(dir, name), diskTTL)
}
