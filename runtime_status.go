// runtime_status.go - Shared device status for the display overlay

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

package main

import "sync"

type runtimeStatusSnapshot struct {
	gpu     *GPUChip
	display *RAMDisplay
	timer   *HostTimer
}

type runtimeStatusStore struct {
	mu sync.RWMutex
	runtimeStatusSnapshot
}

func (s *runtimeStatusStore) setDevices(gpu *GPUChip, display *RAMDisplay, timer *HostTimer) {
	s.mu.Lock()
	s.gpu = gpu
	s.display = display
	s.timer = timer
	s.mu.Unlock()
}

func (s *runtimeStatusStore) snapshot() runtimeStatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runtimeStatusSnapshot
}

var runtimeStatus runtimeStatusStore
