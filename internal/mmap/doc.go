// Package mmap maps array files read-only into memory.
//
// Large .npy blueprints and data maps are decoded straight from the mapping
// instead of being read through a buffer:
//
//	m, err := mmap.Open("probe.blueprint.npy")
//	if err != nil { ... }
//	defer m.Close()
//
//	payload, _ := m.Region(headerLen, m.Size()-headerLen)
//	payload.Advise(mmap.AccessSequential)
//
// Unix uses mmap(2) and madvise(2); Windows uses MapViewOfFile and ignores
// access hints. Close is idempotent; slices returned by Bytes must not be used
// after it.
package mmap
