// Package tlsf is a Two-Level Segregated Fit allocator. A Control hands out blocks from
// caller-supplied memory regions ("pools") in constant time: free blocks are filed in size
// classes indexed by two levels of bitmaps, and adjacent free blocks are always coalesced.
//
// Block headers, boundary tags and free-list links live inside pool memory, addressed by pool
// slot and offset rather than by Go pointers, so pools may be Go memory (see the region
// package), mmapped memory or anything else that stays put and is 8-byte aligned.
//
// Pool memory is opaque to the garbage collector when it comes from region.Alloc or mmap, so
// allocations must not be the only place a Go pointer is kept.
//
// A Control is not safe for concurrent use. Build with the debug_tlsf tag to turn double
// frees, resizer re-entry and Check failures into panics.
package tlsf
