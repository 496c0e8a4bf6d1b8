// ABOUTME: Main heapscope package providing version information and package documentation
// ABOUTME: This is the root package for the heap retained-size analysis library

// Package heapscope computes per-object retained sizes over captured heap
// ownership graphs. The graph package collapses reference cycles into
// strongly-connected components and attributes shared memory through exact
// ownership fractions, streaming (retained size, unique size) results for
// every object as its component is resolved.
package heapscope

// Version is the semantic version of the heapscope library
const Version = "0.1.0-dev"
