// Package workers computes worker pool sizes from the CPUs actually
// available to the process, respecting container limits via GOMAXPROCS.
package workers
