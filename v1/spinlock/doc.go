// Package spinlock provides busy-wait mutual-exclusion primitives designed
// for environments with no blocking support underneath them. BareSpinLock
// serializes a critical section without owning any data; SpinLock couples the
// lock state with the value it protects so the value is only reachable
// through a held guard. Releasing the guard is the only way either lock is
// ever unlocked.
//
// The locks are strictly non-reentrant. A caller that already holds a lock
// and calls Lock again on the same instance spins forever; TryLock reports
// failure instead. Call sites shared between contexts that can preempt each
// other (for example an interrupt handler and the code it interrupts on a
// single core) must disable the competing context around the critical
// section; the lock keeps its own internals short and non-preempting but
// cannot enforce that discipline for its callers.
package spinlock
