// Package console provides byte-oriented output backends and a Console
// front-end that serializes concurrent writers over a single backend through
// a guarded spin lock. Backends are thin forwarders to a host write
// primitive: one for a process standard-output stream, one for a
// debug-probe channel supplied by the host. Backends never retry; failures
// are drawn from the closed set in the status package.
package console
