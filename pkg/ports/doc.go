/*
Package ports declares the driven-side interfaces of the orchestrator:
command execution, dependency caching, the hosting-system write surface and
run-record persistence.

Adapters under internal/adapters implement these against real backends
(processes, the filesystem, an HTTP forge API, Redis). Tests substitute
fakes, which is the point of keeping the surface this small.
*/
package ports
