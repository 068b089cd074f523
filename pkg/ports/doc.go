/*
Package ports defines the driven ports (interfaces) for the Espalier engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various storage backends, template sources,
and lock providers.

# Key Interfaces

  - DocumentStore: Responsible for persisting and loading whole Documents.
  - TemplateSource: Responsible for loading node Templates (e.g., from Loam
    flat files or the built-in set).
  - Watchable: Optional store capability signaling backend changes.
  - DistributedLocker: Provides distributed locking for handling concurrent
    document access.
*/
package ports
