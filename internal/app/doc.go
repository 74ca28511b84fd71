// Package app composes the data harmony service.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring and lifecycle
//	├── domain/user/        # User, Post, Comment documents
//	├── storage/            # Storage port and its backends
//	│   ├── interfaces.go   # Collection[T], Stores
//	│   ├── memory/         # In-memory fallback, sample seed
//	│   ├── sqlstore/       # PostgreSQL and SQLite
//	│   └── redisstore/     # Redis
//	├── services/
//	│   ├── enrichment/     # Enrich, Loader, upstream Source, Scheduler
//	│   └── users/          # Record service
//	├── httpapi/            # API dispatcher, envelopes, static assets
//	├── metrics/            # Prometheus collectors
//	├── runtime/            # Process wiring: config, store selection, servers
//	└── system/             # Service lifecycle manager
//
// # Dependency Direction
//
//	cmd/harmony/
//	      │
//	      ▼
//	internal/app/runtime
//	      │
//	      ├──► internal/app (composition)
//	      │         └──► services ──► storage
//	      │
//	      └──► internal/app/httpapi ──► internal/middleware
package app
