// Package app composes the country-risk monitoring services into a running
// application.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   ├── quote/          # Bond quotes and benchmark yields
//	│   ├── spread/         # Spread estimator and observations
//	│   ├── alert/          # Alert events and state
//	│   └── history/        # Daily history points
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # ObservationStore and HistoryStore
//	│   ├── memory/         # In-memory implementation
//	│   └── quotecache/     # Quote cache (memory or Redis)
//	├── services/           # Business logic
//	│   ├── quotes/         # Quote source adapter with fallback
//	│   ├── treasury/       # Benchmark yield feed
//	│   ├── recorder/       # Session time series and CSV export
//	│   ├── alerts/         # Threshold alerting
//	│   ├── monitor/        # Polling loop driving the pipeline
//	│   └── history/        # Multi-year daily series builder
//	├── httpapi/            # HTTP API handlers and routing
//	├── system/             # Service lifecycle management
//	└── metrics/            # Prometheus collectors
//
// # Responsibilities
//
// The app package is responsible for:
//
//   - Composing services with their stores, fetchers, and loggers
//   - Defining the storage interfaces services depend on
//   - Providing domain models shared across services
//   - Exposing the HTTP API for external access
//
// Business rules live in internal/app/services/; handlers translate HTTP
// into service calls and never reach around them.
//
// # Dependency Direction
//
//	cmd/riskfeed/
//	      │
//	      ▼
//	internal/app/ (composition)
//	      │
//	      ├──► internal/app/services/ (business logic)
//	      │           │
//	      │           └──► internal/app/domain/ + storage interfaces
//	      │
//	      └──► internal/app/storage/ (memory, quotecache)
package app
