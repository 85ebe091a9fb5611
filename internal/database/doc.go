// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── errors.go        # Typed failures and unique-lookup helpers
//	├── users/           # User account rows and unique lookups
//	├── journals/        # Journal catalog (CatalogDirectory)
//	├── holdings/        # Subscriptions, storage, articles, borrowings
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
// A single Database is opened per process and its *gorm.DB is handed to each
// repository:
//
//	db, err := database.NewDatabase("./periodicals.db")
//
//	journalsRepo := journals.NewRepository(db.DB)
//	ledger := holdings.NewLedger(db.DB, holdings.Options{})
//
//	journal, err := journalsRepo.GetByISSN(ctx, "1000-0054")
//
// # Errors
//
// Repositories return the sentinels from errors.go (ErrNotFound, ErrDuplicateKey,
// ErrForeignKeyViolation, ...), wrapped with operation context. Lookups on
// columns declared unique go through FindUnique, which reports ErrInconsistent
// instead of silently picking a row when more than one matches.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register the entity in Models so it is migrated
package database
