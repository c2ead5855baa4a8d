// Package database provides connection management, migrations, foreign key
// handling, SQL data seeding, configuration loading, logging, health checks,
// and SQL error classification built on top of Bun.
package database
