package repository

// Supported database drivers. The concrete constructors live in the driver
// subpackages; the server wires the selected one at startup.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ValidDriver reports whether the driver name is supported.
func ValidDriver(driver string) bool {
	return driver == DriverSQLite || driver == DriverPostgres
}

// EmbeddedDriver reports whether the driver runs in-process without an
// external database server.
func EmbeddedDriver(driver string) bool {
	return driver == DriverSQLite
}
