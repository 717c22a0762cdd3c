//go:build ibmdb

package dbutil

// Importing the driver registers it with database/sql under DriverName.
// Building with this tag requires the IBM DB2 client libraries (clidriver)
// to be installed; see the README for setup.
import (
	_ "github.com/ibmdb/go_ibm_db"
)
