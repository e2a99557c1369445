package transfer

import (
	"testing"

	"contactbook/internal/testutil"
)

func TestTransferUsesFacadesOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InfraImportForbidden,
		"transfer reaches stores through core and blob, never an adapter package")
	testutil.AssertNoDirectImports(t, ".", testutil.DriverImportForbidden,
		"transfer must not talk to a database driver")
}
