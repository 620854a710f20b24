package postgres

import (
	httpapi "github.com/tinoosan/accounts/internal/httpapi/v1"
	"github.com/tinoosan/accounts/internal/service/account"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ account.Repo         = (*Store)(nil)
	_ account.Writer       = (*Store)(nil)
	_ httpapi.ReadyChecker = (*Store)(nil)
)
