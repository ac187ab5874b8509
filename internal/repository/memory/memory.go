package memory

import (
	"txguard/internal/repository"
)

var (
	_ repository.TransactionRepository = (*TransactionRepository)(nil)
	_ repository.AccountRepository     = (*AccountRepository)(nil)
	_ repository.AuditRepository       = (*AuditRepository)(nil)
)
