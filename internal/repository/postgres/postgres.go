package postgres

import (
	"txguard/internal/repository"
)

var (
	_ repository.AccountRepository     = (*AccountRepository)(nil)
	_ repository.TransactionRepository = (*TransactionRepository)(nil)
	_ repository.AuditRepository       = (*AuditStore)(nil)
)
