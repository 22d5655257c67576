package handlers

import (
	"github.com/customeros/invoicestack/internal/repository"
	"github.com/customeros/invoicestack/services"
)

type APIHandlers struct {
	Scans       *ScansHandler
	Connections *ConnectionsHandler
	Ledger      *LedgerHandler
}

func InitHandlers(s *services.Services, r *repository.Repositories) *APIHandlers {
	return &APIHandlers{
		Scans:       NewScansHandler(s.ScannerService),
		Connections: NewConnectionsHandler(s.CredentialService, s.ScannerService),
		Ledger:      NewLedgerHandler(r.LedgerRepository),
	}
}
