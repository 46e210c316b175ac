package service

import (
	"context"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Clients
// ============================================================

// AddClient creates a client stamped with the current time. A client created
// CLOSED gets its sale entry in the same commit.
func (s *CRM) AddClient(ctx context.Context, in domain.NewClientInput) (*domain.Client, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	var created domain.Client
	err := s.mutate(ctx, "add_client", func(tx *txn) error {
		if _, err := requireTab(tx.user, domain.TabClients); err != nil {
			return err
		}
		if in.Status != "" && in.Status != domain.StatusProspect {
			if _, err := requireTab(tx.user, domain.TabPipeline); err != nil {
				return err
			}
		}
		respID, respName, err := resolveResponsible(tx.state, tx.user, in.ResponsibleID)
		if err != nil {
			return err
		}
		status := in.Status
		if status == "" {
			status = domain.StatusProspect
		}
		created = domain.Client{
			ID:              s.newID(),
			Name:            in.Name,
			Company:         in.Company,
			Phone:           in.Phone,
			Email:           in.Email,
			Segment:         in.Segment,
			ServiceType:     in.ServiceType,
			ContractValue:   in.ContractValue,
			Status:          status,
			ResponsibleID:   respID,
			ResponsibleName: respName,
			CreatedAt:       tx.now.UTC(),
			Notes:           in.Notes,
		}
		tx.state.Clients = append(tx.state.Clients, created)
		tx.syncLedger(nil, &created, s.newID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client added",
		zap.String("client_id", created.ID),
		zap.String("status", string(created.Status)),
		zap.String("responsible_id", created.ResponsibleID),
	)
	return &created, nil
}

// UpdateClientStatus moves a client to another pipeline stage. Every
// transition is allowed; entering or leaving CLOSED updates the ledger.
// The session role needs the pipeline tab, and a SELLER may only move own clients.
func (s *CRM) UpdateClientStatus(ctx context.Context, id string, status domain.ClientStatus) (*domain.Client, error) {
	if !status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "must be one of [PROSPECT MEETING CLOSED LOST]"}
	}

	var updated domain.Client
	var previous domain.ClientStatus
	err := s.mutate(ctx, "update_client_status", func(tx *txn) error {
		u, err := requireTab(tx.user, domain.TabPipeline)
		if err != nil {
			return err
		}
		idx := visibleClient(tx.state, u, id)
		if idx < 0 {
			return &domain.ErrNotFound{Resource: "client", ID: id}
		}
		before := tx.state.Clients[idx]
		previous = before.Status
		updated = before
		updated.Status = status
		tx.state.Clients[idx] = updated
		tx.syncLedger(&before, &updated, s.newID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client status changed",
		zap.String("client_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)
	return &updated, nil
}

// UpdateClient merges a partial update. The responsible name is re-derived
// whenever the responsible changes, and the ledger is re-synced from the old
// and new versions of the client. Changing the status also needs the pipeline tab.
func (s *CRM) UpdateClient(ctx context.Context, id string, patch domain.ClientPatch) (*domain.Client, error) {
	if err := domain.Validate(patch); err != nil {
		return nil, err
	}

	var updated domain.Client
	err := s.mutate(ctx, "update_client", func(tx *txn) error {
		u, err := requireTab(tx.user, domain.TabClients)
		if err != nil {
			return err
		}
		idx := visibleClient(tx.state, u, id)
		if idx < 0 {
			return &domain.ErrNotFound{Resource: "client", ID: id}
		}
		before := tx.state.Clients[idx]
		if patch.Status != nil && *patch.Status != before.Status {
			if _, err := requireTab(u, domain.TabPipeline); err != nil {
				return err
			}
		}
		updated = before
		if err := applyClientPatch(tx.state, &updated, patch); err != nil {
			return err
		}
		tx.state.Clients[idx] = updated
		tx.syncLedger(&before, &updated, s.newID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client updated",
		zap.String("client_id", id),
		zap.String("status", string(updated.Status)),
	)
	return &updated, nil
}

// DeleteClient removes a client and every ledger entry linked to it.
// Only ADMIN may delete clients.
func (s *CRM) DeleteClient(ctx context.Context, id string) error {
	err := s.mutate(ctx, "delete_client", func(tx *txn) error {
		u, err := requireSession(tx.user)
		if err != nil {
			return err
		}
		if u.Role != domain.RoleAdmin {
			return &domain.ErrForbidden{Action: "only ADMIN can delete clients"}
		}
		idx := tx.state.FindClient(id)
		if idx < 0 {
			return &domain.ErrNotFound{Resource: "client", ID: id}
		}
		before := tx.state.Clients[idx]
		tx.state.Clients = append(tx.state.Clients[:idx], tx.state.Clients[idx+1:]...)
		tx.syncLedger(&before, nil, s.newID)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("client deleted", zap.String("client_id", id))
	return nil
}

// ListClients returns the clients visible to the session user: all of them
// for ADMIN and HR, only their own for SELLER.
func (s *CRM) ListClients(ctx context.Context) ([]domain.Client, error) {
	var out []domain.Client
	err := s.view(ctx, "ListClients", func(st *domain.AppState, user *domain.User, _ time.Time) error {
		u, err := requireTab(user, domain.TabClients)
		if err != nil {
			return err
		}
		out = scopedClients(st.Clients, u)
		return nil
	})
	return out, err
}

func (tx *txn) syncLedger(before, after *domain.Client, newID func() string) {
	var d ledgerDelta
	tx.state.FinancialEntries, d = syncLedger(tx.state.FinancialEntries, before, after, tx.now, newID)
	tx.ledger.add(d)
}

func applyClientPatch(st *domain.AppState, c *domain.Client, p domain.ClientPatch) error {
	if p.ResponsibleID != nil && *p.ResponsibleID != c.ResponsibleID {
		idx := st.FindUser(*p.ResponsibleID)
		if idx < 0 {
			return &domain.ErrNotFound{Resource: "user", ID: *p.ResponsibleID}
		}
		c.ResponsibleID = st.Users[idx].ID
		c.ResponsibleName = st.Users[idx].Name
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Segment != nil {
		c.Segment = *p.Segment
	}
	if p.ServiceType != nil {
		c.ServiceType = *p.ServiceType
	}
	if p.ContractValue != nil {
		c.ContractValue = *p.ContractValue
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	return nil
}

// visibleClient returns the index of client id if u may see it, or -1.
// Clients of other sellers are reported as missing to a SELLER.
func visibleClient(st *domain.AppState, u *domain.User, id string) int {
	idx := st.FindClient(id)
	if idx < 0 {
		return -1
	}
	if u.Role == domain.RoleSeller && st.Clients[idx].ResponsibleID != u.ID {
		return -1
	}
	return idx
}

// scopedClients copies the clients u may see.
func scopedClients(clients []domain.Client, u *domain.User) []domain.Client {
	out := make([]domain.Client, 0, len(clients))
	for _, c := range clients {
		if u.Role == domain.RoleSeller && c.ResponsibleID != u.ID {
			continue
		}
		out = append(out, c)
	}
	return out
}
