package service

import (
	"context"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"

	"go.uber.org/zap"
)

// AddMeeting schedules a meeting. Client name and company are copied from the
// referenced client, unless ClientID is domain.ExternalClientID, in which case
// the caller supplies them.
func (s *CRM) AddMeeting(ctx context.Context, in domain.NewMeetingInput) (*domain.Meeting, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	if in.ClientID == domain.ExternalClientID && in.ClientName == "" {
		return nil, &domain.ErrValidation{Field: "clientName", Message: "is required for external meetings"}
	}

	var created domain.Meeting
	err := s.mutate(ctx, "add_meeting", func(tx *txn) error {
		if _, err := requireTab(tx.user, domain.TabAgenda); err != nil {
			return err
		}
		respID, respName, err := resolveResponsible(tx.state, tx.user, in.ResponsibleID)
		if err != nil {
			return err
		}

		created = domain.Meeting{
			ID:              s.newID(),
			Title:           in.Title,
			ClientID:        in.ClientID,
			ClientName:      in.ClientName,
			Company:         in.Company,
			ResponsibleID:   respID,
			ResponsibleName: respName,
			Date:            in.Date,
			Time:            in.Time,
			Notes:           in.Notes,
		}
		if in.ClientID != domain.ExternalClientID {
			idx := tx.state.FindClient(in.ClientID)
			if idx < 0 {
				return &domain.ErrNotFound{Resource: "client", ID: in.ClientID}
			}
			created.ClientName = tx.state.Clients[idx].Name
			created.Company = tx.state.Clients[idx].Company
		}
		tx.state.Meetings = append(tx.state.Meetings, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("meeting scheduled",
		zap.String("meeting_id", created.ID),
		zap.String("client_id", created.ClientID),
		zap.String("date", created.Date),
	)
	return &created, nil
}

// ListMeetings returns the meetings visible to the session user.
func (s *CRM) ListMeetings(ctx context.Context) ([]domain.Meeting, error) {
	var out []domain.Meeting
	err := s.view(ctx, "ListMeetings", func(st *domain.AppState, user *domain.User, _ time.Time) error {
		u, err := requireTab(user, domain.TabAgenda)
		if err != nil {
			return err
		}
		out = make([]domain.Meeting, 0, len(st.Meetings))
		for _, m := range st.Meetings {
			if u.Role == domain.RoleSeller && m.ResponsibleID != u.ID {
				continue
			}
			out = append(out, m)
		}
		return nil
	})
	return out, err
}
