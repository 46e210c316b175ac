package domain

// ExternalClientID marks a meeting with someone who is not a tracked client.
const ExternalClientID = "external"

// Meeting is an agenda entry. Meetings have no status machine.
type Meeting struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Company         string `json:"company"`
	ClientID        string `json:"clientId"`
	ClientName      string `json:"clientName"`
	ResponsibleID   string `json:"responsibleId"`
	ResponsibleName string `json:"responsibleName"`
	Date            string `json:"date"` // YYYY-MM-DD
	Time            string `json:"time"` // HH:MM
	Notes           string `json:"notes"`
}

// NewMeetingInput is the payload accepted by CRM.AddMeeting.
// ClientName and Company are only read when ClientID is ExternalClientID.
type NewMeetingInput struct {
	Title         string `json:"title" validate:"required,max=160"`
	ClientID      string `json:"clientId" validate:"required"`
	ClientName    string `json:"clientName" validate:"max=120"`
	Company       string `json:"company" validate:"max=120"`
	ResponsibleID string `json:"responsibleId"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string `json:"time" validate:"required,datetime=15:04"`
	Notes         string `json:"notes"`
}
