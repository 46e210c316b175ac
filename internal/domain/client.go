package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Clients & Pipeline
// ============================================================

// ClientStatus is the pipeline stage of a client.
// Any stage may move to any other stage; only entering or leaving
// StatusClosed has side effects (see the ledger sync rule).
type ClientStatus string

const (
	StatusProspect ClientStatus = "PROSPECT"
	StatusMeeting  ClientStatus = "MEETING"
	StatusClosed   ClientStatus = "CLOSED"
	StatusLost     ClientStatus = "LOST"
)

// Valid reports whether s is a known pipeline stage.
func (s ClientStatus) Valid() bool {
	switch s {
	case StatusProspect, StatusMeeting, StatusClosed, StatusLost:
		return true
	}
	return false
}

// ServiceType is the kind of work sold to a client.
type ServiceType string

const (
	ServiceSite   ServiceType = "SITE"
	ServiceSystem ServiceType = "SYSTEM"
)

// Client is a deal tracked through the pipeline.
// ResponsibleName is a cached label of the user referenced by ResponsibleID.
type Client struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Company         string          `json:"company"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	Segment         string          `json:"segment"`
	ServiceType     ServiceType     `json:"serviceType"`
	ContractValue   decimal.Decimal `json:"contractValue"`
	Status          ClientStatus    `json:"status"`
	ResponsibleID   string          `json:"responsibleId"`
	ResponsibleName string          `json:"responsibleName"`
	CreatedAt       time.Time       `json:"createdAt"`
	Notes           string          `json:"notes"`
}

// NewClientInput is the payload accepted by CRM.AddClient.
// An empty Status means PROSPECT; an empty ResponsibleID means the session user.
type NewClientInput struct {
	Name          string          `json:"name" validate:"required,max=120"`
	Company       string          `json:"company" validate:"required,max=120"`
	Phone         string          `json:"phone" validate:"max=40"`
	Email         string          `json:"email" validate:"omitempty,email"`
	Segment       string          `json:"segment" validate:"max=80"`
	ServiceType   ServiceType     `json:"serviceType" validate:"omitempty,oneof=SITE SYSTEM"`
	ContractValue decimal.Decimal `json:"contractValue" validate:"gte=0"`
	Status        ClientStatus    `json:"status" validate:"omitempty,oneof=PROSPECT MEETING CLOSED LOST"`
	ResponsibleID string          `json:"responsibleId"`
	Notes         string          `json:"notes"`
}

// ClientPatch is a partial update for CRM.UpdateClient. Nil fields are left unchanged.
type ClientPatch struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Company       *string          `json:"company,omitempty" validate:"omitempty,min=1,max=120"`
	Phone         *string          `json:"phone,omitempty" validate:"omitempty,max=40"`
	Email         *string          `json:"email,omitempty" validate:"omitempty,email"`
	Segment       *string          `json:"segment,omitempty" validate:"omitempty,max=80"`
	ServiceType   *ServiceType     `json:"serviceType,omitempty" validate:"omitempty,oneof=SITE SYSTEM"`
	ContractValue *decimal.Decimal `json:"contractValue,omitempty" validate:"omitempty,gte=0"`
	Status        *ClientStatus    `json:"status,omitempty" validate:"omitempty,oneof=PROSPECT MEETING CLOSED LOST"`
	ResponsibleID *string          `json:"responsibleId,omitempty" validate:"omitempty,min=1"`
	Notes         *string          `json:"notes,omitempty"`
}
