package model

import (
	"strings"
	"time"
)

// Server is a restaurant worker using the app.
type Server struct {
	ID                 string    `json:"-"`
	EmailVerified      bool      `json:"isEmailVerified"`
	FirstName          string    `json:"firstName,omitempty"`
	LastName           string    `json:"lastName,omitempty"`
	PhotoURL           string    `json:"photoURL,omitempty"`
	Email              string    `json:"email,omitempty"`
	BirthDate          string    `json:"birthDate,omitempty"`
	PhoneNumber        string    `json:"phoneNumber,omitempty"`
	Location           *Location `json:"location,omitempty"`
	Workplace          string    `json:"workplace,omitempty"`
	Position           string    `json:"position,omitempty"`
	Bio                string    `json:"bio,omitempty"`
	TableIDs           []string  `json:"tableIds,omitempty"`
	NotificationTokens []string  `json:"notificationTokens,omitempty"`
	CreatedAt          time.Time `json:"createdTime,omitempty"`
}

func (*Server) ResourceName() string      { return "servers" }
func (s *Server) DocumentID() string      { return s.ID }
func (s *Server) SetDocumentID(id string) { s.ID = id }

func (s *Server) SearchName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func (s *Server) CreatedTimeKey() string { return "createdTime" }
func (s *Server) CreatedTime() time.Time { return s.CreatedAt }

func (s *Server) EmailIsVerified() bool   { return s.EmailVerified }
func (s *Server) SetEmailVerified(v bool) { s.EmailVerified = v }

func (s *Server) Coordinates() (lat, lng float64, ok bool) {
	return s.Location.Coordinates()
}
