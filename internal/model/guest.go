// Package model defines the domain records persisted in the document
// store: guests, servers, tables, and the heterogeneous notification
// family. Records carry their collection name on the type and their
// document identity outside the encoded field map.
package model

import (
	"strings"
	"time"
)

// Guest is a diner using the app.
type Guest struct {
	ID                 string    `json:"-"`
	EmailVerified      bool      `json:"isEmailVerified"`
	FirstName          string    `json:"firstName,omitempty"`
	LastName           string    `json:"lastName,omitempty"`
	PhotoURL           string    `json:"photoURL,omitempty"`
	Email              string    `json:"email,omitempty"`
	BirthDate          string    `json:"birthDate,omitempty"`
	PhoneNumber        string    `json:"phoneNumber,omitempty"`
	Location           *Location `json:"location,omitempty"`
	Hometown           string    `json:"hometown,omitempty"`
	FoodPreferences    []string  `json:"foodPreferences,omitempty"`
	FavoriteServerIDs  []string  `json:"favoriteServers,omitempty"`
	BlockedIDs         []string  `json:"blockedIds,omitempty"`
	NotificationTokens []string  `json:"notificationTokens,omitempty"`
	IsActive           bool      `json:"isActive,omitempty"`
	CreatedAt          time.Time `json:"createdTime,omitempty"`
}

func (*Guest) ResourceName() string      { return "guests" }
func (g *Guest) DocumentID() string      { return g.ID }
func (g *Guest) SetDocumentID(id string) { g.ID = id }

// SearchName feeds the denormalized lowercase search field.
func (g *Guest) SearchName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

func (g *Guest) CreatedTimeKey() string { return "createdTime" }
func (g *Guest) CreatedTime() time.Time { return g.CreatedAt }

func (g *Guest) EmailIsVerified() bool   { return g.EmailVerified }
func (g *Guest) SetEmailVerified(v bool) { g.EmailVerified = v }

func (g *Guest) Coordinates() (lat, lng float64, ok bool) {
	return g.Location.Coordinates()
}

// SplitDisplayName splits a provider display name on the first space:
// "Jane Doe" becomes ("Jane", "Doe"), a single word becomes (word, "").
func SplitDisplayName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	first = parts[0]
	if len(parts) == 2 {
		last = strings.TrimSpace(parts[1])
	}
	return first, last
}
