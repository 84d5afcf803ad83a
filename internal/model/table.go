package model

import "time"

// Occasion categorizes why a table is dining.
type Occasion string

const (
	OccasionNone        Occasion = "None"
	OccasionBirthday    Occasion = "Birthday"
	OccasionAnniversary Occasion = "Anniversary"
	OccasionDate        Occasion = "Date"
	OccasionCelebration Occasion = "Celebration"
	OccasionBusiness    Occasion = "Business"
	OccasionCasual      Occasion = "Casual"
	OccasionGraduation  Occasion = "Graduation"
	OccasionOther       Occasion = "Other"
)

func (o Occasion) String() string { return string(o) }

// IsValid checks whether the occasion is a known value. Empty counts as
// valid: tables created before the occasion prompt existed have none.
func (o Occasion) IsValid() bool {
	switch o {
	case "", OccasionNone, OccasionBirthday, OccasionAnniversary, OccasionDate,
		OccasionCelebration, OccasionBusiness, OccasionCasual,
		OccasionGraduation, OccasionOther:
		return true
	}
	return false
}

// Table is a seated party: the guests at it, the server working it, and
// the celebration context the guests shared when joining.
type Table struct {
	ID                  string    `json:"-"`
	Name                string    `json:"name,omitempty"`
	Alias               string    `json:"alias,omitempty"`
	Code                string    `json:"code,omitempty"`
	GuestIDs            []string  `json:"guestIds,omitempty"`
	PendingGuestIDs     []string  `json:"pendingGuestIds,omitempty"`
	CelebratingGuestIDs []string  `json:"guestsIDsCelebrating,omitempty"`
	PersonsCelebrating  string    `json:"personsCelebrating,omitempty"`
	Occasion            Occasion  `json:"occasion,omitempty"`
	OtherOccasion       string    `json:"otherOccasion,omitempty"`
	NumChecks           int       `json:"numChecks,omitempty"`
	AllergyAckGuestIDs  []string  `json:"guestsIDsAllergyAcknowledged,omitempty"`
	ServerID            string    `json:"serverId,omitempty"`
	IsOpen              bool      `json:"isOpen"`
	CreatedAt           time.Time `json:"createdAt,omitempty"`
}

func (*Table) ResourceName() string      { return "tables" }
func (t *Table) DocumentID() string      { return t.ID }
func (t *Table) SetDocumentID(id string) { t.ID = id }

func (t *Table) CreatedTimeKey() string { return "createdAt" }
func (t *Table) CreatedTime() time.Time { return t.CreatedAt }

// HasGuest reports whether the guest is seated (not merely pending).
func (t *Table) HasGuest(guestID string) bool {
	for _, id := range t.GuestIDs {
		if id == guestID {
			return true
		}
	}
	return false
}
