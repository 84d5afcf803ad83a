package model

import "time"

// NotificationKind is the discriminator stored in a notification
// document's "type" field.
type NotificationKind string

const (
	KindTableRequestedService NotificationKind = "tableRequestedService"
	KindTableRequestedCheck   NotificationKind = "tableRequestedCheck"
	KindServerAcknowledgement NotificationKind = "serverAcknowledgement"
	KindServerMessage         NotificationKind = "serverMessage"
	KindServerToServerMessage NotificationKind = "serverToServerMessage"
	KindGuestFavorited        NotificationKind = "guestFavorited"
)

func (k NotificationKind) String() string { return string(k) }

// Notification is any member of the heterogeneous notification family.
// The concrete type is selected by the "type" discriminator at decode
// time; see DecodeNotification.
type Notification interface {
	NotificationKind() NotificationKind
	DocumentID() string
	SetDocumentID(id string)
}

// NotificationBase carries the fields shared by every notification
// kind. The discriminator lives in the same flat namespace as the
// kind-specific fields, so "type" is reserved.
type NotificationBase struct {
	ID        string           `json:"-"`
	Kind      NotificationKind `json:"type"`
	CreatedAt time.Time        `json:"createdAt,omitempty"`
}

func (*NotificationBase) ResourceName() string      { return "notifications" }
func (b *NotificationBase) DocumentID() string      { return b.ID }
func (b *NotificationBase) SetDocumentID(id string) { b.ID = id }

func (b *NotificationBase) NotificationKind() NotificationKind { return b.Kind }

func (b *NotificationBase) CreatedTimeKey() string { return "createdAt" }
func (b *NotificationBase) CreatedTime() time.Time { return b.CreatedAt }

// TableRequestedService: a table asked for its server to come over.
// Acknowledgeable by the server, cancellable by the table.
type TableRequestedService struct {
	NotificationBase
	TableID        string     `json:"tableId,omitempty"`
	GuestID        string     `json:"guestId,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	Cancelled      bool       `json:"cancelled,omitempty"`
}

// TableRequestedCheck: a table asked for the check.
type TableRequestedCheck struct {
	NotificationBase
	TableID        string     `json:"tableId,omitempty"`
	GuestID        string     `json:"guestId,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	Cancelled      bool       `json:"cancelled,omitempty"`
}

// ServerAcknowledgement: the server confirmed a table's request; shown
// to the table as a dialog until viewed.
type ServerAcknowledgement struct {
	NotificationBase
	TableID  string `json:"tableId,omitempty"`
	ServerID string `json:"serverId,omitempty"`
	IsViewed bool   `json:"isViewed,omitempty"`
}

// ServerMessage: a free-form message from a server to a table.
type ServerMessage struct {
	NotificationBase
	TableID  string `json:"tableId,omitempty"`
	ServerID string `json:"serverId,omitempty"`
	Message  string `json:"message,omitempty"`
	IsRead   bool   `json:"isRead,omitempty"`
}

// ServerToServerMessage: a message between servers, e.g. on a table
// handoff between shifts.
type ServerToServerMessage struct {
	NotificationBase
	FromServerID string `json:"fromServerId,omitempty"`
	ToServerID   string `json:"toServerId,omitempty"`
	TableID      string `json:"tableId,omitempty"`
	Message      string `json:"message,omitempty"`
	IsRead       bool   `json:"isRead,omitempty"`
}

// GuestFavorited: a guest marked a server as a favorite.
type GuestFavorited struct {
	NotificationBase
	GuestID  string `json:"guestId,omitempty"`
	ServerID string `json:"serverId,omitempty"`
	IsRead   bool   `json:"isRead,omitempty"`
}
