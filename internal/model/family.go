package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownNotificationKind reports a discriminator value with no
// registered concrete type.
var ErrUnknownNotificationKind = errors.New("unknown notification kind")

// notificationTypes maps each discriminator value to a constructor for
// its concrete type. Every kind declared in notification.go must appear
// here; the exhaustiveness test iterates NotificationKinds.
var notificationTypes = map[NotificationKind]func() Notification{
	KindTableRequestedService: func() Notification {
		return &TableRequestedService{NotificationBase: NotificationBase{Kind: KindTableRequestedService}}
	},
	KindTableRequestedCheck: func() Notification {
		return &TableRequestedCheck{NotificationBase: NotificationBase{Kind: KindTableRequestedCheck}}
	},
	KindServerAcknowledgement: func() Notification {
		return &ServerAcknowledgement{NotificationBase: NotificationBase{Kind: KindServerAcknowledgement}}
	},
	KindServerMessage: func() Notification {
		return &ServerMessage{NotificationBase: NotificationBase{Kind: KindServerMessage}}
	},
	KindServerToServerMessage: func() Notification {
		return &ServerToServerMessage{NotificationBase: NotificationBase{Kind: KindServerToServerMessage}}
	},
	KindGuestFavorited: func() Notification {
		return &GuestFavorited{NotificationBase: NotificationBase{Kind: KindGuestFavorited}}
	},
}

// NotificationKinds returns every registered discriminator value, sorted.
func NotificationKinds() []NotificationKind {
	kinds := make([]NotificationKind, 0, len(notificationTypes))
	for k := range notificationTypes {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// NewNotification constructs an empty notification of the given kind,
// or nil if the kind is not registered.
func NewNotification(kind NotificationKind) Notification {
	newFn, ok := notificationTypes[kind]
	if !ok {
		return nil
	}
	return newFn()
}

// DecodeNotification decodes a notification payload into its concrete
// type. It reads the "type" discriminator first, looks up the concrete
// type, then decodes the full payload as that type. An unrecognized
// discriminator fails with ErrUnknownNotificationKind; no partially
// decoded value is ever returned.
func DecodeNotification(data []byte) (Notification, error) {
	var probe struct {
		Kind NotificationKind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("notification discriminator: %w", err)
	}

	newFn, ok := notificationTypes[probe.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNotificationKind, probe.Kind)
	}

	n := newFn()
	if err := json.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("decode %s notification: %w", probe.Kind, err)
	}
	return n, nil
}

// DecodeNotificationFields decodes a notification from a document field
// map rather than raw JSON.
func DecodeNotificationFields(fields map[string]any) (Notification, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode notification fields: %w", err)
	}
	return DecodeNotification(data)
}
