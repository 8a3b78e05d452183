package model

import "time"

// NotificationField represents a titled section within a notification payload.
type NotificationField struct {
	Name   string
	Value  string
	Inline bool
}

// Notification is a transport-agnostic rich message for downstream notifiers.
// It is built fresh for every send and never shared between sends.
type Notification struct {
	Title     string
	Fields    []NotificationField
	Color     uint32
	Timestamp time.Time
}
