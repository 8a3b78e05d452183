package model

import "errors"

// ServerConsole names the issuer of punishments raised by the server itself.
const ServerConsole = "Server Console"

// Identity is a player name paired with its external id.
type Identity struct {
	Name string
	ID   string
}

// EventRecord describes a single ban or kick. Duration is in seconds; zero means a kick.
type EventRecord struct {
	Issuer   Identity
	Target   Identity
	Reason   string
	Duration int64
}

var errEmptyTarget = errors.New("punishment target name and id are required")

// NewEventRecord builds an EventRecord, substituting the server console for a missing issuer.
func NewEventRecord(issuer *Identity, target Identity, reason string, duration int64) (EventRecord, error) {
	if target.Name == "" || target.ID == "" {
		return EventRecord{}, errEmptyTarget
	}

	record := EventRecord{
		Issuer:   Identity{Name: ServerConsole, ID: ServerConsole},
		Target:   target,
		Reason:   reason,
		Duration: duration,
	}
	if issuer != nil && issuer.Name != "" && issuer.ID != "" {
		record.Issuer = *issuer
	}
	return record, nil
}

// IsKick reports whether the record describes a kick rather than a timed ban.
func (r EventRecord) IsKick() bool {
	return r.Duration == 0
}
