package model

import "time"

// BanType tells how the host keyed a ban.
type BanType string

const (
	BanTypeUserID BanType = "userid"
	BanTypeIP     BanType = "ip"
)

// OfflineBanName is the original name the host records for bans issued against offline players.
const OfflineBanName = "Unknown - offline ban"

// Player is a connected player as reported by the host.
type Player struct {
	Nickname string `json:"nickname"`
	UserID   string `json:"user_id"`
}

// Identity converts the player to an Identity. A nil player yields nil.
func (p *Player) Identity() *Identity {
	if p == nil {
		return nil
	}
	return &Identity{Name: p.Nickname, ID: p.UserID}
}

// BanDetails is the ban entry the host stored after a ban was applied.
type BanDetails struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	Reason       string    `json:"reason"`
	IssuedAt     time.Time `json:"issued_at"`
	Expires      time.Time `json:"expires"`
}

// BannedEvent is raised after a ban has been enacted.
type BannedEvent struct {
	Issuer  *Player    `json:"issuer,omitempty"`
	Type    BanType    `json:"type"`
	Details BanDetails `json:"details"`
}

// BanningEvent is raised right before a player is banned.
type BanningEvent struct {
	Issuer   *Player `json:"issuer,omitempty"`
	Target   Player  `json:"target"`
	Reason   string  `json:"reason"`
	Duration int64   `json:"duration"`
}

// KickingEvent is raised right before a player is kicked.
type KickingEvent struct {
	Issuer *Player `json:"issuer,omitempty"`
	Target Player  `json:"target"`
	Reason string  `json:"reason"`
}
