package domain

// Properties is a player's per-round vote payload: a course pick plus
// whatever other voting fields the reliable protocol defines. The room core
// treats everything but Course as opaque.
type Properties struct {
	Course uint32
	Extra  []byte
}

// Player is an in-game persona contributed by a client. PlayerID is not
// stored on Player itself — it is always the player's index within the
// owning Room's player list, which stays stable until the player leaves.
type Player struct {
	ClientHandle    int
	Mii             []byte
	Location        uint32
	Latitude        uint32
	Longitude       uint32
	RegionLineColor uint32
	Properties      *Properties // nil until a vote is cast
}

// HasVoted reports whether the player has submitted Properties this round.
func (p *Player) HasVoted() bool { return p.Properties != nil }
