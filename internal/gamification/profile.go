// Package gamification turns quest events into XP, levels and badges.
//
// Everything here is a pure function of its inputs: no clock, no randomness
// and no I/O, so the same profile and event always give the same outcome.
package gamification

// Identity is the signed-in learner as asserted by the identity provider.
type Identity struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PictureURL string `json:"picture_url,omitempty"`
}

// Badge is an achievement. Name is unique within a profile.
type Badge struct {
	Kind        BadgeKind `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Subject     string    `json:"subject,omitempty"`
}

// Profile is the learner's progression.
type Profile struct {
	Level             int     `json:"level"`
	XP                int     `json:"xp"`
	Badges            []Badge `json:"badges"`
	MissionsCompleted int     `json:"missions_completed"`
}

// NewProfile returns the starting profile: level 1, no XP, no badges.
func NewProfile() Profile {
	return Profile{Level: 1, Badges: []Badge{}}
}

// HasBadge reports whether a badge with name was already earned.
func (p Profile) HasBadge(name string) bool {
	for _, b := range p.Badges {
		if b.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no memory with p.
func (p Profile) Clone() Profile {
	out := p
	out.Badges = make([]Badge, len(p.Badges))
	copy(out.Badges, p.Badges)
	return out
}
