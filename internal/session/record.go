package session

import (
	"fmt"
	"time"

	"github.com/Tarunjit45/ExamGenius/internal/gamification"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
)

// RecordVersion is the layout written by Save. Records without a version
// field predate it and are treated as version 1.
const RecordVersion = 2

type record struct {
	Version int                  `json:"version,omitempty"`
	Plan    *plan.StudyPlan      `json:"plan"`
	Profile recordProfile        `json:"profile"`
	Topics  []plan.SyllabusTopic `json:"topics,omitempty"`
	SavedAt time.Time            `json:"saved_at,omitzero"`
}

type recordProfile struct {
	Level             int           `json:"level"`
	XP                int           `json:"xp"`
	MissionsCompleted *int          `json:"missions_completed,omitempty"`
	Badges            []recordBadge `json:"badges"`
}

// recordBadge keeps only the stable fields of a badge.
type recordBadge struct {
	Kind        gamification.BadgeKind `json:"kind,omitempty"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Subject     string                 `json:"subject,omitempty"`
}

func newRecord(s Snapshot, now time.Time) record {
	badges := make([]recordBadge, len(s.Profile.Badges))
	for i, b := range s.Profile.Badges {
		badges[i] = recordBadge{Kind: b.Kind, Name: b.Name, Description: b.Description, Subject: b.Subject}
	}
	completed := s.Profile.MissionsCompleted

	var p *plan.StudyPlan
	if s.Plan != nil {
		c := s.Plan.Clone()
		p = &c
	}

	return record{
		Version: RecordVersion,
		Plan:    p,
		Profile: recordProfile{
			Level:             s.Profile.Level,
			XP:                s.Profile.XP,
			MissionsCompleted: &completed,
			Badges:            badges,
		},
		Topics:  s.Topics,
		SavedAt: now.UTC(),
	}
}

// migrate upgrades a decoded record of any known version to a Snapshot.
func migrate(r record, catalog *gamification.Catalog) (Snapshot, error) {
	if r.Version == 0 {
		r.Version = 1
	}

	if r.Plan != nil {
		if err := checkPlan(*r.Plan); err != nil {
			return Snapshot{}, err
		}
		if r.Plan.Empty() {
			r.Plan = nil
		}
	}

	xp := r.Profile.XP
	if xp < 0 {
		xp = 0
	}

	level := gamification.LevelForXP(xp)
	if r.Profile.Level > level {
		level = min(r.Profile.Level, gamification.MaxLevel)
	}

	var completed int
	switch {
	case r.Profile.MissionsCompleted != nil:
		completed = max(*r.Profile.MissionsCompleted, 0)
	case r.Plan != nil:
		completed = r.Plan.CompletedCount()
	default:
		completed = xp / gamification.XPPerMission
	}

	return Snapshot{
		Topics: r.Topics,
		Plan:   r.Plan,
		Profile: gamification.Profile{
			Level:             level,
			XP:                xp,
			Badges:            rehydrate(r.Profile.Badges, catalog),
			MissionsCompleted: completed,
		},
		SavedAt: r.SavedAt,
	}, nil
}

// rehydrate maps stored badges to their canonical definitions. A known kind
// wins over the stored name; otherwise the name goes through the catalog's
// migration table. Names the catalog does not know pass through unchanged.
func rehydrate(stored []recordBadge, catalog *gamification.Catalog) []gamification.Badge {
	out := make([]gamification.Badge, 0, len(stored))
	seen := make(map[string]bool, len(stored))

	for _, rb := range stored {
		b, ok := fromKind(rb, catalog)
		if !ok {
			b, ok = catalog.Resolve(rb.Name)
			if !ok {
				b = gamification.Badge{
					Kind:        gamification.KindUnknown,
					Name:        rb.Name,
					Description: rb.Description,
					Subject:     rb.Subject,
				}
			}
		}
		if b.Name == "" || seen[b.Name] {
			continue
		}
		seen[b.Name] = true
		out = append(out, b)
	}
	return out
}

func fromKind(rb recordBadge, catalog *gamification.Catalog) (gamification.Badge, bool) {
	d, ok := catalog.Definition(rb.Kind)
	if !ok {
		return gamification.Badge{}, false
	}
	if d.PerSubject() {
		if rb.Subject == "" {
			return gamification.Badge{}, false
		}
		return d.Badge(rb.Subject), true
	}
	return d.Badge(""), true
}

// checkPlan rejects plans that could not have been produced by plan.Build.
func checkPlan(p plan.StudyPlan) error {
	ids := make(map[string]bool)
	for i, d := range p.Days {
		if d.Day != i+1 {
			return fmt.Errorf("day %d stored at position %d", d.Day, i+1)
		}
		for _, m := range d.Missions {
			if m.ID == "" || ids[m.ID] {
				return fmt.Errorf("day %d: missing or repeated mission id %q", d.Day, m.ID)
			}
			ids[m.ID] = true
			if m.Status != plan.StatusPending && m.Status != plan.StatusCompleted {
				return fmt.Errorf("mission %s: unknown status %q", m.ID, m.Status)
			}
		}
	}
	return nil
}
