package activities

import "school-activities/pkg/registry"

// Activity is a snapshot of one extracurricular and its roster.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// SpotsLeft is the remaining capacity, never negative.
func (a Activity) SpotsLeft() int {
	if left := a.MaxParticipants - len(a.Participants); left > 0 {
		return left
	}
	return 0
}

// FromRegistry converts seed records into store activities.
func FromRegistry(reg *registry.ActivityRegistry) []Activity {
	out := make([]Activity, 0, len(reg.Activities))
	for _, a := range reg.Activities {
		out = append(out, Activity{
			Name:            a.Name,
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    a.Participants,
		})
	}
	return out
}

func (a Activity) clone() Activity {
	c := a
	c.Participants = make([]string, len(a.Participants))
	copy(c.Participants, a.Participants)
	return c
}
