package model

import "strings"

// Team is the fixed grouping tag of a task or a member.
type Team string

const (
	TeamSoftware    Team = "yazilim"
	TeamMechanical  Team = "mekanik"
	TeamElectronics Team = "elektronik"
	TeamSocial      Team = "sosyal"
)

func (t Team) Valid() bool {
	switch t {
	case TeamSoftware, TeamMechanical, TeamElectronics, TeamSocial:
		return true
	}
	return false
}

// NormalizeTeam maps free-form team text (as typed into profiles) onto a
// Team. Unknown values yield nil.
func NormalizeTeam(raw string) *Team {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.ReplaceAll(s, "ı", "i")
	t := Team(s)
	if !t.Valid() {
		return nil
	}
	return &t
}
