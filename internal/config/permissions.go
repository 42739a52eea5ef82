package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Member is one person in a permission group.
type Member struct {
	Name        string `yaml:"name"`
	SlackUserID string `yaml:"slack_user_id"`
	Active      bool   `yaml:"active"`
}

// Permissions maps named groups of people to capabilities.
type Permissions struct {
	Groups map[string][]Member `yaml:"groups"`
	Grants struct {
		ManageLocations []string `yaml:"manage_locations"`
	} `yaml:"permissions"`
}

// LoadPermissions reads the yaml permissions file. A missing file yields an
// empty (deny-all) permission set rather than an error.
func LoadPermissions(path string) (*Permissions, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Permissions{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read permissions: %w", err)
	}
	var p Permissions
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse permissions: %w", err)
	}
	return &p, nil
}

// IsAdmin reports whether the user is an active member of the admin group.
func (p *Permissions) IsAdmin(slackUserID string) bool {
	for _, m := range p.Groups["admin"] {
		if m.Active && m.SlackUserID == slackUserID {
			return true
		}
	}
	return false
}

// CanManageLocations reports whether the user may add or replace location
// templates. Admins always can; otherwise membership in any group granted
// manage_locations counts.
func (p *Permissions) CanManageLocations(slackUserID string) bool {
	if p.IsAdmin(slackUserID) {
		return true
	}
	for _, group := range p.Grants.ManageLocations {
		for _, m := range p.Groups[group] {
			if m.Active && m.SlackUserID == slackUserID {
				return true
			}
		}
	}
	return false
}
