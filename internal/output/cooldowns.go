package output

import (
	"strings"
	"time"
)

// Cooldown is the rate limit state of one model.
type Cooldown struct {
	Model            string  `json:"model" yaml:"model"`
	RateLimited      bool    `json:"rate_limited" yaml:"rate_limited"`
	RemainingSeconds float64 `json:"remaining_seconds" yaml:"remaining_seconds"`
}

// CooldownList is the cooldowns command payload.
type CooldownList struct {
	CooldownSeconds float64    `json:"cooldown_seconds" yaml:"cooldown_seconds"`
	Entries         []Cooldown `json:"entries" yaml:"entries"`
}

// Header implements Tabular.
func (l CooldownList) Header() []string {
	return []string{"Model", "Limited", "Remaining"}
}

// Rows implements Tabular.
func (l CooldownList) Rows() [][]string {
	rows := make([][]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		rows = append(rows, []string{e.Model, yesNo(e.RateLimited), seconds(e.RemainingSeconds)})
	}
	return rows
}

// FilterPrefix keeps entries whose model starts with prefix.
func (l CooldownList) FilterPrefix(prefix string) CooldownList {
	if prefix == "" {
		return l
	}
	filtered := CooldownList{CooldownSeconds: l.CooldownSeconds, Entries: []Cooldown{}}
	for _, e := range l.Entries {
		if strings.HasPrefix(e.Model, prefix) {
			filtered.Entries = append(filtered.Entries, e)
		}
	}
	return filtered
}

func seconds(v float64) string {
	if v <= 0 {
		return "-"
	}
	return time.Duration(v * float64(time.Second)).Round(time.Second).String()
}
