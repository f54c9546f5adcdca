package config

import (
	"fmt"
	"os"
	"time"

	yamlv2 "gopkg.in/yaml.v2"

	"github.com/sawpanic/optionrun/internal/events"
)

// eventsFile is the on-disk shape of a custom economic calendar
type eventsFile struct {
	Events []eventEntry `yaml:"events"`
}

type eventEntry struct {
	Name   string `yaml:"name"`
	Date   string `yaml:"date"` // YYYY-MM-DD
	Impact string `yaml:"impact"`
}

// LoadEvents reads a calendar file. Dates are parsed explicitly so the
// file format stays plain strings rather than YAML timestamps.
func LoadEvents(path string) (*events.Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events file %s: %w", path, err)
	}

	var file eventsFile
	if err := yamlv2.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse events YAML: %w", err)
	}

	parsed := make([]events.EconEvent, 0, len(file.Events))
	for i, entry := range file.Events {
		if entry.Name == "" {
			return nil, fmt.Errorf("event %d has no name", i)
		}
		date, err := time.Parse(dateLayout, entry.Date)
		if err != nil {
			return nil, fmt.Errorf("event %q has invalid date %q: %w", entry.Name, entry.Date, err)
		}
		impact := events.Impact(entry.Impact)
		if impact == "" {
			impact = events.ImpactHigh
		}
		parsed = append(parsed, events.EconEvent{Name: entry.Name, Date: date, Impact: impact})
	}
	return events.NewCalendar(parsed), nil
}
