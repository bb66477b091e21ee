// Package catalog holds the static venue and usage-type tables of the FBS
// portal. A Catalog is built once at startup and is read-only afterwards, so
// it can be shared freely between the dispatcher and the booking engine.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownVenue is returned when a venue id or short name is not in the catalog.
	ErrUnknownVenue = errors.New("unknown venue")

	// ErrUnknownUsageType is returned when a usage-type label is not in the catalog.
	ErrUnknownUsageType = errors.New("unknown usage type")
)

// Venue is one bookable facility.
type Venue struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// FacilityType is the option value of the portal's facility-type selector.
	FacilityType string `yaml:"facility_type"`
	// Location is the option value of the portal's location selector.
	Location string `yaml:"location"`
}

// Catalog indexes venues by id and by short name, and usage-type labels by
// their portal option value.
type Catalog struct {
	venues     []Venue
	byID       map[int]Venue
	byName     map[string]Venue
	usageTypes map[string]string
}

// New builds a catalog, rejecting duplicate ids or names and empty selector keys.
// Short names are matched case-insensitively, so "gym" and "Gym" collide.
func New(venues []Venue, usageTypes map[string]string) (*Catalog, error) {
	c := &Catalog{
		venues:     make([]Venue, 0, len(venues)),
		byID:       make(map[int]Venue, len(venues)),
		byName:     make(map[string]Venue, len(venues)),
		usageTypes: make(map[string]string, len(usageTypes)),
	}

	for _, v := range venues {
		if v.ID <= 0 {
			return nil, fmt.Errorf("venue %q: id must be positive", v.Name)
		}
		if strings.TrimSpace(v.Name) == "" {
			return nil, fmt.Errorf("venue %d: name is required", v.ID)
		}
		if v.FacilityType == "" || v.Location == "" {
			return nil, fmt.Errorf("venue %s: facility_type and location are required", v.Name)
		}
		if _, dup := c.byID[v.ID]; dup {
			return nil, fmt.Errorf("duplicate venue id %d", v.ID)
		}
		key := normalize(v.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("duplicate venue name %q", v.Name)
		}
		c.byID[v.ID] = v
		c.byName[key] = v
		c.venues = append(c.venues, v)
	}

	for label, key := range usageTypes {
		if label == "" || key == "" {
			return nil, fmt.Errorf("usage type %q: label and key are required", label)
		}
		c.usageTypes[label] = key
	}

	sort.Slice(c.venues, func(i, j int) bool { return c.venues[i].ID < c.venues[j].ID })
	return c, nil
}

// file is the on-disk shape of a catalog override.
type file struct {
	Venues     []Venue           `yaml:"venues"`
	UsageTypes map[string]string `yaml:"usage_types"`
}

// Load reads a catalog from a YAML file. Sections left out of the file fall
// back to the built-in tables.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	if len(f.Venues) == 0 {
		f.Venues = defaultVenues
	}
	if len(f.UsageTypes) == 0 {
		f.UsageTypes = defaultUsageTypes
	}

	cat, err := New(f.Venues, f.UsageTypes)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return cat, nil
}

// VenueByID returns the venue with the given id.
func (c *Catalog) VenueByID(id int) (Venue, error) {
	v, ok := c.byID[id]
	if !ok {
		return Venue{}, fmt.Errorf("%w: id %d", ErrUnknownVenue, id)
	}
	return v, nil
}

// VenueByName resolves a short name such as "SR1" or "Gym".
func (c *Catalog) VenueByName(name string) (Venue, error) {
	v, ok := c.byName[normalize(name)]
	if !ok {
		return Venue{}, fmt.Errorf("%w: %s", ErrUnknownVenue, name)
	}
	return v, nil
}

// Venues returns all venues ordered by id.
func (c *Catalog) Venues() []Venue {
	out := make([]Venue, len(c.venues))
	copy(out, c.venues)
	return out
}

// Names returns the venue short names ordered by id.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.venues))
	for i, v := range c.venues {
		names[i] = v.Name
	}
	return names
}

// UsageType returns the portal option value for a usage-type label.
func (c *Catalog) UsageType(label string) (string, error) {
	key, ok := c.usageTypes[label]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownUsageType, label)
	}
	return key, nil
}

// UsageTypes returns the known usage-type labels, sorted.
func (c *Catalog) UsageTypes() []string {
	labels := make([]string, 0, len(c.usageTypes))
	for label := range c.usageTypes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
