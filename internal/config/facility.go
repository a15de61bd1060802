package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Facility describes the slots to create on first start. Explicit Slots win
// over the prefix/count pair.
type Facility struct {
	Name       string   `yaml:"name"`
	Slots      []string `yaml:"slots"`
	SlotPrefix string   `yaml:"slot_prefix"`
	SlotCount  int      `yaml:"slot_count"`
}

func DefaultFacility() *Facility {
	return &Facility{Name: "default", SlotPrefix: "P", SlotCount: 25}
}

// LoadFacility reads a facility file. An empty path yields the default layout.
func LoadFacility(path string) (*Facility, error) {
	if path == "" {
		return DefaultFacility(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facility file: %w", err)
	}
	return ParseFacility(raw)
}

func ParseFacility(raw []byte) (*Facility, error) {
	var f Facility
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse facility file: %w", err)
	}
	if len(f.Slots) == 0 && f.SlotCount <= 0 {
		return nil, fmt.Errorf("facility '%s' lists no slots", f.Name)
	}
	if f.SlotCount < 0 {
		return nil, fmt.Errorf("facility '%s': slot_count must not be negative", f.Name)
	}
	return &f, nil
}

// SlotNumbers expands the layout into upper-cased slot labels.
func (f *Facility) SlotNumbers() []string {
	if len(f.Slots) > 0 {
		numbers := make([]string, 0, len(f.Slots))
		for _, s := range f.Slots {
			if n := strings.ToUpper(strings.TrimSpace(s)); n != "" {
				numbers = append(numbers, n)
			}
		}
		return numbers
	}
	prefix := strings.ToUpper(strings.TrimSpace(f.SlotPrefix))
	numbers := make([]string, 0, f.SlotCount)
	for i := 1; i <= f.SlotCount; i++ {
		numbers = append(numbers, fmt.Sprintf("%s%03d", prefix, i))
	}
	return numbers
}
