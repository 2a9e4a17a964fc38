package datastore

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// LabelSet is a set of labels on an address ref.
type LabelSet struct {
	elements map[string]struct{}
}

// NewLabelSet creates a LabelSet holding labels.
func NewLabelSet(labels ...string) LabelSet {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}

	return LabelSet{
		elements: set,
	}
}

// Add inserts one or more labels into the set.
func (s *LabelSet) Add(labels ...string) {
	if s.elements == nil {
		s.elements = make(map[string]struct{})
	}
	for _, l := range labels {
		s.elements[l] = struct{}{}
	}
}

// Remove deletes a label from the set, if it exists.
func (s *LabelSet) Remove(label string) {
	delete(s.elements, label)
}

// Contains checks if the set contains the given label.
func (s *LabelSet) Contains(label string) bool {
	_, ok := s.elements[label]

	return ok
}

// String returns the labels sorted and joined by spaces.
func (s *LabelSet) String() string {
	labels := s.List()
	if len(labels) == 0 {
		return ""
	}

	return strings.Join(labels, " ")
}

// List returns the labels as a sorted slice of strings.
func (s *LabelSet) List() []string {
	if len(s.elements) == 0 {
		return []string{}
	}

	return slices.Sorted(maps.Keys(s.elements))
}

// Equal checks if two LabelSets are equal.
func (s *LabelSet) Equal(other LabelSet) bool {
	return maps.Equal(s.elements, other.elements)
}

// Length returns the number of labels in the set.
func (s *LabelSet) Length() int {
	return len(s.elements)
}

// IsEmpty checks if the LabelSet is empty.
func (s *LabelSet) IsEmpty() bool {
	return s.Length() == 0
}

// Clone creates a copy of the LabelSet.
func (s *LabelSet) Clone() LabelSet {
	return LabelSet{
		elements: maps.Clone(s.elements),
	}
}

// MarshalJSON encodes the set as a sorted JSON array.
func (s LabelSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON decodes a JSON array of strings.
func (s *LabelSet) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}

	*s = NewLabelSet(labels...)

	return nil
}

// MarshalYAML encodes the set as a sorted YAML sequence.
func (s LabelSet) MarshalYAML() (any, error) {
	return s.List(), nil
}

// UnmarshalYAML decodes a YAML sequence of strings.
func (s *LabelSet) UnmarshalYAML(node *yaml.Node) error {
	var labels []string
	if err := node.Decode(&labels); err != nil {
		return err
	}
	*s = NewLabelSet(labels...)

	return nil
}
