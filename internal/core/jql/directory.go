package jql

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var ErrUnknownAssignee = errors.New("unknown assignee")

// Person is one selectable assignee. Identity is the tracker's display
// name and is the only text that reaches a query.
type Person struct {
	Key      string `yaml:"key" json:"key"`
	Identity string `yaml:"identity" json:"identity"`
	Label    string `yaml:"label,omitempty" json:"label,omitempty"`
}

// Directory is the fixed lookup from assignee selector keys to tracker
// identities. It is read-only after construction.
type Directory struct {
	people map[string]Person
}

type directoryFile struct {
	Assignees []Person `yaml:"assignees"`
}

// NewDirectory builds a Directory, rejecting blank or duplicate keys.
func NewDirectory(people ...Person) (*Directory, error) {
	d := &Directory{people: make(map[string]Person, len(people))}
	for _, p := range people {
		if p.Key == "" || p.Identity == "" {
			return nil, fmt.Errorf("assignee entry needs key and identity: %+v", p)
		}
		if _, dup := d.people[p.Key]; dup {
			return nil, fmt.Errorf("duplicate assignee key %q", p.Key)
		}
		d.people[p.Key] = p
	}
	return d, nil
}

// ParseDirectory reads a YAML document of the form
//
//	assignees:
//	  - key: me
//	    identity: "Last, First"
func ParseDirectory(data []byte) (*Directory, error) {
	var f directoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing assignee directory: %w", err)
	}
	return NewDirectory(f.Assignees...)
}

// LoadDirectory reads the directory from a YAML file. An empty path yields
// an empty directory.
func LoadDirectory(path string) (*Directory, error) {
	if path == "" {
		return NewDirectory()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading assignee directory: %w", err)
	}
	return ParseDirectory(data)
}

// Resolve returns the tracker identity for key.
func (d *Directory) Resolve(key string) (string, error) {
	if d != nil {
		if p, ok := d.people[key]; ok {
			return p.Identity, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAssignee, key)
}

func (d *Directory) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.people[key]
	return ok
}

// People returns the entries sorted by key.
func (d *Directory) People() []Person {
	if d == nil {
		return nil
	}
	out := make([]Person, 0, len(d.people))
	for _, p := range d.people {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
