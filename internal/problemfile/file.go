// Package problemfile reads temporal HTN problems written in YAML and
// builds them into htn.Problem values.
package problemfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownReference is returned when a name does not resolve to a
	// declared type, object, symbol, label or action.
	ErrUnknownReference = errors.New("unknown reference")
	// ErrMalformed is returned for syntactically invalid expressions.
	ErrMalformed = errors.New("malformed expression")
)

// TypeDecl declares a type; Parent is optional.
type TypeDecl struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent,omitempty"`
}

// ObjectDecl declares a variable or a constant of a given type.
type ObjectDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// StateVariableDecl declares a state-variable symbol and its value type:
// boolean, integer or a declared type.
type StateVariableDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// Assertion is a condition or an effect: "sv: at(?r, ?l)", a value, and
// optional start and end timepoint expressions. A missing interval is a
// fresh one.
type Assertion struct {
	SV    string `yaml:"sv"`
	Value string `yaml:"value,omitempty"`
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`
}

// ActionDecl declares a primitive task.
type ActionDecl struct {
	Name         string      `yaml:"name"`
	Params       []string    `yaml:"params,omitempty"`
	Duration     string      `yaml:"duration,omitempty"`
	MinDuration  string      `yaml:"min_duration,omitempty"`
	Constraints  []string    `yaml:"constraints,omitempty"`
	Conditions   []Assertion `yaml:"conditions,omitempty"`
	Effects      []Assertion `yaml:"effects,omitempty"`
	DiracAtStart []Assertion `yaml:"dirac_at_start,omitempty"`
	DiracAtEnd   []Assertion `yaml:"dirac_at_end,omitempty"`
}

// TaskDecl declares a compound task.
type TaskDecl struct {
	Name   string   `yaml:"name"`
	Params []string `yaml:"params,omitempty"`
}

// Subtask is one labelled occurrence in a network, e.g.
// "label: l1, task: move(?r, ?from, ?to)".
type Subtask struct {
	Label string `yaml:"label"`
	Task  string `yaml:"task"`
}

// NetworkDecl is a labelled task network with temporal constraints such as
// "l1.end <= l2.start".
type NetworkDecl struct {
	Tasks       []Subtask `yaml:"tasks"`
	Constraints []string  `yaml:"constraints,omitempty"`
}

// MethodDecl declares a decomposition of Task into Subtasks. Name is
// optional; unnamed methods are numbered by the session.
type MethodDecl struct {
	Name        string      `yaml:"name,omitempty"`
	Task        string      `yaml:"task"`
	Subtasks    NetworkDecl `yaml:"subtasks"`
	Constraints []string    `yaml:"constraints,omitempty"`
	Conditions  []Assertion `yaml:"conditions,omitempty"`
}

// File is the YAML form of a problem.
type File struct {
	Name           string              `yaml:"name,omitempty"`
	Domain         string              `yaml:"domain,omitempty"`
	Types          []TypeDecl          `yaml:"types,omitempty"`
	Variables      []ObjectDecl        `yaml:"variables,omitempty"`
	Timepoints     []string            `yaml:"timepoints,omitempty"`
	Constants      []ObjectDecl        `yaml:"constants,omitempty"`
	StateVariables []StateVariableDecl `yaml:"state_variables,omitempty"`
	Actions        []ActionDecl        `yaml:"actions,omitempty"`
	Tasks          []TaskDecl          `yaml:"tasks,omitempty"`
	Methods        []MethodDecl        `yaml:"methods,omitempty"`
	InitialState   []Assertion         `yaml:"initial_state,omitempty"`
	Goal           *NetworkDecl        `yaml:"goal,omitempty"`
}

// Parse decodes a problem file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing problem file: %w", err)
	}
	return &f, nil
}

// Load reads and decodes the problem file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading a user-specified problem file
	if err != nil {
		return nil, fmt.Errorf("reading problem file %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
