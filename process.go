// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// OpType classifies a process step.
type OpType string

const (
	// OpHandling is a pick/place or material-handling step.
	OpHandling OpType = "H"
	// OpAssembly is a part-assembly step.
	OpAssembly OpType = "A"
	// OpMeasurement is an inspection step; the only type that can trigger
	// rework.
	OpMeasurement OpType = "M"
	// OpTooling is a tool-use or adjustment step.
	OpTooling OpType = "T"
	// OpDataRecording is a documentation step.
	OpDataRecording OpType = "D"
)

func (t OpType) valid() bool {
	switch t {
	case OpHandling, OpAssembly, OpMeasurement, OpTooling, OpDataRecording:
		return true
	}
	return false
}

// ToolList is a list of equipment names. In serialized process definitions it
// may appear either as a sequence or as a single semicolon-separated string;
// both decode to the same list. Names may repeat: each occurrence is an
// independent acquisition against that equipment's capacity.
type ToolList []string

// UnmarshalYAML accepts either a sequence of strings or a semicolon-separated
// scalar.
func (l *ToolList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = splitList(s)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = ToolList(items)
		return nil
	}
	return fmt.Errorf("required_tools: expected string or sequence, got %v", value.Kind)
}

// UnmarshalJSON accepts either an array of strings or a semicolon-separated
// string.
func (l *ToolList) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*l = ToolList(items)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("required_tools: expected string or array: %w", err)
	}
	*l = splitList(s)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ProcessNode is one step of the workflow. Nodes are immutable during a run.
type ProcessNode struct {
	StepID   string `json:"step_id" yaml:"step_id" mapstructure:"step_id"`
	TaskName string `json:"task_name" yaml:"task_name" mapstructure:"task_name"`
	OpType   OpType `json:"op_type" yaml:"op_type" mapstructure:"op_type"`

	// Predecessors is a semicolon-separated list of step ids that must
	// complete before this step becomes ready. Empty for root steps.
	Predecessors string `json:"predecessors" yaml:"predecessors" mapstructure:"predecessors"`

	// StdDuration and TimeVariance parameterize the normal distribution the
	// actual duration is drawn from, in minutes. Zero variance means the
	// duration is exactly StdDuration.
	StdDuration  float64 `json:"std_duration" yaml:"std_duration" mapstructure:"std_duration"`
	TimeVariance float64 `json:"time_variance" yaml:"time_variance" mapstructure:"time_variance"`

	// WorkLoadScore is the ergonomic load of the step on a 1..10 scale.
	WorkLoadScore int `json:"work_load_score" yaml:"work_load_score" mapstructure:"work_load_score"`

	// ReworkProb is the probability a completed execution of this step fails
	// inspection and must be redone. Meaningful only for OpMeasurement.
	ReworkProb float64 `json:"rework_prob" yaml:"rework_prob" mapstructure:"rework_prob"`

	RequiredWorkers int      `json:"required_workers" yaml:"required_workers" mapstructure:"required_workers"`
	RequiredTools   ToolList `json:"required_tools" yaml:"required_tools" mapstructure:"required_tools"`

	// Station is an opaque layout tag, passed through untouched.
	Station string `json:"station,omitempty" yaml:"station,omitempty" mapstructure:"station"`
}

// PredecessorList parses the Predecessors field into individual step ids.
func (n *ProcessNode) PredecessorList() []string {
	return splitList(n.Predecessors)
}

// CanTriggerRework reports whether this step can fail inspection.
func (n *ProcessNode) CanTriggerRework() bool {
	return n.OpType == OpMeasurement && n.ReworkProb > 0
}

// IsHighLoad reports whether the step's load meets the given threshold.
func (n *ProcessNode) IsHighLoad(threshold int) bool {
	return n.WorkLoadScore >= threshold
}

// ProcessDefinition is a named workflow of steps.
type ProcessDefinition struct {
	Name        string        `json:"name" yaml:"name" mapstructure:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Nodes       []ProcessNode `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
}

// Node returns the node with the given step id, or nil.
func (d *ProcessDefinition) Node(stepID string) *ProcessNode {
	for i := range d.Nodes {
		if d.Nodes[i].StepID == stepID {
			return &d.Nodes[i]
		}
	}
	return nil
}

// MeasurementNodes returns the steps that are inspections, in declaration
// order.
func (d *ProcessDefinition) MeasurementNodes() []*ProcessNode {
	var out []*ProcessNode
	for i := range d.Nodes {
		if d.Nodes[i].OpType == OpMeasurement {
			out = append(out, &d.Nodes[i])
		}
	}
	return out
}

// HighLoadNodes returns the steps whose load meets the threshold, in
// declaration order.
func (d *ProcessDefinition) HighLoadNodes(threshold int) []*ProcessNode {
	var out []*ProcessNode
	for i := range d.Nodes {
		if d.Nodes[i].IsHighLoad(threshold) {
			out = append(out, &d.Nodes[i])
		}
	}
	return out
}

// AllTools returns the set of equipment names referenced by any step.
func (d *ProcessDefinition) AllTools() map[string]struct{} {
	tools := make(map[string]struct{})
	for i := range d.Nodes {
		for _, tool := range d.Nodes[i].RequiredTools {
			tools[tool] = struct{}{}
		}
	}
	return tools
}

// TotalStdDuration sums the standard durations of all steps.
func (d *ProcessDefinition) TotalStdDuration() float64 {
	var total float64
	for i := range d.Nodes {
		total += d.Nodes[i].StdDuration
	}
	return total
}
