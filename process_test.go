// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPredecessorListParsing(t *testing.T) {
	chk := require.New(t)

	n := ProcessNode{Predecessors: "S1;S2; S3 ;"}
	chk.Equal([]string{"S1", "S2", "S3"}, n.PredecessorList())

	n = ProcessNode{Predecessors: ""}
	chk.Empty(n.PredecessorList())
}

func TestToolListDecodesYAMLSequence(t *testing.T) {
	chk := require.New(t)
	var n ProcessNode
	chk.NoError(yaml.Unmarshal([]byte(`
step_id: S1
task_name: fit bearing
op_type: A
std_duration: 12
work_load_score: 4
required_workers: 1
required_tools:
  - press
  - press
  - gauge
`), &n))
	chk.Equal(ToolList{"press", "press", "gauge"}, n.RequiredTools)
}

func TestToolListDecodesSemicolonString(t *testing.T) {
	chk := require.New(t)
	var n ProcessNode
	chk.NoError(yaml.Unmarshal([]byte(`
step_id: S1
task_name: fit bearing
op_type: A
std_duration: 12
work_load_score: 4
required_workers: 1
required_tools: "press; gauge"
`), &n))
	chk.Equal(ToolList{"press", "gauge"}, n.RequiredTools)
}

func TestToolListDecodesJSONForms(t *testing.T) {
	chk := require.New(t)

	var fromArray ToolList
	chk.NoError(json.Unmarshal([]byte(`["press","gauge"]`), &fromArray))
	chk.Equal(ToolList{"press", "gauge"}, fromArray)

	var fromString ToolList
	chk.NoError(json.Unmarshal([]byte(`"press;gauge"`), &fromString))
	chk.Equal(ToolList{"press", "gauge"}, fromString)

	chk.Error(json.Unmarshal([]byte(`42`), &fromString))
}

func TestProcessIntrospection(t *testing.T) {
	chk := require.New(t)
	def := defOf(
		node("S1", ""),
		node("S2", "S1", func(n *ProcessNode) {
			n.OpType = OpMeasurement
			n.ReworkProb = 0.2
			n.WorkLoadScore = 8
			n.RequiredTools = ToolList{"gauge"}
		}),
		node("S3", "S2", func(n *ProcessNode) {
			n.StdDuration = 20
			n.RequiredTools = ToolList{"press", "gauge"}
		}),
	)

	chk.Equal(40.0, def.TotalStdDuration())

	m := def.MeasurementNodes()
	chk.Len(m, 1)
	chk.Equal("S2", m[0].StepID)
	chk.True(m[0].CanTriggerRework())

	high := def.HighLoadNodes(7)
	chk.Len(high, 1)
	chk.Equal("S2", high[0].StepID)

	tools := def.AllTools()
	chk.Len(tools, 2)
	chk.Contains(tools, "press")
	chk.Contains(tools, "gauge")

	chk.NotNil(def.Node("S3"))
	chk.Nil(def.Node("S9"))
}
