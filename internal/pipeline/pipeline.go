// Package pipeline drives a research request through its processing stages.
// Each stage consumes jobs from its own queue, mutates request state, and
// returns the successor payload; the stage order lives in one transition
// table here, not in the stages themselves.
package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rafael/topic-research-back/internal/domain"
)

// Stage queue names, in pipeline order.
const (
	StageInputParse = "input_parse"
	StageDataGather = "data_gather"
	StageProcess    = "process"
	StagePersist    = "persist"
)

// Workflow log step names, as shown to users.
const (
	StepInputParse = "Input Parsing"
	StepDataGather = "Data Gathering"
	StepProcess    = "Processing"
	StepPersist    = "Persistence"
)

var stageOrder = []string{StageInputParse, StageDataGather, StageProcess, StagePersist}

var transitions = map[string]string{
	StageInputParse: StageDataGather,
	StageDataGather: StageProcess,
	StageProcess:    StagePersist,
}

// Stages returns all stage names in pipeline order.
func Stages() []string {
	return append([]string(nil), stageOrder...)
}

// Next returns the successor stage, or "" for the terminal stage.
func Next(stage string) string {
	return transitions[stage]
}

// StreamName builds the queue name for a stage, e.g. "research:input_parse".
func StreamName(prefix, stage string) string {
	if prefix == "" {
		prefix = "research"
	}
	return prefix + ":" + stage
}

// Handler processes one stage job. It returns the payload for the successor
// stage, or nil when the pipeline terminates at this stage (terminal stage
// reached, or the request was marked failed).
type Handler interface {
	Stage() string
	Handle(ctx context.Context, message domain.StageMessage) (json.RawMessage, error)
}
