package workflow

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	ExampleGraphName = "example"

	exampleMaxSteps = 3
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ExampleState struct {
	Messages       []Message `json:"messages"`
	StepCount      int       `json:"step_count"`
	ShouldContinue bool      `json:"should_continue"`
}

// ExampleUpdate is a partial ExampleState: messages are appended, the
// other fields overwrite only when set.
type ExampleUpdate struct {
	Messages       []Message `json:"messages,omitempty"`
	StepCount      *int      `json:"step_count,omitempty"`
	ShouldContinue *bool     `json:"should_continue,omitempty"`
}

func reduceExample(state ExampleState, update ExampleUpdate) ExampleState {
	if len(update.Messages) > 0 {
		messages := make([]Message, 0, len(state.Messages)+len(update.Messages))
		messages = append(messages, state.Messages...)
		state.Messages = append(messages, update.Messages...)
	}
	if update.StepCount != nil {
		state.StepCount = *update.StepCount
	}
	if update.ShouldContinue != nil {
		state.ShouldContinue = *update.ShouldContinue
	}
	return state
}

// ExampleInput is the initial update used to kick off the example graph.
func ExampleInput(content string) ExampleUpdate {
	step, cont := 0, true
	return ExampleUpdate{
		Messages:       []Message{{Role: "user", Content: content}},
		StepCount:      &step,
		ShouldContinue: &cont,
	}
}

// NewExampleGraph builds input -> process (repeated while steps remain) ->
// output.
func NewExampleGraph(cp Checkpointer, logger *slog.Logger) (*Graph[ExampleState, ExampleUpdate], error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("graph", ExampleGraphName))

	input := func(_ context.Context, s ExampleState) (ExampleUpdate, error) {
		log.Info("input node: processing input")
		step, cont := s.StepCount+1, true
		return ExampleUpdate{
			Messages:       []Message{{Role: "system", Content: "Input received and validated"}},
			StepCount:      &step,
			ShouldContinue: &cont,
		}, nil
	}

	process := func(_ context.Context, s ExampleState) (ExampleUpdate, error) {
		log.Info("process node", slog.Int("step", s.StepCount))
		step := s.StepCount + 1
		cont := step < exampleMaxSteps
		return ExampleUpdate{
			Messages:       []Message{{Role: "assistant", Content: fmt.Sprintf("Processing complete (step %d)", step)}},
			StepCount:      &step,
			ShouldContinue: &cont,
		}, nil
	}

	output := func(_ context.Context, s ExampleState) (ExampleUpdate, error) {
		log.Info("output node: finalizing", slog.Int("steps", s.StepCount))
		return ExampleUpdate{
			Messages: []Message{{Role: "assistant", Content: fmt.Sprintf("Workflow complete after %d steps", s.StepCount)}},
		}, nil
	}

	shouldContinue := func(s ExampleState) string {
		if s.ShouldContinue {
			return "process"
		}
		return "output"
	}

	return NewBuilder[ExampleState, ExampleUpdate](reduceExample).
		AddNode("input", input).
		AddNode("process", process).
		AddNode("output", output).
		AddEdge(Start, "input").
		AddConditionalEdges("input", shouldContinue).
		AddConditionalEdges("process", shouldContinue).
		AddEdge("output", End).
		Compile(cp, WithLogger(logger))
}
