package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/crawlytics/crawlytics/internal/model"
)

// recordingStep records its execution order and optionally fails.
type recordingStep struct {
	name string
	err  error
	log  *[]string
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Do(_ context.Context, _ *model.Analysis) error {
	*s.log = append(*s.log, s.name)
	return s.err
}

// TestPipelineExecute tests sequential execution and error handling.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var log []string
		p := New()
		p.AddSteps(
			&recordingStep{name: "first", log: &log},
			&recordingStep{name: "second", log: &log},
			&recordingStep{name: "third", log: &log},
		)

		analysis := model.NewAnalysis("test.log")
		if err := p.Execute(context.Background(), analysis); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		want := []string{"first", "second", "third"}
		if len(log) != len(want) {
			t.Fatalf("executed %v, want %v", log, want)
		}
		for i := range want {
			if log[i] != want[i] {
				t.Errorf("step %d = %q, want %q", i, log[i], want[i])
			}
		}
		if len(analysis.StepsRun) != 3 {
			t.Errorf("StepsRun = %v", analysis.StepsRun)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		var log []string
		boom := errors.New("boom")
		p := New()
		p.AddSteps(
			&recordingStep{name: "first", log: &log},
			&recordingStep{name: "broken", err: boom, log: &log},
			&recordingStep{name: "never", log: &log},
		)

		analysis := model.NewAnalysis("test.log")
		if err := p.Execute(context.Background(), analysis); !errors.Is(err, boom) {
			t.Fatalf("Execute() error = %v, want boom", err)
		}
		if len(log) != 2 {
			t.Errorf("executed %v, want first and broken only", log)
		}
		if analysis.ErrorMessage != "boom" {
			t.Errorf("ErrorMessage = %q", analysis.ErrorMessage)
		}
	})

	t.Run("continue on error runs remaining steps", func(t *testing.T) {
		t.Parallel()

		var log []string
		p := New(WithContinueOnError(true))
		p.AddSteps(
			&recordingStep{name: "broken", err: errors.New("boom"), log: &log},
			&recordingStep{name: "after", log: &log},
		)

		analysis := model.NewAnalysis("test.log")
		if err := p.Execute(context.Background(), analysis); err != nil {
			t.Fatalf("Execute() error = %v, want nil", err)
		}
		if len(log) != 2 {
			t.Errorf("executed %v, want both steps", log)
		}
		if analysis.ErrorMessage == "" {
			t.Error("error must be recorded on the analysis")
		}
	})

	t.Run("respects cancellation between steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var log []string
		p := New()
		p.AddStep(&recordingStep{name: "never", log: &log})

		if err := p.Execute(ctx, model.NewAnalysis("test.log")); !errors.Is(err, context.Canceled) {
			t.Fatalf("Execute() error = %v, want context.Canceled", err)
		}
		if len(log) != 0 {
			t.Errorf("no step should run after cancellation, got %v", log)
		}
	})
}
