package checkpoint_test

import (
	"testing"

	"github.com/myrjola/gatehouse/internal/checkpoint"
	"github.com/stretchr/testify/require"
)

func TestRun_stageProgression(t *testing.T) {
	t.Parallel()

	run := checkpoint.NewRun()
	require.Equal(t, checkpoint.StageIntake, run.Stage())

	// No transition without the ID request.
	require.Empty(t, run.Advance())

	// Supervisor contact alone must not move the run out of intake.
	require.True(t, run.Mark(checkpoint.FlagSupervisorContacted))
	require.Empty(t, run.Advance())
	require.Equal(t, checkpoint.StageIntake, run.Stage())

	// Once the ID is requested, both transitions fire back to back because
	// the supervisor was already contacted.
	require.True(t, run.Mark(checkpoint.FlagAskedID))
	entered := run.Advance()
	require.Equal(t, []checkpoint.Stage{checkpoint.StageIDCheck, checkpoint.StageThreatItems}, entered)
	require.Equal(t, checkpoint.StageThreatItems, run.Stage())
	require.True(t, run.Flag(checkpoint.FlagExplainedThreat))
	require.True(t, run.Flag(checkpoint.FlagExplainedItems))

	require.True(t, run.BeginPersonSearch())
	require.Equal(t, checkpoint.StagePersonSearch, run.Stage())
	require.True(t, run.Flag(checkpoint.FlagDidPersonSearch))

	require.True(t, run.Finalize(checkpoint.ReasonCompleted))
	require.Equal(t, checkpoint.StageFinished, run.Stage())
}

func TestRun_idCheckHoldsWithoutSupervisor(t *testing.T) {
	t.Parallel()

	run := checkpoint.NewRun()
	run.Mark(checkpoint.FlagAskedID)
	require.Equal(t, []checkpoint.Stage{checkpoint.StageIDCheck}, run.Advance())

	// Still in id_check until the supervisor has been contacted.
	require.Empty(t, run.Advance())
	require.Equal(t, checkpoint.StageIDCheck, run.Stage())

	run.Mark(checkpoint.FlagSupervisorContacted)
	require.Equal(t, []checkpoint.Stage{checkpoint.StageThreatItems}, run.Advance())
}

func TestRun_finalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	run := checkpoint.NewRun()
	run.Mark(checkpoint.FlagAskedName)

	require.True(t, run.Finalize(checkpoint.ReasonDenied))
	flags := run.Flags()
	report := run.Report()

	require.False(t, run.Finalize(checkpoint.ReasonManualFinish))
	require.Equal(t, checkpoint.ReasonDenied, run.Reason())
	require.Equal(t, checkpoint.StageFinished, run.Stage())
	require.Equal(t, flags, run.Flags())
	require.Equal(t, report, run.Report())
}

func TestRun_flagsAreMonotonicAndFrozenAfterFinish(t *testing.T) {
	t.Parallel()

	run := checkpoint.NewRun()
	require.True(t, run.Mark(checkpoint.FlagAskedName))
	require.False(t, run.Mark(checkpoint.FlagAskedName), "second mark should report no change")
	require.True(t, run.Flag(checkpoint.FlagAskedName))

	run.Finalize(checkpoint.ReasonManualFinish)
	require.False(t, run.Mark(checkpoint.FlagAskedAge))
	require.False(t, run.Flag(checkpoint.FlagAskedAge))
	require.Empty(t, run.Advance())
	require.False(t, run.BeginPersonSearch())
}

func TestBuildReport(t *testing.T) {
	t.Parallel()

	t.Run("first three unmet items in checklist order", func(t *testing.T) {
		t.Parallel()
		run := checkpoint.NewRun()
		run.Mark(checkpoint.FlagAskedName)
		run.Mark(checkpoint.FlagAskedID)

		report := checkpoint.BuildReport(run.Flags())
		require.Len(t, report.Missed, 3)
		require.Equal(t, checkpoint.FlagAskedPurpose, report.Missed[0].Flag)
		require.Equal(t, checkpoint.FlagAskedAppointment, report.Missed[1].Flag)
		require.Equal(t, checkpoint.FlagAskedWho, report.Missed[2].Flag)
		for _, item := range report.Missed {
			require.NotEmpty(t, item.Label)
			require.NotEmpty(t, item.Example)
		}
	})

	t.Run("all covered", func(t *testing.T) {
		t.Parallel()
		run := checkpoint.NewRun()
		for _, item := range checkpoint.Checklist() {
			run.Mark(item.Flag)
		}
		report := checkpoint.BuildReport(run.Flags())
		require.True(t, report.AllCovered())
		require.Empty(t, report.Missed)
	})
}
