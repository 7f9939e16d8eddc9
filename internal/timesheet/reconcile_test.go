package timesheet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReconcile_MergesNonContiguousBlocks(t *testing.T) {
	projects, err := fold(t, `8/10/2024,Alpha,40,Design,9:00 AM,10:00 AM,01:00:00
8/10/2024,Beta,20,Review,10:00 AM,10:30 AM,00:30:00
8/10/2024,Alpha,40,Build,11:00 AM,11:45 AM,00:45:00
`)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	require.Equal(t, projects[0].ID, projects[2].ID)

	merged := Reconcile(projects)
	require.Len(t, merged, 2)

	alpha := merged[0]
	require.Equal(t, "Alpha", alpha.Name)
	require.Equal(t, int64(105*60000), alpha.DurationMS)
	require.Equal(t, 70.0, alpha.TotalPay)
	require.Len(t, alpha.Tasks, 2)
	require.Equal(t, "Design", alpha.Tasks[0].Name)
	require.Equal(t, "Build", alpha.Tasks[1].Name)

	require.Equal(t, "Beta", merged[1].Name)
}

func TestReconcile_OrdersByDate(t *testing.T) {
	projects, err := fold(t, `8/12/2024,Late,10,A,9:00 AM,9:30 AM,00:30:00
8/10/2024,Early,10,B,9:00 AM,9:30 AM,00:30:00
8/12/2024,Also Late,10,C,10:00 AM,10:30 AM,00:30:00
8/11/2024,Middle,10,D,9:00 AM,9:30 AM,00:30:00
`)
	require.NoError(t, err)

	merged := Reconcile(projects)
	names := make([]string, len(merged))
	for i, p := range merged {
		names[i] = p.Name
	}
	require.Equal(t, []string{"Early", "Middle", "Late", "Also Late"}, names)
}

func TestReconcile_DropsRepeatedTask(t *testing.T) {
	block := `8/10/2024,Alpha,40,Design,9:00 AM,10:00 AM,01:00:00
`
	projects, err := fold(t, block+block)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	merged := Reconcile(projects)
	require.Len(t, merged, 1)
	require.Len(t, merged[0].Tasks, 1)
	require.Equal(t, int64(3600000), merged[0].DurationMS)
	require.Equal(t, 40.0, merged[0].TotalPay)
}

func TestReconcile_Idempotent(t *testing.T) {
	body := `8/10/2024,Alpha,40,Design,9:00 AM,10:00 AM,01:00:00
8/11/2024,Beta,20,Review,10:00 AM,10:30 AM,00:30:00
8/10/2024,Alpha,40,Build,11:00 AM,11:45 AM,00:45:00
`
	first, err := fold(t, body)
	require.NoError(t, err)
	second, err := fold(t, body)
	require.NoError(t, err)

	require.Equal(t, Reconcile(first), Reconcile(second))
}

func TestReconcile_Empty(t *testing.T) {
	require.Empty(t, Reconcile(nil))
}
