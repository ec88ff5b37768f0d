package hrstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stafflane/hr-copilot/internal/domain"
)

func newSeededDirectory(t *testing.T) *SQLiteDirectory {
	t.Helper()
	d, err := OpenSQLite(filepath.Join(t.TempDir(), "hr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.Seed(context.Background()))
	return d
}

func TestSeedIsIdempotent(t *testing.T) {
	d := newSeededDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.Seed(ctx))

	all, err := d.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
}

func TestFindByID(t *testing.T) {
	d := newSeededDirectory(t)
	ctx := context.Background()

	emp, err := d.FindByID(ctx, "E003")
	require.NoError(t, err)
	require.Equal(t, "Lena Fischer", emp.Name)
	require.Equal(t, "E002", emp.ManagerID)
	require.False(t, emp.JoiningDate.IsZero())

	_, err = d.FindByID(ctx, "E999")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestFindByManager(t *testing.T) {
	d := newSeededDirectory(t)
	ctx := context.Background()

	reports, err := d.FindByManager(ctx, "E002")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, rep := range reports {
		require.Equal(t, "E002", rep.ManagerID)
	}

	reports, err = d.FindByManager(ctx, "E003")
	require.NoError(t, err)
	require.Empty(t, reports, "an individual contributor has no reports")
}

func TestAttendanceByEmployeeAndRange(t *testing.T) {
	d := newSeededDirectory(t)
	ctx := context.Background()
	now := time.Now().UTC()

	recs, err := d.AttendanceByEmployeeAndRange(ctx, "E003", now.AddDate(0, 0, -10), now)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	for _, rec := range recs {
		require.Equal(t, "E003", rec.EmployeeID)
		require.Equal(t, "present", rec.Status)
	}

	recs, err = d.AttendanceByEmployeeAndRange(ctx, "E003", now.AddDate(0, 0, 1), now.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestLeaveBalancesByEmployee(t *testing.T) {
	d := newSeededDirectory(t)

	balances, err := d.LeaveBalancesByEmployee(context.Background(), "E004")
	require.NoError(t, err)
	require.Len(t, balances, 3)

	byType := make(map[string]domain.LeaveBalance, len(balances))
	for _, b := range balances {
		byType[b.LeaveType] = b
	}
	require.Equal(t, 8, byType["casual"].Remaining())
	require.Equal(t, 9, byType["sick"].Remaining())
	require.Equal(t, 15, byType["earned"].Remaining())
}

func TestReviewsByEmployee(t *testing.T) {
	d := newSeededDirectory(t)

	reviews, err := d.ReviewsByEmployee(context.Background(), "E005")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.InDelta(t, 4.1, reviews[0].Rating, 0.001)
	require.NotEmpty(t, reviews[0].Feedback)
}

func TestMemoryAndSQLiteDirectoriesAgree(t *testing.T) {
	sqlDir := newSeededDirectory(t)
	ctx := context.Background()

	mem := NewMemoryDirectory()
	all, err := sqlDir.ListAll(ctx)
	require.NoError(t, err)
	for _, emp := range all {
		mem.AddEmployee(emp)
	}

	memAll, err := mem.ListAll(ctx)
	require.NoError(t, err)
	require.Equal(t, all, memAll)

	sqlReports, err := sqlDir.FindByManager(ctx, "E001")
	require.NoError(t, err)
	memReports, err := mem.FindByManager(ctx, "E001")
	require.NoError(t, err)
	require.ElementsMatch(t, sqlReports, memReports)
}
