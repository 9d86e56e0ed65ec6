package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"istc-sms/backend/internal/model"
	"istc-sms/backend/internal/repository"
	"istc-sms/backend/internal/testutil"
	pkgerrors "istc-sms/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	sub := fx.AddSubject(t, db, "CS101", 100)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.FailedSubject.Insert(ctx, &model.FailedSubject{
			StudentID: fx.Student.StudentID, SubjectID: sub.SubjectID, SemesterID: fx.Semester.SemesterID,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	entries, err := repo.FailedSubject.ListByStudent(ctx, fx.Student.StudentID)
	require.NoError(t, err)
	assert.Empty(t, entries, "rolled back insert must not persist")
}

func TestTransaction_Commit(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	sub := fx.AddSubject(t, db, "CS101", 100)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	txRepo := repo.WithTx(tx)

	require.NoError(t, txRepo.FailedSubject.Insert(ctx, &model.FailedSubject{
		StudentID: fx.Student.StudentID, SubjectID: sub.SubjectID, SemesterID: fx.Semester.SemesterID,
	}))
	require.NoError(t, tx.Commit().Error)

	entries, err := repo.FailedSubject.ListByStudent(ctx, fx.Student.StudentID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CS101", entries[0].Subject.Code)
}

func TestWithTx_NilKeepsAggregate(t *testing.T) {
	repo := repository.NewRepository(nil)
	assert.Same(t, repo, repo.WithTx(nil))

	tx, err := repo.BeginTx(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, tx)
}

// ═══════════════════════════════════════════════════════════
// Test: Result optimistic lock
// ═══════════════════════════════════════════════════════════

func TestResult_ApplyGrace_VersionIncrement(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	sub := fx.AddSubject(t, db, "CS101", 100)
	res := testutil.AddResult(t, db, fx.Student.StudentID, sub.SubjectID, "38", "E")
	repo := repository.NewRepository(db)
	ctx := context.Background()

	loaded, err := repo.Result.GetByKey(ctx, fx.Student.StudentID, sub.SubjectID)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Version)

	err = repo.Result.ApplyGrace(ctx, loaded, decimal.NewFromInt(41), "D", "T-2")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Version)

	final, err := repo.Result.GetByID(ctx, res.ResultID)
	require.NoError(t, err)
	assert.True(t, final.OverallMark.Equal(decimal.NewFromInt(41)), "mark %s", final.OverallMark)
	assert.Equal(t, "D", final.Grade)
	assert.Equal(t, 2, final.Version)
	require.NotNil(t, final.UpdatedBy)
	assert.Equal(t, "T-2", *final.UpdatedBy)
}

func TestResult_ApplyGrace_ConflictDetected(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	sub := fx.AddSubject(t, db, "CS101", 100)
	testutil.AddResult(t, db, fx.Student.StudentID, sub.SubjectID, "38", "E")
	repo := repository.NewRepository(db)
	ctx := context.Background()

	first, err := repo.Result.GetByKey(ctx, fx.Student.StudentID, sub.SubjectID)
	require.NoError(t, err)
	stale, err := repo.Result.GetByKey(ctx, fx.Student.StudentID, sub.SubjectID)
	require.NoError(t, err)

	require.NoError(t, repo.Result.ApplyGrace(ctx, first, decimal.NewFromInt(40), "D", "T-1"))

	err = repo.Result.ApplyGrace(ctx, stale, decimal.NewFromInt(42), "D", "T-1")
	assert.ErrorIs(t, err, pkgerrors.ErrOptimisticLock)
}

func TestResult_Create_DuplicateKey(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	sub := fx.AddSubject(t, db, "CS101", 100)
	testutil.AddResult(t, db, fx.Student.StudentID, sub.SubjectID, "55", "C+")
	repo := repository.NewRepository(db)

	err := repo.Result.Create(context.Background(), &model.Result{
		StudentID: fx.Student.StudentID, SubjectID: sub.SubjectID,
		OverallMark: decimal.NewFromInt(60), Grade: "B", TeacherID: "T-1",
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestResult_List_Filters(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	s1 := fx.AddSubject(t, db, "CS101", 100)
	s2 := fx.AddSubject(t, db, "CS102", 100)
	other := fx.AddStudent(t, db, "CS-002")

	testutil.AddResult(t, db, fx.Student.StudentID, s1.SubjectID, "38", "E")
	testutil.AddResult(t, db, fx.Student.StudentID, s2.SubjectID, "72", "B+")
	r3 := &model.Result{StudentID: other.StudentID, SubjectID: s1.SubjectID,
		OverallMark: decimal.NewFromInt(91), Grade: "A+", TeacherID: "T-9"}
	require.NoError(t, db.Create(r3).Error)

	repo := repository.NewRepository(db)
	ctx := context.Background()

	all, total, err := repo.Result.List(ctx, repository.ResultFilter{SemesterID: fx.Semester.SemesterID}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	mine, total, err := repo.Result.List(ctx, repository.ResultFilter{StudentID: fx.Student.StudentID}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, r := range mine {
		assert.Equal(t, fx.Student.StudentID, r.StudentID)
		require.NotNil(t, r.Subject)
	}

	byTeacher, total, err := repo.Result.List(ctx, repository.ResultFilter{TeacherID: "T-9"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, r3.ResultID, byTeacher[0].ResultID)

	page, total, err := repo.Result.List(ctx, repository.ResultFilter{}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 1)

	all, err = repo.Result.ListAllWithSubject(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	failing := 0
	for _, r := range all {
		require.NotNil(t, r.Subject)
		assert.Equal(t, fx.Semester.SemesterID, r.Subject.SemesterID)
		if r.Grade == "E" {
			failing++
		}
	}
	assert.Equal(t, 1, failing)
}

// ═══════════════════════════════════════════════════════════
// Test: Grace pool conditional consume
// ═══════════════════════════════════════════════════════════

func TestGracePool_Consume(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	pool := testutil.AddPool(t, db, fx.Student.StudentID, fx.Semester.SemesterID, 8, 0)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	ok, err := repo.GracePool.Consume(ctx, pool.GracePoolID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.GracePool.Consume(ctx, pool.GracePoolID, 5)
	require.NoError(t, err)
	assert.False(t, ok, "5 + 5 exceeds 8")

	ok, err = repo.GracePool.Consume(ctx, pool.GracePoolID, 3)
	require.NoError(t, err)
	assert.True(t, ok, "exactly exhausting the pool is allowed")

	got, err := repo.GracePool.GetByStudentSemester(ctx, fx.Student.StudentID, fx.Semester.SemesterID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.UsedGrace)
	assert.Equal(t, 0, got.Available())
}

func TestGracePool_UniquePerStudentSemester(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	testutil.AddPool(t, db, fx.Student.StudentID, fx.Semester.SemesterID, 5, 0)
	repo := repository.NewRepository(db)

	err := repo.GracePool.Create(context.Background(), &model.GracePool{
		StudentID: fx.Student.StudentID, SemesterID: fx.Semester.SemesterID, TotalGrace: 5,
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestGracePool_ListInconsistent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	other := fx.AddStudent(t, db, "CS-002")
	testutil.AddPool(t, db, fx.Student.StudentID, fx.Semester.SemesterID, 5, 2)
	bad := testutil.AddPool(t, db, other.StudentID, fx.Semester.SemesterID, 5, 0)
	require.NoError(t, db.Model(&model.GracePool{}).
		Where("grace_pool_id = ?", bad.GracePoolID).
		Update("used_grace", 7).Error)

	pools, err := repository.NewRepository(db).GracePool.ListInconsistent(context.Background())
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, bad.GracePoolID, pools[0].GracePoolID)
}

// ═══════════════════════════════════════════════════════════
// Test: Failed-subjects ledger
// ═══════════════════════════════════════════════════════════

func TestFailedSubject_InsertIdempotentAndDelete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	sub := fx.AddSubject(t, db, "CS101", 100)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	entry := func() *model.FailedSubject {
		return &model.FailedSubject{StudentID: fx.Student.StudentID, SubjectID: sub.SubjectID, SemesterID: fx.Semester.SemesterID}
	}
	require.NoError(t, repo.FailedSubject.Insert(ctx, entry()))
	require.NoError(t, repo.FailedSubject.Insert(ctx, entry()))

	all, err := repo.FailedSubject.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	bySem, err := repo.FailedSubject.ListBySemester(ctx, fx.Semester.SemesterID)
	require.NoError(t, err)
	require.Len(t, bySem, 1)
	assert.Equal(t, "CS-001", bySem[0].Student.RollNo)

	require.NoError(t, repo.FailedSubject.Delete(ctx, fx.Student.StudentID, sub.SubjectID))
	all, err = repo.FailedSubject.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// ═══════════════════════════════════════════════════════════
// Test: Catalogue
// ═══════════════════════════════════════════════════════════

func TestSubject_IsReferenced(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	used := fx.AddSubject(t, db, "CS101", 100)
	free := fx.AddSubject(t, db, "CS102", 100)
	testutil.AddResult(t, db, fx.Student.StudentID, used.SubjectID, "60", "B")
	repo := repository.NewRepository(db)
	ctx := context.Background()

	ref, err := repo.Subject.IsReferenced(ctx, used.SubjectID)
	require.NoError(t, err)
	assert.True(t, ref)

	ref, err = repo.Subject.IsReferenced(ctx, free.SubjectID)
	require.NoError(t, err)
	assert.False(t, ref)

	subjects, err := repo.Subject.ListBySemester(ctx, fx.Semester.SemesterID)
	require.NoError(t, err)
	assert.Len(t, subjects, 2)

	byCode, err := repo.Subject.GetByCode(ctx, "CS102")
	require.NoError(t, err)
	assert.Equal(t, free.SubjectID, byCode.SubjectID)
}

func TestStudent_GetByRollNo(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	got, err := repo.Student.GetByRollNo(ctx, "CS-001")
	require.NoError(t, err)
	assert.Equal(t, fx.Student.StudentID, got.StudentID)

	_, err = repo.Student.GetByRollNo(ctx, "NOPE")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGraceApplication_ListByStudent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	sub := fx.AddSubject(t, db, "CS101", 100)
	res := testutil.AddResult(t, db, fx.Student.StudentID, sub.SubjectID, "38", "E")
	repo := repository.NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.GraceApplication.Create(ctx, &model.GraceApplication{
		StudentID: fx.Student.StudentID, SubjectID: sub.SubjectID, SemesterID: fx.Semester.SemesterID,
		ResultID: res.ResultID, GraceMarks: 3,
		PreviousMark: decimal.NewFromInt(38), NewMark: decimal.NewFromInt(41),
		PreviousGrade: "E", NewGrade: "D", ApprovedBy: "T-1",
	}))

	apps, err := repo.GraceApplication.ListByStudent(ctx, fx.Student.StudentID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, 3, apps[0].GraceMarks)
	assert.NotEmpty(t, apps[0].GraceApplicationID)
}
