package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"istc-sms/backend/internal/model"
	"istc-sms/backend/internal/repository"
	pkgerrors "istc-sms/backend/pkg/errors"
)

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

func (m *mockSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	if semester.SemesterID == "" {
		semester.SemesterID = "sem-" + semester.Name
	}
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) List(_ context.Context) ([]model.Semester, error) {
	var result []model.Semester
	for _, s := range m.semesters {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Level < result[j].Level })
	return result, nil
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct {
	subjects map[string]*model.Subject
	results  *mockResultRepo
}

func newMockSubjectRepo(results *mockResultRepo) *mockSubjectRepo {
	return &mockSubjectRepo{subjects: make(map[string]*model.Subject), results: results}
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	if subject.SubjectID == "" {
		subject.SubjectID = "sub-" + subject.Code
	}
	m.subjects[subject.SubjectID] = subject
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) GetByCode(_ context.Context, code string) (*model.Subject, error) {
	for _, s := range m.subjects {
		if s.Code == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) ListBySemester(_ context.Context, semesterID string) ([]model.Subject, error) {
	var result []model.Subject
	for _, s := range m.subjects {
		if semesterID == "" || s.SemesterID == semesterID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockSubjectRepo) Update(_ context.Context, subject *model.Subject) error {
	cp := *subject
	m.subjects[subject.SubjectID] = &cp
	return nil
}

func (m *mockSubjectRepo) IsReferenced(_ context.Context, subjectID string) (bool, error) {
	for _, r := range m.results.results {
		if r.SubjectID == subjectID {
			return true, nil
		}
	}
	return false, nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	for _, s := range m.students {
		if s.RollNo == student.RollNo {
			return gorm.ErrDuplicatedKey
		}
	}
	if student.StudentID == "" {
		student.StudentID = "stu-" + student.RollNo
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByRollNo(_ context.Context, rollNo string) (*model.Student, error) {
	for _, s := range m.students {
		if s.RollNo == rollNo {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) ListBySemester(_ context.Context, semesterID string) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		if s.SemesterID == semesterID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RollNo < result[j].RollNo })
	return result, nil
}

// ── Mock ResultRepository ──

type mockResultRepo struct {
	results  map[string]*model.Result
	subjects *mockSubjectRepo
	seq      int
}

func newMockResultRepo() *mockResultRepo {
	return &mockResultRepo{results: make(map[string]*model.Result)}
}

func resultKey(studentID, subjectID string) string { return studentID + "/" + subjectID }

func (m *mockResultRepo) Create(_ context.Context, result *model.Result) error {
	key := resultKey(result.StudentID, result.SubjectID)
	if _, ok := m.results[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.seq++
	if result.ResultID == "" {
		result.ResultID = fmt.Sprintf("res-%d", m.seq)
	}
	if result.Version == 0 {
		result.Version = 1
	}
	cp := *result
	m.results[key] = &cp
	return nil
}

func (m *mockResultRepo) GetByID(_ context.Context, id string) (*model.Result, error) {
	for _, r := range m.results {
		if r.ResultID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResultRepo) GetByKey(_ context.Context, studentID, subjectID string) (*model.Result, error) {
	if r, ok := m.results[resultKey(studentID, subjectID)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResultRepo) ApplyGrace(_ context.Context, result *model.Result, newMark decimal.Decimal, newGrade, updatedBy string) error {
	stored, ok := m.results[resultKey(result.StudentID, result.SubjectID)]
	if !ok || stored.Version != result.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.OverallMark = newMark
	stored.Grade = newGrade
	stored.UpdatedBy = &updatedBy
	stored.Version++
	result.OverallMark = newMark
	result.Grade = newGrade
	result.Version = stored.Version
	return nil
}

func (m *mockResultRepo) List(_ context.Context, filter repository.ResultFilter, offset, limit int) ([]model.Result, int64, error) {
	var matched []model.Result
	for _, r := range m.results {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.SubjectID != "" && r.SubjectID != filter.SubjectID {
			continue
		}
		if filter.TeacherID != "" && r.TeacherID != filter.TeacherID {
			continue
		}
		if filter.Grade != "" && r.Grade != filter.Grade {
			continue
		}
		if filter.SemesterID != "" {
			sub, ok := m.subjects.subjects[r.SubjectID]
			if !ok || sub.SemesterID != filter.SemesterID {
				continue
			}
		}
		matched = append(matched, *r)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ResultID < matched[j].ResultID })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockResultRepo) ListBySemester(_ context.Context, semesterID string) ([]model.Result, error) {
	var result []model.Result
	for _, r := range m.results {
		if sub, ok := m.subjects.subjects[r.SubjectID]; ok && sub.SemesterID == semesterID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockResultRepo) ListAllWithSubject(_ context.Context) ([]model.Result, error) {
	var result []model.Result
	for _, r := range m.results {
		cp := *r
		cp.Subject = m.subjects.subjects[r.SubjectID]
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ResultID < result[j].ResultID })
	return result, nil
}

// ── Mock GracePoolRepository ──

type mockGracePoolRepo struct {
	pools map[string]*model.GracePool
	err   error
}

func newMockGracePoolRepo() *mockGracePoolRepo {
	return &mockGracePoolRepo{pools: make(map[string]*model.GracePool)}
}

func poolKey(studentID, semesterID string) string { return studentID + "/" + semesterID }

func (m *mockGracePoolRepo) Create(_ context.Context, pool *model.GracePool) error {
	key := poolKey(pool.StudentID, pool.SemesterID)
	if _, ok := m.pools[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if pool.GracePoolID == "" {
		pool.GracePoolID = "pool-" + key
	}
	cp := *pool
	m.pools[key] = &cp
	return nil
}

func (m *mockGracePoolRepo) GetByStudentSemester(_ context.Context, studentID, semesterID string) (*model.GracePool, error) {
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.pools[poolKey(studentID, semesterID)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGracePoolRepo) ListByStudent(_ context.Context, studentID string) ([]model.GracePool, error) {
	var result []model.GracePool
	for _, p := range m.pools {
		if p.StudentID == studentID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockGracePoolRepo) Consume(_ context.Context, poolID string, grace int) (bool, error) {
	for _, p := range m.pools {
		if p.GracePoolID == poolID {
			if p.UsedGrace+grace > p.TotalGrace {
				return false, nil
			}
			p.UsedGrace += grace
			return true, nil
		}
	}
	return false, nil
}

func (m *mockGracePoolRepo) ListInconsistent(_ context.Context) ([]model.GracePool, error) {
	var result []model.GracePool
	for _, p := range m.pools {
		if !p.Consistent() {
			result = append(result, *p)
		}
	}
	return result, nil
}

// ── Mock FailedSubjectRepository ──

type mockFailedSubjectRepo struct {
	entries map[string]*model.FailedSubject
	err     error
}

func newMockFailedSubjectRepo() *mockFailedSubjectRepo {
	return &mockFailedSubjectRepo{entries: make(map[string]*model.FailedSubject)}
}

var errMockLedgerDown = errors.New("ledger unavailable")

func (m *mockFailedSubjectRepo) Insert(_ context.Context, entry *model.FailedSubject) error {
	if m.err != nil {
		return m.err
	}
	key := resultKey(entry.StudentID, entry.SubjectID)
	if _, ok := m.entries[key]; !ok {
		cp := *entry
		m.entries[key] = &cp
	}
	return nil
}

func (m *mockFailedSubjectRepo) Delete(_ context.Context, studentID, subjectID string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.entries, resultKey(studentID, subjectID))
	return nil
}

func (m *mockFailedSubjectRepo) ListByStudent(_ context.Context, studentID string) ([]model.FailedSubject, error) {
	var result []model.FailedSubject
	for _, e := range m.entries {
		if e.StudentID == studentID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockFailedSubjectRepo) ListBySemester(_ context.Context, semesterID string) ([]model.FailedSubject, error) {
	var result []model.FailedSubject
	for _, e := range m.entries {
		if e.SemesterID == semesterID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockFailedSubjectRepo) ListAll(_ context.Context) ([]model.FailedSubject, error) {
	var result []model.FailedSubject
	for _, e := range m.entries {
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockFailedSubjectRepo) has(studentID, subjectID string) bool {
	_, ok := m.entries[resultKey(studentID, subjectID)]
	return ok
}

// ── Mock GraceApplicationRepository ──

type mockGraceApplicationRepo struct {
	apps []model.GraceApplication
}

func newMockGraceApplicationRepo() *mockGraceApplicationRepo {
	return &mockGraceApplicationRepo{}
}

func (m *mockGraceApplicationRepo) Create(_ context.Context, app *model.GraceApplication) error {
	if app.GraceApplicationID == "" {
		app.GraceApplicationID = fmt.Sprintf("ga-%d", len(m.apps)+1)
	}
	m.apps = append(m.apps, *app)
	return nil
}

func (m *mockGraceApplicationRepo) ListByStudent(_ context.Context, studentID string) ([]model.GraceApplication, error) {
	var result []model.GraceApplication
	for _, a := range m.apps {
		if a.StudentID == studentID {
			result = append(result, a)
		}
	}
	return result, nil
}

// ── Mock aggregate ──

type testRepos struct {
	semester *mockSemesterRepo
	subject  *mockSubjectRepo
	student  *mockStudentRepo
	result   *mockResultRepo
	pool     *mockGracePoolRepo
	failed   *mockFailedSubjectRepo
	grace    *mockGraceApplicationRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	results := newMockResultRepo()
	subjects := newMockSubjectRepo(results)
	results.subjects = subjects

	m := &testRepos{
		semester: newMockSemesterRepo(),
		subject:  subjects,
		student:  newMockStudentRepo(),
		result:   results,
		pool:     newMockGracePoolRepo(),
		failed:   newMockFailedSubjectRepo(),
		grace:    newMockGraceApplicationRepo(),
	}
	repo := &repository.Repository{
		Semester:         m.semester,
		Subject:          m.subject,
		Student:          m.student,
		Result:           m.result,
		GracePool:        m.pool,
		FailedSubject:    m.failed,
		GraceApplication: m.grace,
	}
	return repo, m
}

// seed adds a semester, one student and the given subjects (code -> max marks).
func (m *testRepos) seed(subjects map[string]int) (sem *model.Semester, stu *model.Student) {
	ctx := context.Background()
	sem = &model.Semester{SemesterID: "sem-1", Name: "Semester 1", Level: 1}
	_ = m.semester.Create(ctx, sem)
	stu = &model.Student{StudentID: "stu-1", RollNo: "CS-001", Name: "Asha Rao", SemesterID: sem.SemesterID, BranchID: "CSE"}
	_ = m.student.Create(ctx, stu)
	for code, maxMarks := range subjects {
		_ = m.subject.Create(ctx, &model.Subject{Code: code, Name: code, MaxMarks: maxMarks, SemesterID: sem.SemesterID})
	}
	return sem, stu
}
