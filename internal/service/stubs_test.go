package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/campus-studyhub-api/internal/dto"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
	"github.com/noah-isme/campus-studyhub-api/internal/repository"
)

var (
	adminClaims   = &models.JWTClaims{UserID: 1, Role: models.RoleAdmin, Email: "admin@campus.com", FullName: "Campus Admin"}
	studentClaims = &models.JWTClaims{UserID: 2, Role: models.RoleStudent, Email: "student@campus.com", FullName: "Stu Dent"}
)

// memStore is an in-memory catalog shared by the repository stubs below.
type memStore struct {
	nextID    int64
	semesters map[int64]*models.Semester
	subjects  map[int64]*models.Subject
	notes     map[int64]*models.Note
	papers    map[int64]*models.QuestionPaper
	videos    map[int64]*models.VideoLink
	users     map[string]*models.User

	noteCreateErr  error
	paperCreateErr error
}

func newMemStore() *memStore {
	return &memStore{
		semesters: map[int64]*models.Semester{},
		subjects:  map[int64]*models.Subject{},
		notes:     map[int64]*models.Note{},
		papers:    map[int64]*models.QuestionPaper{},
		videos:    map[int64]*models.VideoLink{},
		users:     map[string]*models.User{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addUser(email, name string, role models.UserRole) *models.User {
	u := &models.User{ID: m.id(), Email: email, FullName: name, Role: role}
	m.users[email] = u
	return u
}

func (m *memStore) addSemester(number int) *models.Semester {
	s := &models.Semester{ID: m.id(), Number: number, Name: models.DefaultSemesterName(number)}
	m.semesters[s.ID] = s
	return s
}

func (m *memStore) addSubject(semesterID int64, name, code string) *models.Subject {
	s := &models.Subject{ID: m.id(), Name: name, Code: code, SemesterID: semesterID}
	m.subjects[s.ID] = s
	return s
}

func (m *memStore) userName(id int64) string {
	for _, u := range m.users {
		if u.ID == id {
			return u.FullName
		}
	}
	return ""
}

func (m *memStore) removeSubject(id int64) {
	for nid, n := range m.notes {
		if n.SubjectID == id {
			delete(m.notes, nid)
		}
	}
	for pid, p := range m.papers {
		if p.SubjectID == id {
			delete(m.papers, pid)
		}
	}
	for vid, v := range m.videos {
		if v.SubjectID == id {
			delete(m.videos, vid)
		}
	}
	delete(m.subjects, id)
}

type semesterRepoStub struct{ *memStore }

func (r semesterRepoStub) List(context.Context) ([]models.Semester, error) {
	out := make([]models.Semester, 0, len(r.semesters))
	for _, s := range r.semesters {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r semesterRepoStub) FindByID(_ context.Context, id int64) (*models.Semester, error) {
	if s, ok := r.semesters[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r semesterRepoStub) FindByNumber(_ context.Context, number int) (*models.Semester, error) {
	for _, s := range r.semesters {
		if s.Number == number {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r semesterRepoStub) Count(context.Context) (int, error) {
	return len(r.semesters), nil
}

func (r semesterRepoStub) Create(_ context.Context, semester *models.Semester) error {
	semester.ID = r.id()
	cp := *semester
	r.semesters[semester.ID] = &cp
	return nil
}

func (r semesterRepoStub) DeleteCascade(_ context.Context, id int64) error {
	if _, ok := r.semesters[id]; !ok {
		return sql.ErrNoRows
	}
	for sid, s := range r.subjects {
		if s.SemesterID == id {
			r.removeSubject(sid)
		}
	}
	delete(r.semesters, id)
	return nil
}

type subjectRepoStub struct{ *memStore }

func (r subjectRepoStub) view(s *models.Subject) dto.SubjectView {
	v := dto.SubjectView{ID: s.ID, Name: s.Name, Code: s.Code, Description: s.Description, SemesterID: s.SemesterID}
	if sem, ok := r.semesters[s.SemesterID]; ok {
		v.SemesterNumber = sem.Number
	}
	for _, n := range r.notes {
		if n.SubjectID == s.ID {
			v.NotesCount++
		}
	}
	for _, p := range r.papers {
		if p.SubjectID == s.ID {
			v.PapersCount++
		}
	}
	for _, vl := range r.videos {
		if vl.SubjectID == s.ID {
			v.VideosCount++
		}
	}
	return v
}

func (r subjectRepoStub) ListViews(_ context.Context, filter repository.SubjectFilter) ([]dto.SubjectView, error) {
	out := []dto.SubjectView{}
	for _, s := range r.subjects {
		v := r.view(s)
		if filter.SemesterID != 0 && v.SemesterID != filter.SemesterID {
			continue
		}
		if filter.SemesterNumber != 0 && v.SemesterNumber != filter.SemesterNumber {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r subjectRepoStub) GetView(_ context.Context, id int64) (*dto.SubjectView, error) {
	s, ok := r.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	v := r.view(s)
	return &v, nil
}

func (r subjectRepoStub) FindByID(_ context.Context, id int64) (*models.Subject, error) {
	if s, ok := r.subjects[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r subjectRepoStub) ListIDsBySemester(_ context.Context, semesterID int64) ([]int64, error) {
	var ids []int64
	for _, s := range r.subjects {
		if s.SemesterID == semesterID {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

func (r subjectRepoStub) Create(_ context.Context, subject *models.Subject) error {
	subject.ID = r.id()
	cp := *subject
	r.subjects[subject.ID] = &cp
	return nil
}

func (r subjectRepoStub) Update(_ context.Context, subject *models.Subject) error {
	if _, ok := r.subjects[subject.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *subject
	r.subjects[subject.ID] = &cp
	return nil
}

func (r subjectRepoStub) DeleteCascade(_ context.Context, id int64) error {
	if _, ok := r.subjects[id]; !ok {
		return sql.ErrNoRows
	}
	r.removeSubject(id)
	return nil
}

type noteRepoStub struct{ *memStore }

func (r noteRepoStub) Create(_ context.Context, note *models.Note) error {
	if r.noteCreateErr != nil {
		return r.noteCreateErr
	}
	note.ID = r.id()
	cp := *note
	r.notes[note.ID] = &cp
	return nil
}

func (r noteRepoStub) FindByID(_ context.Context, id int64) (*models.Note, error) {
	if n, ok := r.notes[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r noteRepoStub) view(n *models.Note) dto.NoteView {
	v := dto.NoteView{ID: n.ID, Title: n.Title, OriginalFileName: n.OriginalFileName, FileSize: n.FileSize,
		UploadedAt: n.UploadedAt, UploadedBy: n.UploadedBy, UploadedByName: r.userName(n.UploadedBy), SubjectID: n.SubjectID}
	if s, ok := r.subjects[n.SubjectID]; ok {
		v.SubjectName = s.Name
	}
	return v
}

func (r noteRepoStub) GetView(_ context.Context, id int64) (*dto.NoteView, error) {
	n, ok := r.notes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	v := r.view(n)
	return &v, nil
}

func (r noteRepoStub) ListBySubject(_ context.Context, subjectID int64) ([]dto.NoteView, error) {
	out := []dto.NoteView{}
	for _, n := range r.notes {
		if n.SubjectID == subjectID {
			out = append(out, r.view(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r noteRepoStub) ListFilesBySubject(_ context.Context, subjectID int64) ([]models.StoredFile, error) {
	var out []models.StoredFile
	for _, n := range r.notes {
		if n.SubjectID == subjectID {
			out = append(out, models.StoredFile{ID: n.ID, StoredFileName: n.StoredFileName})
		}
	}
	return out, nil
}

func (r noteRepoStub) Delete(_ context.Context, id int64) error {
	if _, ok := r.notes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.notes, id)
	return nil
}

type paperRepoStub struct{ *memStore }

func (r paperRepoStub) Create(_ context.Context, paper *models.QuestionPaper) error {
	if r.paperCreateErr != nil {
		return r.paperCreateErr
	}
	paper.ID = r.id()
	cp := *paper
	r.papers[paper.ID] = &cp
	return nil
}

func (r paperRepoStub) FindByID(_ context.Context, id int64) (*models.QuestionPaper, error) {
	if p, ok := r.papers[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r paperRepoStub) view(p *models.QuestionPaper) dto.PaperView {
	v := dto.PaperView{ID: p.ID, Title: p.Title, ExamYear: p.ExamYear, OriginalFileName: p.OriginalFileName, FileSize: p.FileSize,
		UploadedAt: p.UploadedAt, UploadedBy: p.UploadedBy, UploadedByName: r.userName(p.UploadedBy), SubjectID: p.SubjectID}
	if s, ok := r.subjects[p.SubjectID]; ok {
		v.SubjectName = s.Name
	}
	return v
}

func (r paperRepoStub) GetView(_ context.Context, id int64) (*dto.PaperView, error) {
	p, ok := r.papers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	v := r.view(p)
	return &v, nil
}

func (r paperRepoStub) ListBySubject(_ context.Context, subjectID int64) ([]dto.PaperView, error) {
	out := []dto.PaperView{}
	for _, p := range r.papers {
		if p.SubjectID == subjectID {
			out = append(out, r.view(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r paperRepoStub) ListFilesBySubject(_ context.Context, subjectID int64) ([]models.StoredFile, error) {
	var out []models.StoredFile
	for _, p := range r.papers {
		if p.SubjectID == subjectID {
			out = append(out, models.StoredFile{ID: p.ID, StoredFileName: p.StoredFileName})
		}
	}
	return out, nil
}

func (r paperRepoStub) Delete(_ context.Context, id int64) error {
	if _, ok := r.papers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.papers, id)
	return nil
}

type videoRepoStub struct{ *memStore }

func (r videoRepoStub) Create(_ context.Context, video *models.VideoLink) error {
	video.ID = r.id()
	if video.AddedAt.IsZero() {
		video.AddedAt = time.Now().UTC()
	}
	cp := *video
	r.videos[video.ID] = &cp
	return nil
}

func (r videoRepoStub) view(v *models.VideoLink) dto.VideoView {
	out := dto.VideoView{ID: v.ID, Title: v.Title, YoutubeURL: v.YoutubeURL, ThumbnailURL: v.ThumbnailURL, EmbedURL: v.EmbedURL,
		Description: v.Description, AddedAt: v.AddedAt, AddedBy: v.AddedBy, AddedByName: r.userName(v.AddedBy), SubjectID: v.SubjectID}
	if s, ok := r.subjects[v.SubjectID]; ok {
		out.SubjectName = s.Name
	}
	return out
}

func (r videoRepoStub) GetView(_ context.Context, id int64) (*dto.VideoView, error) {
	v, ok := r.videos[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := r.view(v)
	return &out, nil
}

func (r videoRepoStub) ListBySubject(_ context.Context, subjectID int64) ([]dto.VideoView, error) {
	out := []dto.VideoView{}
	for _, v := range r.videos {
		if v.SubjectID == subjectID {
			out = append(out, r.view(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r videoRepoStub) Delete(_ context.Context, id int64) error {
	if _, ok := r.videos[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.videos, id)
	return nil
}

type userRepoStub struct {
	*memStore
	createErr error
}

func (r userRepoStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := r.users[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r userRepoStub) Create(_ context.Context, user *models.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	user.ID = r.id()
	cp := *user
	r.users[user.Email] = &cp
	return nil
}

// jsonCache round-trips values through JSON so callers observe the same copy semantics as Redis.
type jsonCache struct {
	entries     map[string][]byte
	hits        int
	invalidated []string
}

func newJSONCache() *jsonCache {
	return &jsonCache{entries: map[string][]byte{}}
}

func (c *jsonCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dest)
}

func (c *jsonCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *jsonCache) Invalidate(_ context.Context, pattern string) error {
	c.invalidated = append(c.invalidated, pattern)
	delete(c.entries, pattern)
	return nil
}
