package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"inspection-system/internal/entities"
	"inspection-system/internal/repositories"
	"inspection-system/pkg/constants"
	apperrors "inspection-system/pkg/errors"
	"inspection-system/pkg/eventbus"
	"inspection-system/pkg/filestorage"
	"inspection-system/pkg/types"
)

// Тестовые двойники: одна in-memory база за всеми репозиториями и
// менеджер транзакций, выполняющий fn строго по очереди.

type fakeTxManager struct {
	mu    sync.Mutex
	calls int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return fn(nil)
}

func (m *fakeTxManager) RunInSerializableTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return m.RunInTransaction(ctx, fn)
}

type memDB struct {
	mu          sync.Mutex
	nextID      uint64
	equipment   map[uint64]*entities.Equipment
	templates   map[uint64]*entities.InspectionTemplate
	tplSections map[uint64][]entities.TemplateSection
	inspections map[uint64]*entities.Inspection
	sections    map[uint64]*entities.Section
	checkpoints map[uint64]*entities.Checkpoint
	media       map[uint64]*entities.Media
	users       map[uint64]*entities.User
}

func newMemDB() *memDB {
	return &memDB{
		equipment:   map[uint64]*entities.Equipment{},
		templates:   map[uint64]*entities.InspectionTemplate{},
		tplSections: map[uint64][]entities.TemplateSection{},
		inspections: map[uint64]*entities.Inspection{},
		sections:    map[uint64]*entities.Section{},
		checkpoints: map[uint64]*entities.Checkpoint{},
		media:       map[uint64]*entities.Media{},
		users:       map[uint64]*entities.User{},
	}
}

func (db *memDB) id() uint64 {
	db.nextID++
	return db.nextID
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

// ---- equipment ----

type fakeEquipmentRepo struct{ db *memDB }

var _ repositories.EquipmentRepositoryInterface = (*fakeEquipmentRepo)(nil)

func (r *fakeEquipmentRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e, ok := r.db.equipment[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEquipmentRepo) FindBySerial(ctx context.Context, tx pgx.Tx, serial string) (*entities.Equipment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, e := range r.db.equipment {
		if e.SerialNumber == serial {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeEquipmentRepo) GetAll(ctx context.Context, filter types.Filter) ([]*entities.Equipment, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entities.Equipment, 0, len(r.db.equipment))
	for _, e := range r.db.equipment {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r *fakeEquipmentRepo) Create(ctx context.Context, tx pgx.Tx, e entities.Equipment) (uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.equipment {
		if existing.SerialNumber == e.SerialNumber {
			return 0, apperrors.Conflict("серийный номер %s уже занят", e.SerialNumber)
		}
	}
	e.ID = r.db.id()
	r.db.equipment[e.ID] = &e
	return e.ID, nil
}

func (r *fakeEquipmentRepo) Update(ctx context.Context, tx pgx.Tx, id uint64, e entities.Equipment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.equipment[id]; !ok {
		return apperrors.NotFound("техника", id)
	}
	e.ID = id
	r.db.equipment[id] = &e
	return nil
}

func (r *fakeEquipmentRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e, ok := r.db.equipment[id]
	if !ok {
		return apperrors.NotFound("техника", id)
	}
	e.Status = status
	return nil
}

func (r *fakeEquipmentRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.equipment[id]; !ok {
		return apperrors.NotFound("техника", id)
	}
	for _, i := range r.db.inspections {
		if i.EquipmentID == id {
			return apperrors.Conflict("у техники %d есть осмотры", id)
		}
	}
	delete(r.db.equipment, id)
	return nil
}

// ---- templates ----

type fakeTemplateRepo struct{ db *memDB }

var _ repositories.TemplateRepositoryInterface = (*fakeTemplateRepo)(nil)

func (r *fakeTemplateRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.InspectionTemplate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.templates[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTemplateRepo) FindDefault(ctx context.Context, tx pgx.Tx, equipmentType string) (*entities.InspectionTemplate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.templates {
		if t.IsDefault && t.EquipmentType == equipmentType {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeTemplateRepo) LoadSections(ctx context.Context, tx pgx.Tx, templateID uint64) ([]entities.TemplateSection, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]entities.TemplateSection(nil), r.db.tplSections[templateID]...), nil
}

func (r *fakeTemplateRepo) GetAll(ctx context.Context, filter types.Filter) ([]*entities.InspectionTemplate, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entities.InspectionTemplate, 0)
	for _, t := range r.db.templates {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r *fakeTemplateRepo) Create(ctx context.Context, tx pgx.Tx, t entities.InspectionTemplate) (uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t.ID = r.db.id()
	t.Sections = nil
	r.db.templates[t.ID] = &t
	return t.ID, nil
}

func (r *fakeTemplateRepo) Update(ctx context.Context, tx pgx.Tx, id uint64, t entities.InspectionTemplate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.templates[id]; !ok {
		return apperrors.NotFound("шаблон", id)
	}
	t.ID = id
	t.Sections = nil
	r.db.templates[id] = &t
	return nil
}

func (r *fakeTemplateRepo) ClearDefault(ctx context.Context, tx pgx.Tx, equipmentType string, exceptID uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, t := range r.db.templates {
		if id != exceptID && t.EquipmentType == equipmentType {
			t.IsDefault = false
		}
	}
	return nil
}

func (r *fakeTemplateRepo) ReplaceSections(ctx context.Context, tx pgx.Tx, templateID uint64, sections []entities.TemplateSection) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored := make([]entities.TemplateSection, 0, len(sections))
	for _, s := range sections {
		s.ID = r.db.id()
		s.TemplateID = templateID
		cps := make([]entities.TemplateCheckpoint, 0, len(s.Checkpoints))
		for _, c := range s.Checkpoints {
			c.ID = r.db.id()
			c.SectionID = s.ID
			cps = append(cps, c)
		}
		s.Checkpoints = cps
		stored = append(stored, s)
	}
	r.db.tplSections[templateID] = stored
	return nil
}

func (r *fakeTemplateRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.templates[id]; !ok {
		return apperrors.NotFound("шаблон", id)
	}
	delete(r.db.templates, id)
	delete(r.db.tplSections, id)
	return nil
}

// ---- inspections ----

type fakeInspectionRepo struct{ db *memDB }

var _ repositories.InspectionRepositoryInterface = (*fakeInspectionRepo)(nil)

func (r *fakeInspectionRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Inspection, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i, ok := r.db.inspections[id]
	if !ok {
		return nil, apperrors.NotFound("осмотр", id)
	}
	cp := *i
	return &cp, nil
}

func (r *fakeInspectionRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Inspection, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeInspectionRepo) FindActiveByEquipment(ctx context.Context, tx pgx.Tx, equipmentID uint64) (*entities.Inspection, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, i := range r.db.inspections {
		if i.EquipmentID == equipmentID && i.Status == constants.InspectionStatusInProgress {
			cp := *i
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeInspectionRepo) GetAll(ctx context.Context, filter types.Filter) ([]*entities.Inspection, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entities.Inspection, 0)
	for _, i := range r.db.inspections {
		if status, ok := filter.Filter["status"].(string); ok && i.Status != status {
			continue
		}
		cp := *i
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, uint64(len(out)), nil
}

func (r *fakeInspectionRepo) Create(ctx context.Context, tx pgx.Tx, i entities.Inspection) (uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.inspections {
		if existing.EquipmentID == i.EquipmentID && existing.Status == constants.InspectionStatusInProgress {
			return 0, uniqueViolation()
		}
	}
	i.ID = r.db.id()
	r.db.inspections[i.ID] = &i
	return i.ID, nil
}

func (r *fakeInspectionRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, id uint64, completedAt time.Time, remarks *string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i, ok := r.db.inspections[id]
	if !ok || i.Status != constants.InspectionStatusInProgress {
		return apperrors.InvalidArgument("осмотр %d не находится в работе", id)
	}
	i.Status = constants.InspectionStatusCompleted
	i.CompletedAt = &completedAt
	if remarks != nil {
		i.TechnicianRemarks = remarks
	}
	return nil
}

func (r *fakeInspectionRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.inspections[id]; !ok {
		return apperrors.NotFound("осмотр", id)
	}
	delete(r.db.inspections, id)
	for sid, s := range r.db.sections {
		if s.InspectionID != id {
			continue
		}
		for cid, c := range r.db.checkpoints {
			if c.SectionID != sid {
				continue
			}
			for mid, m := range r.db.media {
				if m.CheckpointID == cid {
					delete(r.db.media, mid)
				}
			}
			delete(r.db.checkpoints, cid)
		}
		delete(r.db.sections, sid)
	}
	return nil
}

func (r *fakeInspectionRepo) LoadDetail(ctx context.Context, tx pgx.Tx, id uint64) (*entities.InspectionDetail, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i, ok := r.db.inspections[id]
	if !ok {
		return nil, apperrors.NotFound("осмотр", id)
	}
	detail := &entities.InspectionDetail{Inspection: *i}
	if e, ok := r.db.equipment[i.EquipmentID]; ok {
		detail.Equipment = *e
	}
	if u, ok := r.db.users[i.TechnicianID]; ok {
		detail.Technician = entities.UserShort{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	if i.TemplateID != nil {
		if t, ok := r.db.templates[*i.TemplateID]; ok {
			name := t.Name
			detail.TemplateName = &name
		}
	}
	for _, s := range r.db.sections {
		if s.InspectionID != id {
			continue
		}
		sd := entities.SectionDetail{Section: *s}
		for _, c := range r.db.checkpoints {
			if c.SectionID != s.ID {
				continue
			}
			cd := entities.CheckpointDetail{Checkpoint: *c, Media: []entities.Media{}}
			for _, m := range r.db.media {
				if m.CheckpointID == c.ID {
					meta := *m
					meta.Data = nil
					cd.Media = append(cd.Media, meta)
				}
			}
			sd.Checkpoints = append(sd.Checkpoints, cd)
		}
		sort.Slice(sd.Checkpoints, func(a, b int) bool { return sd.Checkpoints[a].Order < sd.Checkpoints[b].Order })
		detail.Sections = append(detail.Sections, sd)
	}
	sort.Slice(detail.Sections, func(a, b int) bool { return detail.Sections[a].Order < detail.Sections[b].Order })
	return detail, nil
}

// ---- sections / checkpoints ----

type fakeCheckpointRepo struct{ db *memDB }

var _ repositories.CheckpointRepositoryInterface = (*fakeCheckpointRepo)(nil)

func (r *fakeCheckpointRepo) CreateSection(ctx context.Context, tx pgx.Tx, s entities.Section) (uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s.ID = r.db.id()
	r.db.sections[s.ID] = &s
	return s.ID, nil
}

func (r *fakeCheckpointRepo) CreateCheckpoint(ctx context.Context, tx pgx.Tx, c entities.Checkpoint) (uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c.ID = r.db.id()
	r.db.checkpoints[c.ID] = &c
	return c.ID, nil
}

func (r *fakeCheckpointRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*repositories.CheckpointWithInspection, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.checkpoints[id]
	if !ok {
		return nil, apperrors.NotFound("контрольная точка", id)
	}
	s := r.db.sections[c.SectionID]
	i := r.db.inspections[s.InspectionID]
	return &repositories.CheckpointWithInspection{
		Checkpoint:       *c,
		InspectionID:     i.ID,
		InspectionStatus: i.Status,
	}, nil
}

func (r *fakeCheckpointRepo) Update(ctx context.Context, tx pgx.Tx, id uint64, status string, notes *string, estimatedHours *float64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.checkpoints[id]
	if !ok {
		return apperrors.NotFound("контрольная точка", id)
	}
	c.Status = &status
	c.Notes = notes
	c.EstimatedHours = estimatedHours
	return nil
}

func (r *fakeCheckpointRepo) ListSections(ctx context.Context, tx pgx.Tx, inspectionID uint64) ([]entities.Section, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.Section
	for _, s := range r.db.sections {
		if s.InspectionID == inspectionID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Order < out[b].Order })
	return out, nil
}

func (r *fakeCheckpointRepo) ListByInspection(ctx context.Context, tx pgx.Tx, inspectionID uint64) ([]entities.Checkpoint, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.checkpointsOf(inspectionID), nil
}

func (r *fakeCheckpointRepo) MarkUnsetAsPass(ctx context.Context, tx pgx.Tx, inspectionID uint64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, c := range r.db.checkpoints {
		s := r.db.sections[c.SectionID]
		if s.InspectionID != inspectionID || c.Status != nil {
			continue
		}
		pass := constants.CheckpointStatusPass
		c.Status = &pass
		c.Notes, c.EstimatedHours = nil, nil
		n++
	}
	return n, nil
}

// checkpointsOf вызывается под db.mu.
func (db *memDB) checkpointsOf(inspectionID uint64) []entities.Checkpoint {
	var out []entities.Checkpoint
	for _, c := range db.checkpoints {
		if s, ok := db.sections[c.SectionID]; ok && s.InspectionID == inspectionID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// ---- media ----

type fakeMediaRepo struct{ db *memDB }

var _ repositories.MediaRepositoryInterface = (*fakeMediaRepo)(nil)

func (r *fakeMediaRepo) Create(ctx context.Context, tx pgx.Tx, m entities.Media) (uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.checkpoints[m.CheckpointID]; !ok {
		return 0, apperrors.NotFound("контрольная точка", m.CheckpointID)
	}
	m.ID = r.db.id()
	m.CreatedAt = time.Now()
	r.db.media[m.ID] = &m
	return m.ID, nil
}

func (r *fakeMediaRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64, withData bool) (*entities.Media, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.media[id]
	if !ok {
		return nil, apperrors.NotFound("медиафайл", id)
	}
	cp := *m
	if !withData {
		cp.Data = nil
	}
	return &cp, nil
}

func (r *fakeMediaRepo) ListByCheckpoint(ctx context.Context, tx pgx.Tx, checkpointID uint64) ([]entities.Media, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.Media
	for _, m := range r.db.media {
		if m.CheckpointID == checkpointID {
			cp := *m
			cp.Data = nil
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) ListByInspection(ctx context.Context, tx pgx.Tx, inspectionID uint64) ([]entities.Media, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.Media
	for _, m := range r.db.media {
		c, ok := r.db.checkpoints[m.CheckpointID]
		if !ok {
			continue
		}
		if s, ok := r.db.sections[c.SectionID]; ok && s.InspectionID == inspectionID {
			cp := *m
			cp.Data = nil
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.media[id]; !ok {
		return apperrors.NotFound("медиафайл", id)
	}
	delete(r.db.media, id)
	return nil
}

func (r *fakeMediaRepo) DeleteByCheckpoint(ctx context.Context, tx pgx.Tx, checkpointID uint64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, m := range r.db.media {
		if m.CheckpointID == checkpointID {
			delete(r.db.media, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeMediaRepo) ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[string]bool)
	for _, m := range r.db.media {
		if m.ObjectKey == nil {
			continue
		}
		for _, k := range keys {
			if k == *m.ObjectKey {
				out[k] = true
			}
		}
	}
	return out, nil
}

// ---- users ----

type fakeUserRepo struct{ db *memDB }

var _ repositories.UserRepositoryInterface = (*fakeUserRepo)(nil)

func (r *fakeUserRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, apperrors.NotFound("пользователь", id)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) GetAll(ctx context.Context, filter types.Filter) ([]*entities.User, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entities.User, 0)
	for _, u := range r.db.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, uint64(len(out)), nil
}

func (r *fakeUserRepo) Create(ctx context.Context, tx pgx.Tx, u entities.User) (uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return 0, apperrors.Conflict("email %s уже занят", u.Email)
		}
	}
	u.ID = r.db.id()
	r.db.users[u.ID] = &u
	return u.ID, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, tx pgx.Tx, u entities.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.users[u.ID]
	if !ok {
		return apperrors.NotFound("пользователь", u.ID)
	}
	for _, other := range r.db.users {
		if other.ID != u.ID && strings.EqualFold(other.Email, u.Email) {
			return apperrors.Conflict("email %s уже занят", u.Email)
		}
	}
	u.PasswordHash = existing.PasswordHash
	r.db.users[u.ID] = &u
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, tx pgx.Tx, userID uint64, passwordHash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return apperrors.NotFound("пользователь", userID)
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return apperrors.NotFound("пользователь", id)
	}
	delete(r.db.users, id)
	return nil
}

func (r *fakeUserRepo) CountByRole(ctx context.Context, tx pgx.Tx, role string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, u := range r.db.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ---- cache ----

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

var _ repositories.CacheRepositoryInterface = (*fakeCache)(nil)

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case string:
		c.data[key] = v
	default:
		c.data[key] = "1"
	}
	c.ttl[key] = expiration
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", errors.New("redis: nil")
	}
	return v, nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		delete(c.ttl, k)
	}
	return nil
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(c.data[key], 10, 64)
	n++
	c.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *fakeCache) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; !ok {
		return false, nil
	}
	c.ttl[key] = expiration
	return true, nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

// ---- bus ----

type fakePublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name())
	}
	return out
}

// ---- storage ----

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleteErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

var _ filestorage.FileStorageInterface = (*fakeStorage)(nil)

func (s *fakeStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, filestorage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://storage.test/" + key, nil
}

func (s *fakeStorage) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}
