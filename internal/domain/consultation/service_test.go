package consultation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/domain/visit"
	"github.com/clinicware/clinic-api/internal/platform/apperr"
)

type mockRepo struct {
	cons      map[uuid.UUID]*Consultation
	vitals    []*Vitals
	allergies []*Allergy
	history   []*HistoryEntry
}

func newMockRepo() *mockRepo {
	return &mockRepo{cons: make(map[uuid.UUID]*Consultation)}
}

func (m *mockRepo) Create(ctx context.Context, cons *Consultation) error {
	cons.ID = uuid.New()
	cp := *cons
	m.cons[cons.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, ok := m.cons[id]
	if !ok {
		return nil, apperr.NotFound("consultation_not_found", "consultation does not exist")
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepo) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Consultation, error) {
	for _, c := range m.cons {
		if c.VisitID == visitID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("consultation_not_found", "consultation does not exist")
}

func (m *mockRepo) CountActiveForVisit(ctx context.Context, visitID uuid.UUID) (int, error) {
	n := 0
	for _, c := range m.cons {
		if c.VisitID == visitID && c.Status != StatusCompleted {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) Update(ctx context.Context, cons *Consultation) error {
	if _, ok := m.cons[cons.ID]; !ok {
		return apperr.NotFound("consultation_not_found", "consultation does not exist")
	}
	cp := *cons
	m.cons[cons.ID] = &cp
	return nil
}

func (m *mockRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var out []*Consultation
	for _, c := range m.cons {
		if c.PatientID == patientID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) AddVitals(ctx context.Context, v *Vitals) error {
	v.ID = uuid.New()
	m.vitals = append(m.vitals, v)
	return nil
}

func (m *mockRepo) GetVitalsByVisit(ctx context.Context, visitID uuid.UUID) ([]*Vitals, error) {
	var out []*Vitals
	for _, v := range m.vitals {
		if v.VisitID == visitID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockRepo) AddAllergy(ctx context.Context, a *Allergy) error {
	a.ID = uuid.New()
	m.allergies = append(m.allergies, a)
	return nil
}

func (m *mockRepo) ListAllergies(ctx context.Context, patientID uuid.UUID) ([]*Allergy, error) {
	var out []*Allergy
	for _, a := range m.allergies {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) AddHistory(ctx context.Context, h *HistoryEntry) error {
	h.ID = uuid.New()
	m.history = append(m.history, h)
	return nil
}

func (m *mockRepo) ListHistory(ctx context.Context, patientID uuid.UUID) ([]*HistoryEntry, error) {
	var out []*HistoryEntry
	for _, h := range m.history {
		if h.PatientID == patientID {
			out = append(out, h)
		}
	}
	return out, nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockVisitCompleter struct {
	completed []uuid.UUID
	err       error
}

func (m *mockVisitCompleter) Complete(ctx context.Context, visitID uuid.UUID) (*visit.Visit, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.completed = append(m.completed, visitID)
	return &visit.Visit{ID: visitID, Status: visit.StatusCompleted}, nil
}

func newTestService(repo *mockRepo, visits *mockVisitCompleter) *Service {
	return NewService(repo, passthroughTx{}, visits, zerolog.Nop())
}

func ptrStr(s string) *string { return &s }

func TestStartForVisit(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	svc := newTestService(repo, &mockVisitCompleter{})
	visitID := uuid.New()

	if err := svc.StartForVisit(ctx, visitID, uuid.New(), uuid.New()); err != nil {
		t.Fatalf("StartForVisit: %v", err)
	}

	cons, err := svc.GetByVisit(ctx, visitID)
	if err != nil {
		t.Fatalf("GetByVisit: %v", err)
	}
	if cons.Status != StatusInProgress {
		t.Errorf("status = %s, want %s", cons.Status, StatusInProgress)
	}

	t.Run("second active consultation conflicts", func(t *testing.T) {
		err := svc.StartForVisit(ctx, visitID, uuid.New(), uuid.New())
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	svc := newTestService(repo, &mockVisitCompleter{})
	visitID := uuid.New()

	if err := svc.StartForVisit(ctx, visitID, uuid.New(), uuid.New()); err != nil {
		t.Fatalf("StartForVisit: %v", err)
	}
	cons, _ := svc.GetByVisit(ctx, visitID)

	got, err := svc.Update(ctx, cons.ID, ClinicalUpdate{
		Symptoms:  ptrStr("persistent cough"),
		Diagnosis: ptrStr("acute bronchitis"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Symptoms == nil || *got.Symptoms != "persistent cough" {
		t.Error("symptoms not stored")
	}
	if got.Diagnosis == nil || *got.Diagnosis != "acute bronchitis" {
		t.Error("diagnosis not stored")
	}

	t.Run("partial update keeps other fields", func(t *testing.T) {
		got, err := svc.Update(ctx, cons.ID, ClinicalUpdate{Notes: ptrStr("rest advised")})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Diagnosis == nil || *got.Diagnosis != "acute bronchitis" {
			t.Error("partial update dropped diagnosis")
		}
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("requires diagnosis", func(t *testing.T) {
		repo := newMockRepo()
		svc := newTestService(repo, &mockVisitCompleter{})
		visitID := uuid.New()
		if err := svc.StartForVisit(ctx, visitID, uuid.New(), uuid.New()); err != nil {
			t.Fatalf("StartForVisit: %v", err)
		}
		cons, _ := svc.GetByVisit(ctx, visitID)

		_, err := svc.Complete(ctx, cons.ID)
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("completes consultation and visit together", func(t *testing.T) {
		repo := newMockRepo()
		visits := &mockVisitCompleter{}
		svc := newTestService(repo, visits)
		visitID := uuid.New()
		if err := svc.StartForVisit(ctx, visitID, uuid.New(), uuid.New()); err != nil {
			t.Fatalf("StartForVisit: %v", err)
		}
		cons, _ := svc.GetByVisit(ctx, visitID)
		if _, err := svc.Update(ctx, cons.ID, ClinicalUpdate{Diagnosis: ptrStr("migraine")}); err != nil {
			t.Fatalf("Update: %v", err)
		}

		got, err := svc.Complete(ctx, cons.ID)
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if got.Status != StatusCompleted {
			t.Errorf("status = %s, want %s", got.Status, StatusCompleted)
		}
		if got.CompletedAt == nil {
			t.Error("completed_at not set")
		}
		if len(visits.completed) != 1 || visits.completed[0] != visitID {
			t.Error("parent visit not completed")
		}

		t.Run("double complete conflicts", func(t *testing.T) {
			_, err := svc.Complete(ctx, cons.ID)
			if !apperr.IsKind(err, apperr.KindConflict) {
				t.Fatalf("expected conflict, got %v", err)
			}
		})

		t.Run("completed consultation rejects edits", func(t *testing.T) {
			_, err := svc.Update(ctx, cons.ID, ClinicalUpdate{Notes: ptrStr("late note")})
			if !apperr.IsKind(err, apperr.KindConflict) {
				t.Fatalf("expected conflict, got %v", err)
			}
		})
	})

	t.Run("visit completion failure aborts", func(t *testing.T) {
		repo := newMockRepo()
		visits := &mockVisitCompleter{
			err: apperr.Conflict("not_completable", "visit is cancelled"),
		}
		svc := newTestService(repo, visits)
		visitID := uuid.New()
		if err := svc.StartForVisit(ctx, visitID, uuid.New(), uuid.New()); err != nil {
			t.Fatalf("StartForVisit: %v", err)
		}
		cons, _ := svc.GetByVisit(ctx, visitID)
		if _, err := svc.Update(ctx, cons.ID, ClinicalUpdate{Diagnosis: ptrStr("flu")}); err != nil {
			t.Fatalf("Update: %v", err)
		}

		_, err := svc.Complete(ctx, cons.ID)
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}

func TestRecordVitals(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	svc := newTestService(repo, &mockVisitCompleter{})
	visitID := uuid.New()

	t.Run("rejects empty measurement set", func(t *testing.T) {
		err := svc.RecordVitals(ctx, &Vitals{VisitID: visitID, RecordedBy: "nurse-1"})
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("accepts diastolic and height alone", func(t *testing.T) {
		diastolic := 80
		height := 172.0
		otherVisit := uuid.New()
		err := svc.RecordVitals(ctx, &Vitals{
			VisitID:       otherVisit,
			RecordedBy:    "nurse-1",
			DiastolicMmHg: &diastolic,
			HeightCm:      &height,
		})
		if err != nil {
			t.Fatalf("RecordVitals: %v", err)
		}
		got, err := svc.VitalsByVisit(ctx, otherVisit)
		if err != nil {
			t.Fatalf("VitalsByVisit: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("vitals count = %d, want 1", len(got))
		}
		if got[0].DiastolicMmHg == nil || *got[0].DiastolicMmHg != diastolic {
			t.Error("diastolic not stored")
		}
		if got[0].HeightCm == nil || *got[0].HeightCm != height {
			t.Error("height not stored")
		}
	})

	t.Run("records one set", func(t *testing.T) {
		temp := 38.2
		pulse := 92
		err := svc.RecordVitals(ctx, &Vitals{
			VisitID:      visitID,
			RecordedBy:   "nurse-1",
			TemperatureC: &temp,
			PulseBPM:     &pulse,
		})
		if err != nil {
			t.Fatalf("RecordVitals: %v", err)
		}
		got, err := svc.VitalsByVisit(ctx, visitID)
		if err != nil {
			t.Fatalf("VitalsByVisit: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("vitals count = %d, want 1", len(got))
		}
		if got[0].TemperatureC == nil || *got[0].TemperatureC != temp {
			t.Error("temperature not stored")
		}
	})
}

func TestAllergiesAndHistory(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	svc := newTestService(repo, &mockVisitCompleter{})
	patientID := uuid.New()

	t.Run("allergy substance required", func(t *testing.T) {
		err := svc.AddAllergy(ctx, &Allergy{PatientID: patientID, NotedBy: "dr-1"})
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("records allergy", func(t *testing.T) {
		err := svc.AddAllergy(ctx, &Allergy{
			PatientID: patientID,
			Substance: "penicillin",
			Severity:  ptrStr("severe"),
			NotedBy:   "dr-1",
		})
		if err != nil {
			t.Fatalf("AddAllergy: %v", err)
		}
		got, _ := svc.ListAllergies(ctx, patientID)
		if len(got) != 1 || got[0].Substance != "penicillin" {
			t.Errorf("allergies = %v", got)
		}
	})

	t.Run("history condition required", func(t *testing.T) {
		err := svc.AddHistory(ctx, &HistoryEntry{PatientID: patientID, NotedBy: "dr-1"})
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("records history", func(t *testing.T) {
		diagnosed := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
		err := svc.AddHistory(ctx, &HistoryEntry{
			PatientID:   patientID,
			Condition:   "type 2 diabetes",
			DiagnosedAt: &diagnosed,
			NotedBy:     "dr-1",
		})
		if err != nil {
			t.Fatalf("AddHistory: %v", err)
		}
		got, _ := svc.ListHistory(ctx, patientID)
		if len(got) != 1 || got[0].Condition != "type 2 diabetes" {
			t.Errorf("history = %v", got)
		}
	})
}
