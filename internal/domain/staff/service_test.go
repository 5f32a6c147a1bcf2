package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicware/clinic-api/internal/platform/apperr"
)

type mockRepo struct {
	doctors map[uuid.UUID]*Doctor
}

func newMockRepo() *mockRepo {
	return &mockRepo{doctors: make(map[uuid.UUID]*Doctor)}
}

func (m *mockRepo) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	d.Active = true
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperr.NotFound("doctor_not_found", "doctor does not exist")
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Doctor, int, error) {
	var out []*Doctor
	for _, d := range m.doctors {
		if activeOnly && !d.Active {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	d, ok := m.doctors[id]
	if !ok {
		return apperr.NotFound("doctor_not_found", "doctor does not exist")
	}
	d.Active = active
	return nil
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockRepo())

	t.Run("creates an active doctor", func(t *testing.T) {
		d := &Doctor{FirstName: "Yaa", LastName: "Osei"}
		if err := svc.Create(ctx, d); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if !d.Active {
			t.Error("new doctor must be active")
		}
	})

	t.Run("requires both names", func(t *testing.T) {
		err := svc.Create(ctx, &Doctor{FirstName: "Yaa"})
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestSetActiveAndList(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	svc := NewService(repo)

	a := &Doctor{FirstName: "Yaa", LastName: "Osei"}
	b := &Doctor{FirstName: "Kwame", LastName: "Boateng"}
	for _, d := range []*Doctor{a, b} {
		if err := svc.Create(ctx, d); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := svc.SetActive(ctx, b.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	active, total, err := svc.List(ctx, true, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(active) != 1 || active[0].ID != a.ID {
		t.Errorf("active list = %d entries, want only the active doctor", len(active))
	}

	_, total, err = svc.List(ctx, false, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("unfiltered total = %d, want 2", total)
	}

	t.Run("unknown doctor is not found", func(t *testing.T) {
		err := svc.SetActive(ctx, uuid.New(), false)
		if !apperr.IsKind(err, apperr.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}
