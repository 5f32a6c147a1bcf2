package prescription

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/domain/consultation"
	"github.com/clinicware/clinic-api/internal/platform/apperr"
)

type mockRepo struct {
	prescriptions map[uuid.UUID]*Prescription
	items         map[uuid.UUID]*Item
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		prescriptions: make(map[uuid.UUID]*Prescription),
		items:         make(map[uuid.UUID]*Item),
	}
}

func (m *mockRepo) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	cp := *p
	cp.Items = nil
	m.prescriptions[p.ID] = &cp
	return nil
}

func (m *mockRepo) CreateItem(ctx context.Context, item *Item) error {
	item.ID = uuid.New()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, apperr.NotFound("prescription_not_found", "prescription does not exist")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*Prescription, error) {
	for _, p := range m.prescriptions {
		if p.ConsultationID == consultationID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("prescription_not_found", "prescription does not exist")
}

func (m *mockRepo) ListItems(ctx context.Context, prescriptionID uuid.UUID) ([]*Item, error) {
	var out []*Item
	for _, it := range m.items {
		if it.PrescriptionID == prescriptionID {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) GetItemForUpdate(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	it, ok := m.items[itemID]
	if !ok {
		return nil, apperr.NotFound("prescription_item_not_found", "prescription item does not exist")
	}
	cp := *it
	return &cp, nil
}

func (m *mockRepo) UpdateItem(ctx context.Context, item *Item) error {
	if _, ok := m.items[item.ID]; !ok {
		return apperr.NotFound("prescription_item_not_found", "prescription item does not exist")
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockRepo) ListPending(ctx context.Context, limit, offset int) ([]*PendingRow, int, error) {
	var out []*PendingRow
	for _, it := range m.items {
		if it.Status != ItemPending {
			continue
		}
		row := &PendingRow{Item: *it, PatientName: "Patient", DoctorName: "Doctor"}
		out = append(out, row)
	}
	return out, len(out), nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockConsultations struct {
	cons map[uuid.UUID]*consultation.Consultation
}

func (m *mockConsultations) Get(ctx context.Context, id uuid.UUID) (*consultation.Consultation, error) {
	c, ok := m.cons[id]
	if !ok {
		return nil, apperr.NotFound("consultation_not_found", "consultation does not exist")
	}
	return c, nil
}

func fixture() (*Service, *mockRepo, *consultation.Consultation) {
	repo := newMockRepo()
	cons := &consultation.Consultation{
		ID:        uuid.New(),
		VisitID:   uuid.New(),
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Status:    consultation.StatusInProgress,
	}
	svc := NewService(repo, passthroughTx{}, &mockConsultations{
		cons: map[uuid.UUID]*consultation.Consultation{cons.ID: cons},
	}, zerolog.Nop())
	return svc, repo, cons
}

func validInput(consultationID uuid.UUID) CreateInput {
	return CreateInput{
		ConsultationID: consultationID,
		Items: []ItemInput{
			{DrugName: "amoxicillin", Dosage: "500mg", Frequency: "3x daily", DurationDays: 7, Quantity: 21},
			{DrugName: "paracetamol", Dosage: "1g", Frequency: "as needed", DurationDays: 5, Quantity: 10},
		},
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates prescription with items", func(t *testing.T) {
		svc, _, cons := fixture()
		p, err := svc.Create(ctx, validInput(cons.ID))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if p.PatientID != cons.PatientID || p.DoctorID != cons.DoctorID {
			t.Error("prescription must inherit patient and doctor from the consultation")
		}
		if len(p.Items) != 2 {
			t.Fatalf("items = %d, want 2", len(p.Items))
		}
		for _, it := range p.Items {
			if it.Status != ItemPending {
				t.Errorf("item status = %s, want %s", it.Status, ItemPending)
			}
		}
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		svc, _, cons := fixture()
		_, err := svc.Create(ctx, CreateInput{ConsultationID: cons.ID})
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects blank drug name", func(t *testing.T) {
		svc, _, cons := fixture()
		in := validInput(cons.ID)
		in.Items[0].DrugName = "  "
		_, err := svc.Create(ctx, in)
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc, _, cons := fixture()
		in := validInput(cons.ID)
		in.Items[1].Quantity = 0
		_, err := svc.Create(ctx, in)
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("unknown consultation is not found", func(t *testing.T) {
		svc, _, _ := fixture()
		_, err := svc.Create(ctx, validInput(uuid.New()))
		if !apperr.IsKind(err, apperr.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("second prescription per consultation conflicts", func(t *testing.T) {
		svc, _, cons := fixture()
		if _, err := svc.Create(ctx, validInput(cons.ID)); err != nil {
			t.Fatalf("first Create: %v", err)
		}
		_, err := svc.Create(ctx, validInput(cons.ID))
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}

func TestDispenseItem(t *testing.T) {
	ctx := context.Background()
	svc, _, cons := fixture()

	p, err := svc.Create(ctx, validInput(cons.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	itemID := p.Items[0].ID

	t.Run("dispenses a pending item", func(t *testing.T) {
		it, err := svc.DispenseItem(ctx, itemID, "pharmacist-7")
		if err != nil {
			t.Fatalf("DispenseItem: %v", err)
		}
		if it.Status != ItemDispensed {
			t.Errorf("status = %s, want %s", it.Status, ItemDispensed)
		}
		if it.DispensedBy == nil || *it.DispensedBy != "pharmacist-7" {
			t.Error("dispenser not recorded")
		}
		if it.DispensedAt == nil {
			t.Error("dispensed_at not set")
		}
	})

	t.Run("double dispense conflicts", func(t *testing.T) {
		_, err := svc.DispenseItem(ctx, itemID, "pharmacist-8")
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("other item still pending", func(t *testing.T) {
		rows, total, err := svc.ListPending(ctx, 20, 0)
		if err != nil {
			t.Fatalf("ListPending: %v", err)
		}
		if total != 1 || len(rows) != 1 {
			t.Fatalf("pending = %d, want 1", total)
		}
		if rows[0].ID != p.Items[1].ID {
			t.Error("wrong item left pending")
		}
	})

	t.Run("unknown item is not found", func(t *testing.T) {
		_, err := svc.DispenseItem(ctx, uuid.New(), "pharmacist-7")
		if !apperr.IsKind(err, apperr.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestGetByConsultation(t *testing.T) {
	ctx := context.Background()
	svc, _, cons := fixture()

	created, err := svc.Create(ctx, validInput(cons.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.GetByConsultation(ctx, cons.ID)
	if err != nil {
		t.Fatalf("GetByConsultation: %v", err)
	}
	if got.ID != created.ID {
		t.Error("wrong prescription resolved")
	}
	if len(got.Items) != 2 {
		t.Errorf("items = %d, want 2", len(got.Items))
	}
}
