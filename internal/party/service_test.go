package party

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brokerledger/brokerledger/internal/shared"
)

type memoryPartyRepo struct {
	parties map[int64]*Party
	nextID  int64
}

func newMemoryPartyRepo() *memoryPartyRepo {
	return &memoryPartyRepo{parties: make(map[int64]*Party)}
}

func (r *memoryPartyRepo) Create(ctx context.Context, p Party) (*Party, error) {
	r.nextID++
	p.ID = r.nextID
	r.parties[p.ID] = &p
	copied := p
	return &copied, nil
}

func (r *memoryPartyRepo) Get(ctx context.Context, id int64) (*Party, error) {
	p, ok := r.parties[id]
	if !ok {
		return nil, fmt.Errorf("party %d: %w", id, shared.ErrNotFound)
	}
	copied := *p
	return &copied, nil
}

func (r *memoryPartyRepo) FindByName(ctx context.Context, name string) (*Party, error) {
	for _, p := range r.parties {
		if strings.EqualFold(p.Name, name) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryPartyRepo) List(ctx context.Context, req ListPartiesRequest) ([]Party, int, error) {
	var out []Party
	for _, p := range r.parties {
		if req.IsActive != nil && p.IsActive != *req.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryPartyRepo) Update(ctx context.Context, p Party) (*Party, error) {
	if _, ok := r.parties[p.ID]; !ok {
		return nil, fmt.Errorf("party %d: %w", p.ID, shared.ErrNotFound)
	}
	r.parties[p.ID] = &p
	copied := p
	return &copied, nil
}

func TestCreateParty(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPartyRepo(), nil, nil)

	p, err := svc.Create(ctx, CreatePartyRequest{
		Name:          "  Sharma Textiles ",
		ContactPerson: "R. Sharma",
		Phone:         "+91 98765 43210",
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "Sharma Textiles", p.Name)
	require.True(t, p.IsActive)
}

func TestCreatePartyRejectsDuplicateNameCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPartyRepo(), nil, nil)

	_, err := svc.Create(ctx, CreatePartyRequest{
		Name: "Sharma Textiles", ContactPerson: "R. Sharma", Phone: "1",
	}, 1)
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreatePartyRequest{
		Name: "SHARMA TEXTILES", ContactPerson: "Other", Phone: "2",
	}, 1)
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}

func TestCreatePartyRequiredFields(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPartyRepo(), nil, nil)

	for name, req := range map[string]CreatePartyRequest{
		"missing name":    {ContactPerson: "x", Phone: "1"},
		"missing contact": {Name: "A", Phone: "1"},
		"missing phone":   {Name: "A", ContactPerson: "x"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, req, 1)
			require.Error(t, err)
			require.True(t, shared.IsValidation(err))
		})
	}
}

func TestUpdateParty(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPartyRepo(), nil, nil)

	p, err := svc.Create(ctx, CreatePartyRequest{
		Name: "Sharma Textiles", ContactPerson: "R. Sharma", Phone: "1",
	}, 1)
	require.NoError(t, err)

	phone := "+91 11111 22222"
	email := "office@sharma.example"
	updated, err := svc.Update(ctx, p.ID, UpdatePartyRequest{Phone: &phone, Email: &email}, 1)
	require.NoError(t, err)
	require.Equal(t, phone, updated.Phone)
	require.NotNil(t, updated.Email)
	require.Equal(t, email, *updated.Email)
	// Unchanged fields survive a partial update.
	require.Equal(t, "Sharma Textiles", updated.Name)
}

func TestUpdatePartyRenameCollision(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPartyRepo(), nil, nil)

	_, err := svc.Create(ctx, CreatePartyRequest{Name: "Alpha", ContactPerson: "a", Phone: "1"}, 1)
	require.NoError(t, err)
	p2, err := svc.Create(ctx, CreatePartyRequest{Name: "Beta", ContactPerson: "b", Phone: "2"}, 1)
	require.NoError(t, err)

	name := "alpha"
	_, err = svc.Update(ctx, p2.ID, UpdatePartyRequest{Name: &name}, 1)
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}

func TestDeactivateInsteadOfDelete(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryPartyRepo()
	svc := NewService(repo, nil, nil)

	p, err := svc.Create(ctx, CreatePartyRequest{Name: "Alpha", ContactPerson: "a", Phone: "1"}, 1)
	require.NoError(t, err)

	inactive, err := svc.Deactivate(ctx, p.ID, 1)
	require.NoError(t, err)
	require.False(t, inactive.IsActive)

	// The record is still there, just inactive.
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Alpha", got.Name)
}

func TestUpdateUnknownParty(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPartyRepo(), nil, nil)

	name := "X"
	_, err := svc.Update(ctx, 42, UpdatePartyRequest{Name: &name}, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

type failingRecorder struct {
	calls int
}

func (f *failingRecorder) Record(context.Context, shared.Activity) error {
	f.calls++
	return errors.New("activity store down")
}

func TestCreatePartyToleratesActivityFailure(t *testing.T) {
	ctx := context.Background()
	recorder := &failingRecorder{}
	var buf bytes.Buffer
	svc := NewService(newMemoryPartyRepo(), recorder, slog.New(slog.NewTextHandler(&buf, nil)))

	p, err := svc.Create(ctx, CreatePartyRequest{
		Name: "Sharma Textiles", ContactPerson: "R. Sharma", Phone: "1",
	}, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, 1, recorder.calls)
	require.Contains(t, buf.String(), "record activity")
}
