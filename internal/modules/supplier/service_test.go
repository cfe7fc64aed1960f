package supplier

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

func TestSupplierLifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	sup, err := svc.CreateSupplier(ctx, SupplierRequest{Name: " Lusaka Poultry ", Email: "Orders@LusakaPoultry.co.zm"})
	require.NoError(t, err)
	assert.Equal(t, "Lusaka Poultry", sup.Name)
	assert.Equal(t, "orders@lusakapoultry.co.zm", sup.Email)
	assert.True(t, sup.IsActive)

	_, err = svc.CreateSupplier(ctx, SupplierRequest{Name: "Lusaka Poultry"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	_, err = svc.CreateSupplier(ctx, SupplierRequest{Name: "Farm Fresh"})
	require.NoError(t, err)

	_, err = svc.SetActive(ctx, sup.ID.String(), false)
	require.NoError(t, err)

	active, err := repo.CountSuppliers(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
	all, err := repo.CountSuppliers(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, all)

	updated, err := svc.UpdateSupplier(ctx, sup.ID.String(), SupplierRequest{Name: "Lusaka Poultry Ltd", Phone: "+260 97 000 0000"})
	require.NoError(t, err)
	assert.Equal(t, "Lusaka Poultry Ltd", updated.Name)
	assert.False(t, updated.IsActive, "update keeps the active flag")
}

func TestSupplierValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	tests := []struct {
		name  string
		req   SupplierRequest
		field string
	}{
		{"missing name", SupplierRequest{}, "name"},
		{"bad email", SupplierRequest{Name: "X", Email: "not-an-email"}, "email"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSupplier(ctx, tc.req)
			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	_, err := svc.GetSupplier(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
