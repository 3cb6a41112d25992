package persistence

import (
	"context"
	"testing"

	"github.com/farmacia/backoffice/internal/domain/commission"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCommissionProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCommissionProfileRepository(newTestDB(t))

	_, err := repo.FindByCashier(ctx, "c1")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	tagged := commission.NewTaggedProfile("c1", map[commission.Tag]decimal.Decimal{
		commission.TagExtra:   decimal.NewFromInt(2),
		commission.TagSpecial: decimal.RequireFromString("3.5"),
	}, "b9")
	require.NoError(t, repo.Save(ctx, &tagged))

	got, err := repo.FindByCashier(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, commission.ModeTagged, got.Mode)
	assert.True(t, got.TagPercents[commission.TagSpecial].Equal(decimal.RequireFromString("3.5")))
	assert.Contains(t, got.SpecialBranches, shared.BranchID("b9"))

	flat := commission.NewFlatProfile("c1", decimal.NewFromInt(4))
	require.NoError(t, repo.Save(ctx, &flat))
	got, err = repo.FindByCashier(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, commission.ModeFlat, got.Mode)
	assert.True(t, got.FlatPercent.Equal(decimal.NewFromInt(4)))
	assert.Empty(t, got.TagPercents)

	bad := commission.NewFlatProfile("c2", decimal.NewFromInt(140))
	assert.True(t, shared.IsValidation(repo.Save(ctx, &bad)))
}
