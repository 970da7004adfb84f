package services

import (
	"context"
	"errors"
	"testing"

	"epi-etl/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func loadCountry(t *testing.T, db *gorm.DB, name string) models.Country {
	t.Helper()
	var c models.Country
	require.NoError(t, db.Where("name = ?", name).First(&c).Error)
	return c
}

func TestReconcileCreatesWithNullAttributes(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, zaptest.NewLogger(t))

	ids, err := r.Reconcile(context.Background(), []CountryCandidate{
		{Name: "X", Region: strPtr("Europe")},
		{Name: "Y"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	x := loadCountry(t, db, "X")
	assert.Equal(t, ids["X"], x.ID)
	require.NotNil(t, x.Region)
	assert.Equal(t, "Europe", *x.Region)
	assert.Nil(t, x.GeoCode)

	y := loadCountry(t, db, "Y")
	assert.Nil(t, y.GeoCode)
	assert.Nil(t, y.Region)
}

func TestReconcileMonotonicMerge(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := r.Reconcile(ctx, []CountryCandidate{{Name: "X", Region: strPtr("Europe")}})
	require.NoError(t, err)

	// abweichende Region darf nichts ändern
	_, err = r.Reconcile(ctx, []CountryCandidate{{Name: "X", Region: strPtr("Africa")}})
	require.NoError(t, err)
	assert.Equal(t, "Europe", *loadCountry(t, db, "X").Region)

	// fehlender Code wird ergänzt
	_, err = r.Reconcile(ctx, []CountryCandidate{{Name: "X", GeoCode: strPtr("XX")}})
	require.NoError(t, err)
	x := loadCountry(t, db, "X")
	require.NotNil(t, x.GeoCode)
	assert.Equal(t, "XX", *x.GeoCode)
	assert.Equal(t, "Europe", *x.Region)

	// unbekannte Attribute leeren nichts
	_, err = r.Reconcile(ctx, []CountryCandidate{{Name: "X", GeoCode: strPtr(""), Region: nil}})
	require.NoError(t, err)
	x = loadCountry(t, db, "X")
	assert.Equal(t, "XX", *x.GeoCode)
	assert.Equal(t, "Europe", *x.Region)

	assert.EqualValues(t, 1, countRows(t, db, &models.Country{}))
}

func TestReconcileIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, zaptest.NewLogger(t))
	candidates := []CountryCandidate{{Name: "X", GeoCode: strPtr("XX")}, {Name: "Y"}}

	first, err := r.Reconcile(context.Background(), candidates)
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background(), candidates)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 2, countRows(t, db, &models.Country{}))
}

func TestReconcileEmpty(t *testing.T) {
	db := newTestDB(t)
	ids, err := NewReconciler(db, zaptest.NewLogger(t)).Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestReconcileRollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_on_y", func(tx *gorm.DB) {
		if c, ok := tx.Statement.Dest.(*models.Country); ok && c.Name == "Y" {
			tx.AddError(errors.New("disk full"))
		}
	}))

	ids, err := NewReconciler(db, zaptest.NewLogger(t)).Reconcile(context.Background(), []CountryCandidate{
		{Name: "X"},
		{Name: "Y"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Y"`)
	assert.Nil(t, ids)
	assert.EqualValues(t, 0, countRows(t, db, &models.Country{}), "X must be rolled back as well")
}
