package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"product-catalog-client/internal/config"
	"product-catalog-client/internal/domain"
)

// exerciseLocalStore runs the same create/list/delete sequence against any backend.
func exerciseLocalStore(t *testing.T, s LocalStore) {
	t.Helper()
	ctx := context.Background()

	records, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	pen := &domain.LocalProductRecord{
		Name:  "Pen",
		Type:  domain.ProductTypeProduct,
		Price: decimal.NewFromInt(10),
		Tax:   decimal.NewFromInt(5),
	}
	book := &domain.LocalProductRecord{
		ProductID: PtrTo("6F9619FF-8B86-D011-B42D-00C04FC964FF"),
		Name:      "Book",
		Type:      domain.ProductTypeBook,
		Price:     decimal.RequireFromString("12.5"),
		Tax:       decimal.Zero,
		Image:     []byte{0xFF, 0xD8, 0xFF},
		ImageType: "image/jpeg",
	}
	require.NoError(t, s.Create(ctx, pen))
	require.NoError(t, s.Create(ctx, book))
	assert.NotZero(t, pen.ID)
	assert.NotEqual(t, pen.ID, book.ID)
	assert.False(t, pen.CreatedAt.IsZero())

	records, err = s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Pen", records[0].Name)
	assert.Equal(t, "Book", records[1].Name)
	assert.True(t, records[1].Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, records[1].Image)
	require.NotNil(t, records[1].ProductID)
	assert.Equal(t, *book.ProductID, *records[1].ProductID)

	require.NoError(t, s.Delete(ctx, pen.ID))
	require.NoError(t, s.Delete(ctx, pen.ID), "deleting twice is a no-op")
	require.NoError(t, s.Delete(ctx, 9999))

	records, err = s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, book.ID, records[0].ID)
}

func TestSQLiteStore_Roundtrip(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "catalog.db"), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	exerciseLocalStore(t, s)
}

func TestSQLiteStore_ReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, &domain.LocalProductRecord{Name: "Pen", Type: domain.ProductTypeOther}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Pen", records[0].Name)
}

func TestBoltStore_Roundtrip(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "catalog.bolt"), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	exerciseLocalStore(t, s)
}

func TestMemoryStore_Roundtrip(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	exerciseLocalStore(t, s)
}

func TestMemoryStore_CopiesOnCreate(t *testing.T) {
	s := NewMemoryStore()
	img := []byte{1, 2, 3}
	require.NoError(t, s.Create(context.Background(), &domain.LocalProductRecord{Name: "Pen", Image: img}))
	img[0] = 9

	records, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, records[0].Image)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{name: "sqlite", cfg: config.StoreConfig{Driver: config.DriverSQLite, Path: filepath.Join(dir, "a.db")}},
		{name: "bolt", cfg: config.StoreConfig{Driver: config.DriverBolt, Path: filepath.Join(dir, "b.bolt")}},
		{name: "memory", cfg: config.StoreConfig{Driver: config.DriverMemory}},
		{name: "unknown driver", cfg: config.StoreConfig{Driver: "mongo"}, wantErr: true},
		{name: "sqlite in a missing directory", cfg: config.StoreConfig{Driver: config.DriverSQLite, Path: filepath.Join(dir, "nope", "x", "c.db")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.cfg, zap.NewNop())
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, s)
			assert.NoError(t, s.Close())
		})
	}
}
