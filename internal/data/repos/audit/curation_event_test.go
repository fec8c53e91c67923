package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/mdb-curator/internal/data/db"
	"github.com/yungbote/mdb-curator/internal/data/dbctx"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrateAll(gdb))
	return gdb
}

func TestCurationEventRepoCreateAndList(t *testing.T) {
	gdb := testDB(t)
	repo := NewCurationEventRepo(gdb, logger.NewNop())
	dbc := dbctx.New(t.Context())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	created, err := repo.Create(dbc, []*vocab.CurationEvent{
		{Operation: "link", Branch: "created_terms_and_concept", Subject: "tumor|NCIt", Object: "neoplasm|NCIt", Details: datatypes.JSON(`{"concept":"c1c1c1"}`), CreatedAt: base},
		{Operation: "merge", Subject: "c1c1c1", Object: "c2c2c2", Operator: "curator", CreatedAt: base.Add(time.Minute)},
		{Operation: "relate", Subject: "c2c2c2", Object: "c3c3c3", CreatedAt: base.Add(2 * time.Minute)},
	})
	require.NoError(t, err)
	require.Len(t, created, 3)
	for _, e := range created {
		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", e.ID.String())
	}

	all, err := repo.List(dbc, EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "relate", all[0].Operation)
	assert.Equal(t, "link", all[2].Operation)
	assert.JSONEq(t, `{"concept":"c1c1c1"}`, string(all[2].Details))

	merges, err := repo.List(dbc, EventFilter{Operation: "merge"})
	require.NoError(t, err)
	require.Len(t, merges, 1)

	byOperator, err := repo.List(dbc, EventFilter{Operator: "curator"})
	require.NoError(t, err)
	require.Len(t, byOperator, 1)
	assert.Equal(t, "merge", byOperator[0].Operation)

	touching, err := repo.List(dbc, EventFilter{Key: "c2c2c2"})
	require.NoError(t, err)
	assert.Len(t, touching, 2)

	recent, err := repo.List(dbc, EventFilter{Since: base.Add(90 * time.Second), Limit: 10})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "relate", recent[0].Operation)
}

func TestCurationEventRepoCreateEmpty(t *testing.T) {
	repo := NewCurationEventRepo(testDB(t), logger.NewNop())
	out, err := repo.Create(dbctx.New(t.Context()), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCurationEventRepoInTransaction(t *testing.T) {
	gdb := testDB(t)
	repo := NewCurationEventRepo(gdb, logger.NewNop())

	tx := gdb.Begin()
	_, err := repo.Create(dbctx.Context{Ctx: t.Context(), Tx: tx}, []*vocab.CurationEvent{{Operation: "delete_term", Subject: "tumor|NCIt"}})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback().Error)

	out, err := repo.List(dbctx.New(t.Context()), EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
