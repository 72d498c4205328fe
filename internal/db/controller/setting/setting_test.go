package setting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/db/controller/history"
	"github.com/runtime-config/runtime-config/internal/db/controller/scope"
	"github.com/runtime-config/runtime-config/internal/db/dbtest"
	"github.com/runtime-config/runtime-config/internal/db/models"
)

func ptr[T any](v T) *T { return &v }

// setupStore returns a store on a fresh database with a manually advanced clock.
func setupStore(t *testing.T) (*Store, *gorm.DB, *dbtest.Clock) {
	t.Helper()

	db := dbtest.New(t)
	clock := dbtest.NewClock()

	return NewStore(db, WithClock(clock.Now)), db, clock
}

func countSettings(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.Setting{}).Count(&n).Error)

	return n
}

func countHistory(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.SettingHistory{}).Count(&n).Error)

	return n
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	store, db, clock := setupStore(t)
	alice := dbtest.User(t, db, "alice", models.RoleUser)

	_, err := store.Create(ctx, NewSetting{Name: "timeout", Value: ptr("10"), ValueType: models.ValueTypeInteger, Scope: "svc-a"}, alice)
	require.NoError(t, err)

	_, err = scope.GetOrCreate(db, "archived")
	require.NoError(t, err)
	_, err = scope.Archive(db, "archived")
	require.NoError(t, err)

	testCases := []struct {
		name    string
		in      NewSetting
		wantErr error
	}{
		{
			name:    "duplicate name in scope",
			in:      NewSetting{Name: "timeout", Value: ptr("20"), ValueType: models.ValueTypeInteger, Scope: "svc-a"},
			wantErr: ErrSettingAlreadyExists,
		},
		{
			name: "same name in another scope",
			in:   NewSetting{Name: "timeout", Value: ptr("20"), ValueType: models.ValueTypeInteger, Scope: "svc-b"},
		},
		{
			name: "names are case sensitive",
			in:   NewSetting{Name: "Timeout", Value: ptr("20"), ValueType: models.ValueTypeInteger, Scope: "svc-a"},
		},
		{
			name: "null setting",
			in:   NewSetting{Name: "feature", ValueType: models.ValueTypeNull, Scope: "svc-a", Disabled: true},
		},
		{
			name:    "empty name",
			in:      NewSetting{Name: " ", Value: ptr("x"), ValueType: models.ValueTypeString, Scope: "svc-a"},
			wantErr: ErrSettingNameEmpty,
		},
		{
			name:    "unknown value type",
			in:      NewSetting{Name: "ratio", Value: ptr("0.5"), ValueType: "float", Scope: "svc-a"},
			wantErr: models.ErrUnknownValueType,
		},
		{
			name:    "value does not match type",
			in:      NewSetting{Name: "retries", Value: ptr("three"), ValueType: models.ValueTypeInteger, Scope: "svc-a"},
			wantErr: models.ErrValueMismatch,
		},
		{
			name:    "empty scope",
			in:      NewSetting{Name: "retries", Value: ptr("3"), ValueType: models.ValueTypeInteger},
			wantErr: scope.ErrScopeNameEmpty,
		},
		{
			name:    "archived scope",
			in:      NewSetting{Name: "retries", Value: ptr("3"), ValueType: models.ValueTypeInteger, Scope: "archived"},
			wantErr: scope.ErrScopeArchived,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := countSettings(t, db)

			st, err := store.Create(ctx, tc.in, alice)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, st)
				assert.Equal(t, before, countSettings(t, db))

				return
			}

			require.NoError(t, err)
			assert.NotZero(t, st.ID)
			assert.Equal(t, tc.in.Name, st.Name)
			assert.Equal(t, tc.in.Scope, st.Scope.Name)
			assert.Equal(t, clock.Now(), st.UpdatedAt)
			assert.Equal(t, &alice.ID, st.CreatedByID)
			assert.Equal(t, before+1, countSettings(t, db))
		})
	}

	assert.Zero(t, countHistory(t, db), "create must not write history")
}

func TestCreateConflictKind(t *testing.T) {
	ctx := context.Background()
	store, db, _ := setupStore(t)

	in := NewSetting{Name: "timeout", Value: ptr("10"), ValueType: models.ValueTypeInteger, Scope: "svc-a"}

	_, err := store.Create(ctx, in, nil)
	require.NoError(t, err)

	_, err = store.Create(ctx, in, nil)
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, int64(1), countSettings(t, db))
}

// TestLifecycle walks create, edit and delete of one setting and checks the audit trail.
func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	store, db, clock := setupStore(t)
	alice := dbtest.User(t, db, "alice", models.RoleUser)
	bob := dbtest.User(t, db, "bob", models.RoleAdmin)

	created, err := store.Create(ctx, NewSetting{
		Name: "timeout", Value: ptr("10"), ValueType: models.ValueTypeInteger, Scope: "svc-a",
	}, alice)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	createdAt := created.UpdatedAt

	clock.Advance(time.Minute)

	edited, err := store.Edit(ctx, created.ID, Changes{Value: ptr("99"), ValueSet: true}, bob)
	require.NoError(t, err)
	assert.Equal(t, "99", *edited.Value)
	assert.Equal(t, "timeout", edited.Name)
	assert.Equal(t, "svc-a", edited.Scope.Name)
	assert.Equal(t, clock.Now(), edited.UpdatedAt)
	assert.Equal(t, &bob.ID, edited.CreatedByID)

	got, entries, err := store.Get(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "99", *got.Value)
	require.Len(t, entries, 1)
	assert.Equal(t, "10", *entries[0].Value)
	assert.False(t, entries[0].IsDeleted)
	assert.Nil(t, entries[0].DeletedByID)
	assert.Equal(t, &alice.ID, entries[0].CreatedByID)
	assert.True(t, entries[0].UpdatedAt.Equal(createdAt))

	_, entries, err = store.Get(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Empty(t, entries)

	clock.Advance(time.Minute)

	deleted, err := store.Delete(ctx, created.ID, bob)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, _, err = store.Get(ctx, created.ID, false)
	require.ErrorIs(t, err, ErrSettingNotFound)

	entries, err = store.History(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	newest, oldest := entries[0], entries[1]
	assert.True(t, newest.IsDeleted)
	require.NotNil(t, newest.DeletedByID)
	assert.Equal(t, bob.ID, *newest.DeletedByID)
	assert.Equal(t, "99", *newest.Value)
	assert.False(t, oldest.IsDeleted)
	assert.True(t, oldest.UpdatedAt.Before(newest.UpdatedAt))

	seq, err := store.Search(ctx, SearchParams{Name: "time", Scope: "svc-a"})
	require.NoError(t, err)

	found, err := Collect(seq)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	store, db, _ := setupStore(t)

	timeout, err := store.Create(ctx, NewSetting{Name: "timeout", Value: ptr("10"), ValueType: models.ValueTypeInteger, Scope: "svc-a"}, nil)
	require.NoError(t, err)

	_, err = store.Create(ctx, NewSetting{Name: "retries", Value: ptr("3"), ValueType: models.ValueTypeInteger, Scope: "svc-a"}, nil)
	require.NoError(t, err)

	_, err = scope.GetOrCreate(db, "frozen")
	require.NoError(t, err)
	_, err = scope.Archive(db, "frozen")
	require.NoError(t, err)

	testCases := []struct {
		name    string
		id      uint64
		changes Changes
		wantErr error
		check   func(t *testing.T, st *models.Setting)
	}{
		{
			name:    "missing setting",
			id:      999,
			changes: Changes{Disabled: ptr(true)},
			wantErr: ErrSettingNotFound,
		},
		{
			name:    "rename onto existing name",
			id:      timeout.ID,
			changes: Changes{Name: ptr("retries")},
			wantErr: ErrSettingAlreadyExists,
		},
		{
			name:    "empty name",
			id:      timeout.ID,
			changes: Changes{Name: ptr("")},
			wantErr: ErrSettingNameEmpty,
		},
		{
			name:    "type change without matching value",
			id:      timeout.ID,
			changes: Changes{ValueType: ptr(models.ValueTypeBoolean)},
			wantErr: models.ErrValueMismatch,
		},
		{
			name:    "unknown value type",
			id:      timeout.ID,
			changes: Changes{ValueType: ptr(models.ValueType("float"))},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "move into archived scope",
			id:      timeout.ID,
			changes: Changes{Scope: ptr("frozen")},
			wantErr: scope.ErrScopeArchived,
		},
		{
			name:    "disable only",
			id:      timeout.ID,
			changes: Changes{Disabled: ptr(true)},
			check: func(t *testing.T, st *models.Setting) {
				t.Helper()
				assert.True(t, st.Disabled)
				assert.Equal(t, "10", *st.Value)
			},
		},
		{
			name:    "switch to null",
			id:      timeout.ID,
			changes: Changes{ValueType: ptr(models.ValueTypeNull), ValueSet: true},
			check: func(t *testing.T, st *models.Setting) {
				t.Helper()
				assert.Nil(t, st.Value)
				assert.Equal(t, models.ValueTypeNull, st.ValueType)
			},
		},
		{
			name:    "rename and move scope",
			id:      timeout.ID,
			changes: Changes{Name: ptr("request_timeout"), Scope: ptr("svc-b"), ValueType: ptr(models.ValueTypeJSON), Value: ptr(`{"s":5}`), ValueSet: true},
			check: func(t *testing.T, st *models.Setting) {
				t.Helper()
				assert.Equal(t, "request_timeout", st.Name)
				assert.Equal(t, "svc-b", st.Scope.Name)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := countHistory(t, db)

			st, err := store.Edit(ctx, tc.id, tc.changes, nil)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, before, countHistory(t, db), "failed edit must not write history")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, before+1, countHistory(t, db))

			stored, _, err := store.Get(ctx, tc.id, false)
			require.NoError(t, err)
			assert.Equal(t, st.Name, stored.Name)
			tc.check(t, stored)
		})
	}

	// the trail follows the setting across the rename
	_, entries, err := store.Get(ctx, timeout.ID, true)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "timeout", entries[0].Name)
	assert.Equal(t, "svc-a", entries[0].Scope.Name)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store, db, _ := setupStore(t)

	deleted, err := store.Delete(ctx, 42, nil)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Zero(t, countHistory(t, db))

	st, err := store.Create(ctx, NewSetting{Name: "flag", Value: ptr("true"), ValueType: models.ValueTypeBoolean, Scope: "svc-a"}, nil)
	require.NoError(t, err)

	deleted, err = store.Delete(ctx, st.ID, nil)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, st.ID, nil)
	require.NoError(t, err)
	assert.False(t, deleted)

	entries, err := history.ListBySetting(ctx, db, st.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsDeleted)
	assert.Nil(t, entries[0].DeletedByID, "anonymous delete")

	// the name is free again once deleted
	_, err = store.Create(ctx, NewSetting{Name: "flag", Value: ptr("false"), ValueType: models.ValueTypeBoolean, Scope: "svc-a"}, nil)
	require.NoError(t, err)
}

func TestAuditFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	store, db, _ := setupStore(t)

	st, err := store.Create(ctx, NewSetting{Name: "timeout", Value: ptr("10"), ValueType: models.ValueTypeInteger, Scope: "svc-a"}, nil)
	require.NoError(t, err)

	require.NoError(t, db.Migrator().DropTable(&models.SettingHistory{}))

	_, err = store.Edit(ctx, st.ID, Changes{Value: ptr("99"), ValueSet: true}, nil)
	require.ErrorIs(t, err, apperr.ErrInternal)

	deleted, err := store.Delete(ctx, st.ID, nil)
	require.ErrorIs(t, err, apperr.ErrInternal)
	assert.False(t, deleted)

	var stored models.Setting
	require.NoError(t, db.First(&stored, st.ID).Error)
	assert.Equal(t, "10", *stored.Value)
	assert.True(t, stored.UpdatedAt.Equal(st.UpdatedAt))
}

func TestHistoryOfUnknownSetting(t *testing.T) {
	store, _, _ := setupStore(t)

	_, err := store.History(context.Background(), 7)
	require.ErrorIs(t, err, ErrSettingNotFound)
}

func TestNilDB(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	_, err := store.Create(ctx, NewSetting{Name: "x", Value: ptr("x"), ValueType: models.ValueTypeString, Scope: "s"}, nil)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = store.Edit(ctx, 1, Changes{}, nil)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = store.Delete(ctx, 1, nil)
	require.ErrorIs(t, err, ErrDBNil)

	_, _, err = store.Get(ctx, 1, false)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = store.Search(ctx, SearchParams{})
	require.ErrorIs(t, err, ErrDBNil)
}

func seedMany(t *testing.T, store *Store, scopeName string, names ...string) {
	t.Helper()

	for _, name := range names {
		_, err := store.Create(context.Background(), NewSetting{
			Name: name, Value: ptr(name), ValueType: models.ValueTypeString, Scope: scopeName,
		}, nil)
		require.NoError(t, err)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	seedMany(t, store, "svc-a", "timeout", "read_timeout", "Timeout_hint", "retries")
	seedMany(t, store, "svc-b", "timeout", "pool_size")

	testCases := []struct {
		name    string
		params  SearchParams
		want    []string
		wantErr error
	}{
		{
			name:   "substring across scopes",
			params: SearchParams{Name: "time"},
			want:   []string{"timeout", "read_timeout", "timeout"},
		},
		{
			name:   "substring is case sensitive",
			params: SearchParams{Name: "Time"},
			want:   []string{"Timeout_hint"},
		},
		{
			name:   "scope filter",
			params: SearchParams{Name: "time", Scope: "svc-b"},
			want:   []string{"timeout"},
		},
		{
			name:   "scope only",
			params: SearchParams{Scope: "svc-b"},
			want:   []string{"timeout", "pool_size"},
		},
		{
			name:   "unknown scope",
			params: SearchParams{Scope: "svc-x"},
		},
		{
			name:   "offset and limit",
			params: SearchParams{Offset: 1, Limit: 2},
			want:   []string{"read_timeout", "Timeout_hint"},
		},
		{
			name:   "like wildcards are literal",
			params: SearchParams{Name: "_"},
			want:   []string{"read_timeout", "Timeout_hint", "pool_size"},
		},
		{
			name:    "limit above cap",
			params:  SearchParams{Limit: MaxLimit + 1},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "negative offset",
			params:  SearchParams{Offset: -1},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "negative limit",
			params:  SearchParams{Limit: -5},
			wantErr: apperr.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			seq, err := store.Search(ctx, tc.params)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, seq)

				return
			}

			require.NoError(t, err)

			found, err := Collect(seq)
			require.NoError(t, err)

			names := make([]string, 0, len(found))
			for _, st := range found {
				names = append(names, st.Name)
				assert.NotEmpty(t, st.Scope.Name)
			}

			if tc.want == nil {
				assert.Empty(t, names)
			} else {
				assert.Equal(t, tc.want, names)
			}
		})
	}
}

func TestSearchDefaultLimit(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	names := make([]string, 0, DefaultLimit+5)
	for i := range DefaultLimit + 5 {
		names = append(names, fmt.Sprintf("key_%02d", i))
	}

	seedMany(t, store, "svc-a", names...)

	seq, err := store.Search(ctx, SearchParams{Scope: "svc-a"})
	require.NoError(t, err)

	found, err := Collect(seq)
	require.NoError(t, err)
	assert.Len(t, found, DefaultLimit)
}

func TestListByScope(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	names := make([]string, 0, batchSize+10)
	for i := range batchSize + 10 {
		names = append(names, fmt.Sprintf("key_%03d", i))
	}

	seedMany(t, store, "svc-a", names...)
	seedMany(t, store, "svc-b", "other")

	seq, err := store.ListByScope(ctx, "svc-a", 0, 0)
	require.NoError(t, err)

	all, err := Collect(seq)
	require.NoError(t, err)
	require.Len(t, all, len(names))
	assert.Equal(t, names[0], all[0].Name)
	assert.Equal(t, names[len(names)-1], all[len(all)-1].Name)

	seq, err = store.ListByScope(ctx, "svc-a", batchSize-1, 3)
	require.NoError(t, err)

	page, err := Collect(seq)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, names[batchSize-1], page[0].Name)

	// stopping early ends the iteration
	seq, err = store.ListByScope(ctx, "svc-a", 0, 0)
	require.NoError(t, err)

	seen := 0
	for _, err := range seq {
		require.NoError(t, err)
		seen++

		if seen == 2 {
			break
		}
	}

	assert.Equal(t, 2, seen)

	_, err = store.ListByScope(ctx, "svc-a", -1, 0)
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = store.ListByScope(ctx, "", 0, 0)
	require.ErrorIs(t, err, scope.ErrScopeNameEmpty)
}
