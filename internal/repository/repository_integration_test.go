//go:build integration

package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/iliyamo/realestate-classifieds/internal/database"
	"github.com/iliyamo/realestate-classifieds/internal/filter"
	"github.com/iliyamo/realestate-classifieds/internal/migrations"
	"github.com/iliyamo/realestate-classifieds/internal/model"
	"github.com/iliyamo/realestate-classifieds/internal/utils"
)

// setupDB starts MySQL in a container and applies the migrations.
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("classifieds"),
		tcmysql.WithUsername("app"),
		tcmysql.WithPassword("secret"),
	)
	require.NoError(t, err, "start mysql container")
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %s", err)
		}
	})

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	var db *sql.DB
	for range 10 {
		db, err = database.Open(database.Options{User: "app", Pass: "secret", Host: host, Port: port.Port(), Name: "classifieds"})
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "connect to mysql")
	t.Cleanup(func() { _ = db.Close() })

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db, filepath.Join(root, "migrations")))
	return db
}

type fixture struct {
	users    *UserRepo
	tokens   *TokenRepo
	roles    *RoleRepo
	quotas   *QuotaRepo
	listings *ListingRepo
	featured *FeaturedRepo
	catalog  *CatalogRepo

	region    uint64
	subRegion uint64
	category  uint64
}

func newFixture(t *testing.T) *fixture {
	db := setupDB(t)
	f := &fixture{
		users:    NewUserRepo(db),
		tokens:   NewTokenRepo(db),
		roles:    NewRoleRepo(db),
		quotas:   NewQuotaRepo(db),
		listings: NewListingRepo(db),
		featured: NewFeaturedRepo(db),
		catalog:  NewCatalogRepo(db),
	}
	ctx := context.Background()
	regions, err := f.catalog.Regions(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, regions)
	subs, err := f.catalog.SubRegions(ctx, regions[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, subs)
	cats, err := f.catalog.Categories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cats)
	f.region, f.subRegion, f.category = regions[0].ID, subs[0].ID, cats[0].ID
	return f
}

func (f *fixture) user(t *testing.T, email string) model.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), NewUser{Email: email, Password: "secret123"}, 4)
	require.NoError(t, err)
	return u
}

func (f *fixture) listing(t *testing.T, owner, title string, at time.Time) model.Listing {
	t.Helper()
	l := model.Listing{
		ID:            uuid.NewString(),
		OwnerID:       owner,
		Title:         title,
		Description:   "Amplia y luminosa",
		Price:         1200,
		OperationType: model.OperationRental,
		RegionID:      f.region,
		SubRegionID:   f.subRegion,
		CategoryID:    f.category,
		Images:        []string{"https://cdn.test/images/a.png"},
		Phone:         "7711234567",
		CreatedAt:     at,
	}
	require.NoError(t, f.listings.Insert(context.Background(), &l))
	return l
}

func TestIntegration_UsersRolesAndTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "Ana@Example.com")
	_, err := f.users.Create(ctx, NewUser{Email: "ana@example.com", Password: "secret123"}, 4)
	assert.ErrorIs(t, err, ErrEmailExists)

	got, err := f.users.GetByEmail(ctx, " ANA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, utils.VerifyPassword(got.PasswordHash, "secret123"))

	_, err = f.roles.GetRole(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, f.roles.SetRole(ctx, u.ID, model.RoleAdmin))
	role, err := f.roles.GetRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)
	assert.ErrorIs(t, f.roles.SetRole(ctx, uuid.NewString(), model.RoleAdmin), ErrNotFound)

	hash := utils.HashRefreshRaw("raw-refresh")
	require.NoError(t, f.tokens.StoreRefresh(ctx, u.ID, hash, time.Now().Add(time.Hour)))
	owner, err := f.tokens.ValidateRefresh(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner)
	require.NoError(t, f.tokens.RevokeByHash(ctx, hash))
	_, err = f.tokens.ValidateRefresh(ctx, hash)
	assert.Error(t, err)
}

func TestIntegration_QuotaReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "quota@example.com")

	q, err := f.quotas.GetQuota(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, q)

	until := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, f.quotas.Replace(ctx, u.ID, 3, &until))
	require.NoError(t, f.quotas.Replace(ctx, u.ID, 5, nil))

	q, err = f.quotas.GetQuota(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, 5, q.Limit)
	assert.Nil(t, q.ValidUntil)

	assert.ErrorIs(t, f.quotas.Replace(ctx, uuid.NewString(), 1, nil), ErrNotFound)

	overview, err := f.users.ListOverview(ctx, 1)
	require.NoError(t, err)
	require.Len(t, overview, 1)
	assert.True(t, overview[0].HasQuota)
	assert.Equal(t, 5, overview[0].Limit)
}

func TestIntegration_ListingLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")

	base := time.Now().UTC().Truncate(time.Millisecond)
	older := f.listing(t, owner.ID, "Casa con jardin", base.Add(-time.Hour))
	newer := f.listing(t, owner.ID, "Departamento centrico", base)

	_, err := f.listings.GetApproved(ctx, older.ID)
	assert.ErrorIs(t, err, ErrNotFound, "new listings start unapproved")

	count, err := f.listings.CountByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, f.listings.SetApproved(ctx, older.ID, true))
	require.NoError(t, f.listings.SetApproved(ctx, newer.ID, true))
	assert.ErrorIs(t, f.listings.SetApproved(ctx, uuid.NewString(), true), ErrNotFound)

	page, total, err := f.listings.ListApproved(ctx, ListingSearchQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, page, 2)
	assert.Equal(t, newer.ID, page[0].ID, "newest first")
	assert.Equal(t, []string{"https://cdn.test/images/a.png"}, page[0].Images)
	assert.NotEmpty(t, page[0].CategoryName)

	page, total, err = f.listings.ListApproved(ctx, ListingSearchQuery{
		Filter: filter.Filter{}.WithQuery("JARDIN"), Page: 1, PageSize: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, page, 1)
	assert.Equal(t, older.ID, page[0].ID)

	title := "Casa con alberca"
	assert.ErrorIs(t, f.listings.Update(ctx, older.ID, other.ID, model.ListingPatch{Title: &title}), ErrForbidden)
	require.NoError(t, f.listings.Update(ctx, older.ID, owner.ID, model.ListingPatch{Title: &title}))
	got, err := f.listings.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)

	bad := model.Listing{ID: uuid.NewString(), OwnerID: owner.ID, Title: "x", Description: "y",
		OperationType: model.OperationSale, RegionID: f.region, SubRegionID: f.subRegion, CategoryID: 99999, Phone: "7711234567"}
	assert.ErrorIs(t, f.listings.Insert(ctx, &bad), ErrNotFound)

	assert.ErrorIs(t, f.listings.Delete(ctx, older.ID, other.ID), ErrForbidden)
	require.NoError(t, f.listings.Delete(ctx, older.ID, owner.ID))
	assert.ErrorIs(t, f.listings.Delete(ctx, older.ID, owner.ID), ErrNotFound)
}

func TestIntegration_FeaturedMarkers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "feat@example.com")
	a := f.listing(t, owner.ID, "A", time.Now().UTC())
	b := f.listing(t, owner.ID, "B", time.Now().UTC())

	require.NoError(t, f.featured.SetFeatured(ctx, b.ID, true))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, f.featured.SetFeatured(ctx, a.ID, true))
	require.NoError(t, f.featured.SetFeatured(ctx, a.ID, true), "featuring twice is idempotent")
	assert.ErrorIs(t, f.featured.SetFeatured(ctx, uuid.NewString(), true), ErrNotFound)

	markers, err := f.featured.ActiveMarkers(ctx)
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, b.ID, markers[0].ListingID)
	assert.Equal(t, a.ID, markers[1].ListingID)

	all, err := f.listings.ListAll(ctx)
	require.NoError(t, err)
	for _, l := range all {
		assert.True(t, l.Featured, l.ID)
	}

	require.NoError(t, f.featured.SetFeatured(ctx, b.ID, false))
	require.NoError(t, f.listings.Delete(ctx, a.ID, owner.ID))
	markers, err = f.featured.ActiveMarkers(ctx)
	require.NoError(t, err)
	assert.Empty(t, markers, "markers go with their listing")
}

func TestIntegration_SubRegionPairing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	regions, err := f.catalog.Regions(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(regions), 2)
	other, err := f.catalog.SubRegions(ctx, regions[1].ID)
	require.NoError(t, err)
	require.NotEmpty(t, other)

	own, err := f.catalog.SubRegion(ctx, f.subRegion)
	require.NoError(t, err)
	assert.Equal(t, f.region, own.RegionID)

	foreign, err := f.catalog.SubRegion(ctx, other[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, f.region, foreign.RegionID, "a sub-region of another region must not pair with this one")

	_, err = f.catalog.SubRegion(ctx, 999999)
	assert.ErrorIs(t, err, ErrNotFound)
}
