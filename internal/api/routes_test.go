package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"psgc-api/internal/config"
	"psgc-api/internal/ingest"
	"psgc-api/internal/psgc"
	"psgc-api/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(config.DBOptions{Driver: "sqlite3", SQLitePath: filepath.Join(t.TempDir(), "psgc.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, st *store.Store, units ...psgc.Unit) int64 {
	t.Helper()
	b := psgc.NewBuckets()
	for _, u := range units {
		b.Add(u)
	}
	res, err := st.WriteSnapshot(context.Background(), psgc.Resolve(b), psgc.SnapshotMeta{Quarter: "1Q", Year: "2025"})
	require.NoError(t, err)
	return res.SnapshotID
}

func ilocos() []psgc.Unit {
	return []psgc.Unit{
		{Code: "0100000000", Name: "Region I", Level: psgc.LevelRegion},
		{Code: "0128000000", Name: "Ilocos Norte", Level: psgc.LevelProvince},
		{Code: "0128010000", Name: "Laoag City", Level: psgc.LevelCity, CityClass: "CC"},
		{Code: "0128010001", Name: "San Lorenzo", Level: psgc.LevelBarangay},
		{Code: "0128010002", Name: "Santa Joaquina", Level: psgc.LevelBarangay},
		{Code: "0128020000", Name: "Adams", Level: psgc.LevelMunicipality},
	}
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

type itemResponse[T any] struct {
	Data T `json:"data"`
}

func get(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("content-type"))
	if out != nil && rr.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
	}
	return rr.Code
}

func TestListAndDetail(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, ilocos()...)
	h := BuildRoutes(st, nil, Options{})

	var regions listResponse[store.Region]
	require.Equal(t, http.StatusOK, get(t, h, "/regions", &regions))
	require.Len(t, regions.Data, 1)
	regionID := regions.Data[0].ID
	assert.Equal(t, "0100000000", regions.Data[0].Code)

	var rd itemResponse[regionDetail]
	require.Equal(t, http.StatusOK, get(t, h, "/regions/"+strconv.FormatInt(regionID, 10), &rd))
	require.Len(t, rd.Data.Provinces, 1)
	provinceID := rd.Data.Provinces[0].ID

	var pd itemResponse[provinceDetail]
	require.Equal(t, http.StatusOK, get(t, h, "/provinces/"+strconv.FormatInt(provinceID, 10), &pd))
	require.NotNil(t, pd.Data.Region)
	assert.Equal(t, regionID, pd.Data.Region.ID)
	assert.Len(t, pd.Data.CitiesMunicipalities, 2)

	var cities listResponse[store.CityMunicipality]
	require.Equal(t, http.StatusOK, get(t, h, "/cities-municipalities?province_id="+strconv.FormatInt(provinceID, 10), &cities))
	require.Len(t, cities.Data, 2)
	laoag := cities.Data[0]
	assert.Equal(t, "Laoag City", laoag.Name)

	var cd itemResponse[cityDetail]
	require.Equal(t, http.StatusOK, get(t, h, "/cities-municipalities/"+strconv.FormatInt(laoag.ID, 10), &cd))
	assert.Len(t, cd.Data.Barangays, 2)

	var bgys listResponse[store.Barangay]
	require.Equal(t, http.StatusOK, get(t, h, "/barangays?city_municipality_id="+strconv.FormatInt(laoag.ID, 10), &bgys))
	require.Len(t, bgys.Data, 2)
	var bd itemResponse[store.Barangay]
	require.Equal(t, http.StatusOK, get(t, h, "/barangays/"+strconv.FormatInt(bgys.Data[0].ID, 10), &bd))
	assert.Equal(t, "0128010001", bd.Data.Code)
}

func TestIncludeBarangays(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, ilocos()...)
	h := BuildRoutes(st, nil, Options{})

	var out listResponse[cityDetail]
	require.Equal(t, http.StatusOK, get(t, h, "/cities-municipalities?include=barangays", &out))
	require.Len(t, out.Data, 2)
	assert.Len(t, out.Data[0].Barangays, 2)
	assert.NotNil(t, out.Data[1].Barangays)
	assert.Empty(t, out.Data[1].Barangays)
}

func TestVersionParameterScopesReads(t *testing.T) {
	st := newTestStore(t)
	first := seed(t, st, ilocos()[:1]...)
	seed(t, st, ilocos()...)
	h := BuildRoutes(st, nil, Options{})

	var current listResponse[store.Province]
	require.Equal(t, http.StatusOK, get(t, h, "/provinces", &current))
	assert.Len(t, current.Data, 1)

	var old listResponse[store.Province]
	require.Equal(t, http.StatusOK, get(t, h, "/provinces?version="+strconv.FormatInt(first, 10), &old))
	assert.Empty(t, old.Data)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/provinces?version=9999", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/provinces?version=abc", nil))
}

func TestNotFoundAndBadRequest(t *testing.T) {
	st := newTestStore(t)
	h := BuildRoutes(st, nil, Options{})
	// 尚无任何版本
	assert.Equal(t, http.StatusNotFound, get(t, h, "/regions", nil))

	seed(t, st, ilocos()...)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/regions/424242", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/regions/abc", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/barangays?region_id=-1", nil))
}

func TestVersionsEndpoints(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, ilocos()[:1]...)
	second := seed(t, st, ilocos()...)
	h := BuildRoutes(st, nil, Options{})

	var vs listResponse[store.Version]
	require.Equal(t, http.StatusOK, get(t, h, "/versions", &vs))
	assert.Len(t, vs.Data, 2)

	var cur itemResponse[store.Version]
	require.Equal(t, http.StatusOK, get(t, h, "/versions/current", &cur))
	assert.Equal(t, second, cur.Data.ID)
	assert.Equal(t, 4, cur.Data.BarangaysCount+cur.Data.CitiesMunicipalitiesCount)
}

func TestRedisUnavailableFallsBackToDatabase(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, ilocos()...)
	rc := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rc.Close() })
	h := BuildRoutes(st, rc, Options{CacheTTL: time.Minute})

	var regions listResponse[store.Region]
	require.Equal(t, http.StatusOK, get(t, h, "/regions", &regions))
	assert.Len(t, regions.Data, 1)
}

func TestCacheKeyIncludesVersionAndQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/provinces?region_id=3", nil)
	assert.Equal(t, "psgc:v7:/provinces?region_id=3", cacheKey(7, r))
}

type fakeStarter struct {
	err  error
	opts ingest.SyncOptions
}

func (f *fakeStarter) Start(_ context.Context, opts ingest.SyncOptions, _ func(ingest.Result, error)) error {
	f.opts = opts
	return f.err
}

func TestSyncHandler(t *testing.T) {
	post := func(h http.Handler, token, target string) int {
		req := httptest.NewRequest(http.MethodPost, target, nil)
		if token != "" {
			req.Header.Set("x-admin-token", token)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	f := &fakeStarter{}
	h := SyncHandler(f, "secret")
	assert.Equal(t, http.StatusForbidden, post(h, "", "/admin/sync"))
	assert.Equal(t, http.StatusForbidden, post(h, "wrong", "/admin/sync"))
	assert.Equal(t, http.StatusAccepted, post(h, "secret", "/admin/sync?force=true"))
	assert.True(t, f.opts.Force)

	f.err = ingest.ErrSyncInProgress
	assert.Equal(t, http.StatusConflict, post(h, "secret", "/admin/sync"))

	assert.Equal(t, http.StatusForbidden, post(SyncHandler(f, ""), "", "/admin/sync"))
}
