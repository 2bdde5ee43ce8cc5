// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"psgc-api/internal/logger"
	"psgc-api/internal/metrics"
	"psgc-api/internal/store"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var errBadRequest = errors.New("bad request")

// Options：CacheTTL 为 0 时不写缓存
type Options struct {
	CacheTTL time.Duration
}

type handler struct {
	st  *store.Store
	rc  *redis.Client
	ttl time.Duration
}

// loadFunc：在已解析的版本内取数据；返回 store.ErrNotFound 映射为 404
type loadFunc func(r *http.Request, versionID int64) (any, error)

// 构建并返回只读查询路由：独立 ServeMux 便于在主入口挂载到 ${API_BASE}/psgc 前缀
func BuildRoutes(st *store.Store, rc *redis.Client, opts Options) *http.ServeMux {
	h := &handler{st: st, rc: rc, ttl: opts.CacheTTL}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /regions", h.read("regions", h.regions))
	mux.HandleFunc("GET /regions/{id}", h.read("region", h.region))
	mux.HandleFunc("GET /provinces", h.read("provinces", h.provinces))
	mux.HandleFunc("GET /provinces/{id}", h.read("province", h.province))
	mux.HandleFunc("GET /cities-municipalities", h.read("cities_municipalities", h.cities))
	mux.HandleFunc("GET /cities-municipalities/{id}", h.read("city_municipality", h.city))
	mux.HandleFunc("GET /barangays", h.read("barangays", h.barangays))
	mux.HandleFunc("GET /barangays/{id}", h.read("barangay", h.barangay))

	mux.HandleFunc("GET /versions", h.instrument("versions", func(w http.ResponseWriter, r *http.Request) {
		vs, err := h.st.Versions(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Data: vs})
	}))
	mux.HandleFunc("GET /versions/current", h.instrument("version_current", func(w http.ResponseWriter, r *http.Request) {
		v, err := h.st.CurrentVersion(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Data: v})
	}))
	return mux
}

// 文档注释：版本化只读接口的公共流程
// 背景：先解析 version 参数（缺省为当前版本），再按 版本+路径+查询串 命中 Redis；未命中时查库并回填
// 约束：只缓存 200 响应；Redis 故障不影响查询，仅退化为直查数据库
func (h *handler) read(route string, load loadFunc) http.HandlerFunc {
	return h.instrument(route, func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requested, err := queryID(r, "version")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var vid int64
		if requested != nil {
			vid = *requested
		}
		vid, err = h.st.ResolveVersion(ctx, vid)
		if err != nil {
			writeError(w, r, err)
			return
		}

		key := cacheKey(vid, r)
		if h.rc != nil {
			if b, err := h.rc.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
				metrics.RedisHitsTotal.Inc()
				writeRaw(w, http.StatusOK, b)
				return
			}
			metrics.RedisMissesTotal.Inc()
		}

		data, err := load(r, vid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		b, err := json.Marshal(envelope{Data: data})
		if err != nil {
			writeError(w, r, err)
			return
		}
		if h.rc != nil && h.ttl > 0 {
			if err := h.rc.Set(ctx, key, b, h.ttl).Err(); err != nil {
				logger.L().Warn("redis_set_error", "key", key, "err", err)
			}
		}
		writeRaw(w, http.StatusOK, b)
	})
}

func cacheKey(versionID int64, r *http.Request) string {
	return "psgc:v" + strconv.FormatInt(versionID, 10) + ":" + r.URL.Path + "?" + r.URL.RawQuery
}

func (h *handler) regions(r *http.Request, vid int64) (any, error) {
	return h.st.Regions(r.Context(), vid)
}

func (h *handler) region(r *http.Request, vid int64) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	reg, err := h.st.Region(r.Context(), vid, id)
	if err != nil {
		return nil, err
	}
	ps, err := h.st.Provinces(r.Context(), vid, store.Filter{RegionID: &id})
	if err != nil {
		return nil, err
	}
	return regionDetail{Region: *reg, Provinces: ps}, nil
}

func (h *handler) provinces(r *http.Request, vid int64) (any, error) {
	regionID, err := queryID(r, "region_id")
	if err != nil {
		return nil, err
	}
	return h.st.Provinces(r.Context(), vid, store.Filter{RegionID: regionID})
}

func (h *handler) province(r *http.Request, vid int64) (any, error) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	p, err := h.st.Province(ctx, vid, id)
	if err != nil {
		return nil, err
	}
	out := provinceDetail{Province: *p}
	if p.RegionID != nil {
		if out.Region, err = h.st.Region(ctx, vid, *p.RegionID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if out.CitiesMunicipalities, err = h.st.CitiesMunicipalities(ctx, vid, store.Filter{ProvinceID: &id}); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *handler) cities(r *http.Request, vid int64) (any, error) {
	ctx := r.Context()
	var f store.Filter
	var err error
	if f.RegionID, err = queryID(r, "region_id"); err != nil {
		return nil, err
	}
	if f.ProvinceID, err = queryID(r, "province_id"); err != nil {
		return nil, err
	}
	cs, err := h.st.CitiesMunicipalities(ctx, vid, f)
	if err != nil {
		return nil, err
	}
	if r.URL.Query().Get("include") != "barangays" {
		return cs, nil
	}
	ids := make([]int64, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	byCity, err := h.st.BarangaysByCities(ctx, vid, ids)
	if err != nil {
		return nil, err
	}
	out := make([]cityDetail, len(cs))
	for i, c := range cs {
		bs := byCity[c.ID]
		if bs == nil {
			bs = []store.Barangay{}
		}
		out[i] = cityDetail{CityMunicipality: c, Barangays: bs}
	}
	return out, nil
}

func (h *handler) city(r *http.Request, vid int64) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	c, err := h.st.CityMunicipality(r.Context(), vid, id)
	if err != nil {
		return nil, err
	}
	bs, err := h.st.Barangays(r.Context(), vid, store.Filter{CityID: &id})
	if err != nil {
		return nil, err
	}
	return cityDetail{CityMunicipality: *c, Barangays: bs}, nil
}

func (h *handler) barangays(r *http.Request, vid int64) (any, error) {
	var f store.Filter
	var err error
	if f.RegionID, err = queryID(r, "region_id"); err != nil {
		return nil, err
	}
	if f.ProvinceID, err = queryID(r, "province_id"); err != nil {
		return nil, err
	}
	if f.CityID, err = queryID(r, "city_municipality_id"); err != nil {
		return nil, err
	}
	return h.st.Barangays(r.Context(), vid, f)
}

func (h *handler) barangay(r *http.Request, vid int64) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return h.st.Barangay(r.Context(), vid, id)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(errBadRequest, "invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// queryID：参数缺省返回 nil；非正整数为 400
func queryID(r *http.Request, name string) (*int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.Wrapf(errBadRequest, "invalid %s %q", name, s)
	}
	return &id, nil
}
