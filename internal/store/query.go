package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Filter：列表查询的可选上级过滤条件，nil 表示不过滤
type Filter struct {
	RegionID   *int64
	ProvinceID *int64
	CityID     *int64
}

type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, arg)
}

func (w *where) String() string { return " WHERE " + strings.Join(w.conds, " AND ") }

// list：同一版本内按编码排序
func (s *Store) list(ctx context.Context, dst any, table string, w *where) error {
	q := s.db.Rebind(`SELECT * FROM ` + table + w.String() + ` ORDER BY code, id`)
	return errors.Wrapf(s.db.SelectContext(ctx, dst, q, w.args...), "list %s", table)
}

func (s *Store) get(ctx context.Context, dst any, table string, versionID, id int64) error {
	q := s.db.Rebind(`SELECT * FROM ` + table + ` WHERE id = ? AND psgc_version_id = ?`)
	if err := s.db.GetContext(ctx, dst, q, id, versionID); err != nil {
		return notFound(err, "get "+table)
	}
	return nil
}

func versionScope(versionID int64) *where {
	w := &where{}
	w.add("psgc_version_id = ?", versionID)
	return w
}

func (s *Store) Regions(ctx context.Context, versionID int64) ([]Region, error) {
	out := []Region{}
	if err := s.list(ctx, &out, tableRegions, versionScope(versionID)); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Region(ctx context.Context, versionID, id int64) (*Region, error) {
	var r Region
	if err := s.get(ctx, &r, tableRegions, versionID, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) Provinces(ctx context.Context, versionID int64, f Filter) ([]Province, error) {
	w := versionScope(versionID)
	if f.RegionID != nil {
		w.add("region_id = ?", *f.RegionID)
	}
	out := []Province{}
	if err := s.list(ctx, &out, tableProvinces, w); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Province(ctx context.Context, versionID, id int64) (*Province, error) {
	var p Province
	if err := s.get(ctx, &p, tableProvinces, versionID, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CitiesMunicipalities(ctx context.Context, versionID int64, f Filter) ([]CityMunicipality, error) {
	w := versionScope(versionID)
	if f.RegionID != nil {
		w.add("region_id = ?", *f.RegionID)
	}
	if f.ProvinceID != nil {
		w.add("province_id = ?", *f.ProvinceID)
	}
	out := []CityMunicipality{}
	if err := s.list(ctx, &out, tableCities, w); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CityMunicipality(ctx context.Context, versionID, id int64) (*CityMunicipality, error) {
	var c CityMunicipality
	if err := s.get(ctx, &c, tableCities, versionID, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) Barangays(ctx context.Context, versionID int64, f Filter) ([]Barangay, error) {
	w := versionScope(versionID)
	if f.RegionID != nil {
		w.add("region_id = ?", *f.RegionID)
	}
	if f.ProvinceID != nil {
		w.add("province_id = ?", *f.ProvinceID)
	}
	if f.CityID != nil {
		w.add("city_municipality_id = ?", *f.CityID)
	}
	out := []Barangay{}
	if err := s.list(ctx, &out, tableBarangays, w); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Barangay(ctx context.Context, versionID, id int64) (*Barangay, error) {
	var b Barangay
	if err := s.get(ctx, &b, tableBarangays, versionID, id); err != nil {
		return nil, err
	}
	return &b, nil
}

// BarangaysByCities：一次取出多个市级单元的村，按市级 id 分组
func (s *Store) BarangaysByCities(ctx context.Context, versionID int64, cityIDs []int64) (map[int64][]Barangay, error) {
	out := make(map[int64][]Barangay, len(cityIDs))
	if len(cityIDs) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(cityIDs)+1)
	args = append(args, versionID)
	for _, id := range cityIDs {
		args = append(args, id)
	}
	q := `SELECT * FROM barangays WHERE psgc_version_id = ? AND city_municipality_id IN (` +
		strings.TrimSuffix(strings.Repeat("?, ", len(cityIDs)), ", ") + `) ORDER BY code, id`
	var rows []Barangay
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "list barangays by cities")
	}
	for _, b := range rows {
		if b.CityMunicipalityID != nil {
			out[*b.CityMunicipalityID] = append(out[*b.CityMunicipalityID], b)
		}
	}
	return out, nil
}
