package store

import (
	"context"
	"strings"

	"psgc-api/internal/logger"
	"psgc-api/internal/psgc"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	tableRegions   = "regions"
	tableProvinces = "provinces"
	tableCities    = "cities_municipalities"
	tableBarangays = "barangays"
)

// progressEvery：每写入多少行输出一次进度日志
const progressEvery = 5000

// 文档注释：在单个事务内把计划写入一个版本
// 背景：按 区域 -> 省级 -> 市级 -> 村 的顺序写入，下级关联时上级代理主键已确定；
// 重复导入同一版本时按自然键更新已有行，不产生重复记录
// 约束：任一语句失败整体回滚（不留下任何行与版本记录，当前版本指针不变）；
// 当前版本切换是提交前最后一步：先清空其他版本标记，再标记本版本
// 返回：Created 只统计本次新建的行
func (s *Store) WriteSnapshot(ctx context.Context, plan *psgc.Plan, meta psgc.SnapshotMeta) (psgc.WriteResult, error) {
	var res psgc.WriteResult
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, errors.Wrap(err, "begin snapshot tx")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	w := &snapshotWriter{tx: tx, ctx: ctx, hook: s.beforeLevel}
	if err := w.openVersion(meta); err != nil {
		return res, err
	}
	if err := w.writeRegions(plan.Regions); err != nil {
		return res, err
	}
	if err := w.writeProvinces(plan.Provinces); err != nil {
		return res, err
	}
	if err := w.writeCities(plan.Cities); err != nil {
		return res, err
	}
	if err := w.writeBarangays(plan.Barangays); err != nil {
		return res, err
	}
	if err := w.addCounts(); err != nil {
		return res, err
	}
	if err := swapCurrent(ctx, tx, w.versionID); err != nil {
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, errors.Wrap(err, "commit snapshot tx")
	}
	committed = true
	res.SnapshotID = w.versionID
	res.Created = w.created
	logger.L().Info("snapshot_write_done",
		"snapshot_id", w.versionID,
		"regions", w.created.Regions,
		"provinces", w.created.Provinces,
		"cities_municipalities", w.created.CitiesMunicipalities,
		"barangays", w.created.Barangays,
	)
	return res, nil
}

// swapCurrent：两条语句的顺序不可交换，否则部分唯一索引会在中间状态冲突
func swapCurrent(ctx context.Context, tx *sqlx.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE psgc_versions SET is_current = FALSE, updated_at = CURRENT_TIMESTAMP WHERE is_current AND id <> ?`), id); err != nil {
		return errors.Wrap(err, "unset current snapshot")
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE psgc_versions SET is_current = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = ?`), id); err != nil {
		return errors.Wrap(err, "set current snapshot")
	}
	return nil
}

type snapshotWriter struct {
	tx   *sqlx.Tx
	ctx  context.Context
	hook func(table string) error

	versionID int64
	created   psgc.Counts
	written   int

	regions   psgc.IDs
	provinces psgc.IDs
	cities    psgc.IDs
}

func (w *snapshotWriter) openVersion(meta psgc.SnapshotMeta) error {
	if meta.SnapshotID != 0 {
		var id int64
		err := w.tx.GetContext(w.ctx, &id, w.tx.Rebind(`SELECT id FROM psgc_versions WHERE id = ?`), meta.SnapshotID)
		if err != nil {
			return notFound(err, "lookup snapshot")
		}
		if _, err := w.tx.ExecContext(w.ctx, w.tx.Rebind(`UPDATE psgc_versions SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`), id); err != nil {
			return errors.Wrap(err, "touch snapshot")
		}
		w.versionID = id
		return nil
	}
	q := w.tx.Rebind(`INSERT INTO psgc_versions(quarter, year, publication_date, download_url, filename, is_current)
		VALUES(?, ?, ?, ?, ?, FALSE) RETURNING id`)
	err := w.tx.GetContext(w.ctx, &w.versionID, q,
		nullString(meta.Quarter), nullString(meta.Year), meta.PublicationDate,
		nullString(meta.DownloadURL), nullString(meta.Filename))
	return errors.Wrap(err, "create snapshot")
}

func (w *snapshotWriter) enter(table string, n int) error {
	logger.L().Debug("snapshot_write_level", "table", table, "rows", n, "snapshot_id", w.versionID)
	if w.hook != nil {
		return w.hook(table)
	}
	return nil
}

func (w *snapshotWriter) progress() {
	w.written++
	if w.written%progressEvery == 0 {
		logger.L().Info("snapshot_write_progress", "count", w.written, "snapshot_id", w.versionID)
	}
}

// upsert：先按自然键查找，命中则更新，否则插入并返回新主键
// 约束：cols 与 vals 一一对应，不含 psgc_version_id（由写入器补充）
func (w *snapshotWriter) upsert(table, lookup string, lookupArgs []any, cols []string, vals []any) (int64, bool, error) {
	var id int64
	err := w.tx.GetContext(w.ctx, &id, w.tx.Rebind(lookup), lookupArgs...)
	switch {
	case err == nil:
		sets := make([]string, 0, len(cols)+1)
		for _, c := range cols {
			sets = append(sets, c+" = ?")
		}
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		q := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		args := append(append([]any{}, vals...), id)
		if _, err := w.tx.ExecContext(w.ctx, w.tx.Rebind(q), args...); err != nil {
			return 0, false, errors.Wrapf(err, "update %s", table)
		}
		return id, false, nil
	case isNoRows(err):
		all := append(append([]string{}, cols...), "psgc_version_id")
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(all)), ", ")
		q := "INSERT INTO " + table + "(" + strings.Join(all, ", ") + ") VALUES(" + marks + ") RETURNING id"
		args := append(append([]any{}, vals...), w.versionID)
		if err := w.tx.GetContext(w.ctx, &id, w.tx.Rebind(q), args...); err != nil {
			return 0, false, errors.Wrapf(err, "insert %s", table)
		}
		return id, true, nil
	default:
		return 0, false, errors.Wrapf(err, "lookup %s", table)
	}
}

func unitValues(u psgc.Unit) []any {
	return []any{u.Code, u.Name, nullString(u.OldName), nullString(u.CorrespondenceCode), string(u.Level)}
}

var unitCols = []string{"code", "name", "old_name", "correspondence_code", "geographic_level"}

func withCols(extra ...string) []string {
	return append(append([]string{}, unitCols...), extra...)
}

func (w *snapshotWriter) writeRegions(items []psgc.RegionPlan) error {
	if err := w.enter(tableRegions, len(items)); err != nil {
		return err
	}
	w.regions = make(psgc.IDs, len(items))
	lookup := `SELECT id FROM regions WHERE code = ? AND psgc_version_id = ?`
	for _, r := range items {
		id, created, err := w.upsert(tableRegions, lookup, []any{r.Unit.Code, w.versionID}, unitCols, unitValues(r.Unit))
		if err != nil {
			return err
		}
		w.regions[r.Unit.Code] = id
		if created {
			w.created.Regions++
		}
		w.progress()
	}
	return nil
}

func (w *snapshotWriter) writeProvinces(items []psgc.ProvincePlan) error {
	if err := w.enter(tableProvinces, len(items)); err != nil {
		return err
	}
	w.provinces = make(psgc.IDs, len(items))
	cols := withCols("region_code", "region_id", "is_capital", "is_virtual", "is_elevated_city")
	lookup := `SELECT id FROM provinces WHERE code = ? AND psgc_version_id = ?`
	for _, p := range items {
		lp := psgc.LinkProvince(p, w.regions)
		vals := append(unitValues(p.Unit),
			nullString(p.RegionCode), lp.RegionID,
			false, p.Kind == psgc.ProvinceVirtual, p.Kind == psgc.ProvinceElevated)
		id, created, err := w.upsert(tableProvinces, lookup, []any{p.Unit.Code, w.versionID}, cols, vals)
		if err != nil {
			return err
		}
		w.provinces[p.Unit.Code] = id
		if created {
			w.created.Provinces++
		}
		w.progress()
	}
	return nil
}

// writeCities：市级自然键包含可空的省级外键，比较时按 COALESCE(province_id, 0) 处理 NULL
func (w *snapshotWriter) writeCities(items []psgc.CityPlan) error {
	if err := w.enter(tableCities, len(items)); err != nil {
		return err
	}
	w.cities = make(psgc.IDs, len(items))
	cols := withCols("city_class", "region_code", "province_code", "region_id", "province_id")
	lookup := `SELECT id FROM cities_municipalities
		WHERE code = ? AND psgc_version_id = ? AND COALESCE(province_id, 0) = COALESCE(CAST(? AS BIGINT), 0)`
	for _, c := range items {
		lc := psgc.LinkCity(c, w.regions, w.provinces)
		vals := append(unitValues(c.Unit),
			nullString(c.Unit.CityClass), nullString(c.RegionCode), nullString(c.ProvinceCode),
			lc.RegionID, lc.ProvinceID)
		id, created, err := w.upsert(tableCities, lookup, []any{c.Unit.Code, w.versionID, lc.ProvinceID}, cols, vals)
		if err != nil {
			return err
		}
		w.cities[c.Unit.Code] = id
		if created {
			w.created.CitiesMunicipalities++
		}
		w.progress()
	}
	return nil
}

func (w *snapshotWriter) writeBarangays(items []psgc.BarangayPlan) error {
	if err := w.enter(tableBarangays, len(items)); err != nil {
		return err
	}
	cols := withCols("region_code", "province_code", "city_municipality_code", "region_id", "province_id", "city_municipality_id")
	lookup := `SELECT id FROM barangays WHERE code = ? AND psgc_version_id = ?`
	for _, b := range items {
		lb := psgc.LinkBarangay(b, w.regions, w.provinces, w.cities)
		vals := append(unitValues(b.Unit),
			nullString(b.RegionCode), nullString(b.ProvinceCode), nullString(b.CityCode),
			lb.RegionID, lb.ProvinceID, lb.CityID)
		_, created, err := w.upsert(tableBarangays, lookup, []any{b.Unit.Code, w.versionID}, cols, vals)
		if err != nil {
			return err
		}
		if created {
			w.created.Barangays++
		}
		w.progress()
	}
	return nil
}

// addCounts：累加本次新建行数；新版本即等于总数
func (w *snapshotWriter) addCounts() error {
	_, err := w.tx.ExecContext(w.ctx, w.tx.Rebind(`UPDATE psgc_versions SET
		regions_count = regions_count + ?,
		provinces_count = provinces_count + ?,
		cities_municipalities_count = cities_municipalities_count + ?,
		barangays_count = barangays_count + ?,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`),
		w.created.Regions, w.created.Provinces, w.created.CitiesMunicipalities, w.created.Barangays, w.versionID)
	return errors.Wrap(err, "update snapshot counts")
}
