package store

import (
	"context"

	"psgc-api/internal/logger"
	"psgc-api/internal/psgc"

	"github.com/pkg/errors"
)

const versionColumns = `id, quarter, year, publication_date, download_url, filename, is_current,
	regions_count, provinces_count, cities_municipalities_count, barangays_count, created_at, updated_at`

// Versions：按 id 倒序返回全部版本
func (s *Store) Versions(ctx context.Context) ([]Version, error) {
	out := []Version{}
	err := s.db.SelectContext(ctx, &out, `SELECT `+versionColumns+` FROM psgc_versions ORDER BY id DESC`)
	return out, errors.Wrap(err, "list snapshots")
}

func (s *Store) Version(ctx context.Context, id int64) (*Version, error) {
	var v Version
	err := s.db.GetContext(ctx, &v, s.db.Rebind(`SELECT `+versionColumns+` FROM psgc_versions WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err, "get snapshot")
	}
	return &v, nil
}

// CurrentVersion：尚无任何导入时返回 ErrNotFound
func (s *Store) CurrentVersion(ctx context.Context) (*Version, error) {
	var v Version
	err := s.db.GetContext(ctx, &v, `SELECT `+versionColumns+` FROM psgc_versions WHERE is_current`)
	if err != nil {
		return nil, notFound(err, "get current snapshot")
	}
	return &v, nil
}

// ResolveVersion：id 为 0 时取当前版本；非 0 时校验版本存在
func (s *Store) ResolveVersion(ctx context.Context, id int64) (int64, error) {
	if id == 0 {
		v, err := s.CurrentVersion(ctx)
		if err != nil {
			return 0, err
		}
		return v.ID, nil
	}
	var got int64
	err := s.db.GetContext(ctx, &got, s.db.Rebind(`SELECT id FROM psgc_versions WHERE id = ?`), id)
	if err != nil {
		return 0, notFound(err, "resolve snapshot")
	}
	return got, nil
}

// SetCurrent：把指定版本设为当前版本（回滚到旧版本时使用）
func (s *Store) SetCurrent(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin promote tx")
	}
	defer func() { _ = tx.Rollback() }()
	var got int64
	if err := tx.GetContext(ctx, &got, tx.Rebind(`SELECT id FROM psgc_versions WHERE id = ?`), id); err != nil {
		return notFound(err, "promote snapshot")
	}
	if err := swapCurrent(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit promote tx")
	}
	logger.L().Info("snapshot_promoted", "snapshot_id", id)
	return nil
}

// DeleteSnapshot：删除版本及其全部行（外键级联）
// 约束：当前版本返回 ErrSnapshotCurrent，需先切换到其他版本
func (s *Store) DeleteSnapshot(ctx context.Context, id int64) error {
	v, err := s.Version(ctx, id)
	if err != nil {
		return err
	}
	if v.IsCurrent {
		return errors.Wrapf(ErrSnapshotCurrent, "delete snapshot %d", id)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM psgc_versions WHERE id = ? AND NOT is_current`), id); err != nil {
		return errors.Wrap(err, "delete snapshot")
	}
	logger.L().Info("snapshot_deleted", "snapshot_id", id)
	return nil
}

// 文档注释：版本保留窗口
// 背景：每次发布都会产生一个完整版本，长期运行后需要清理；当前版本始终保留
// 约束：当前版本占用一个名额，其余名额按 id 从大到小保留，其余逐个删除；keep < 1 视为 1
func (s *Store) Prune(ctx context.Context, keep int) ([]int64, error) {
	if keep < 1 {
		keep = 1
	}
	versions, err := s.Versions(ctx)
	if err != nil {
		return nil, err
	}
	var deleted []int64
	kept := 0
	for _, v := range versions {
		if v.IsCurrent {
			kept++
		}
	}
	for _, v := range versions {
		if v.IsCurrent {
			continue
		}
		if kept < keep {
			kept++
			continue
		}
		if err := s.DeleteSnapshot(ctx, v.ID); err != nil {
			return deleted, err
		}
		deleted = append(deleted, v.ID)
	}
	logger.L().Info("snapshot_prune_done", "keep", keep, "deleted", len(deleted))
	return deleted, nil
}

// RowCounts：实际落库的行数，用于核对版本计数
func (s *Store) RowCounts(ctx context.Context, id int64) (psgc.Counts, error) {
	var c psgc.Counts
	targets := []struct {
		table string
		dst   *int
	}{
		{tableRegions, &c.Regions},
		{tableProvinces, &c.Provinces},
		{tableCities, &c.CitiesMunicipalities},
		{tableBarangays, &c.Barangays},
	}
	for _, t := range targets {
		q := s.db.Rebind(`SELECT COUNT(1) FROM ` + t.table + ` WHERE psgc_version_id = ?`)
		if err := s.db.GetContext(ctx, t.dst, q, id); err != nil {
			return c, errors.Wrapf(err, "count %s", t.table)
		}
	}
	return c, nil
}
