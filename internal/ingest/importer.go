// 包 ingest：数据文件导入流程（解析 -> 关联 -> 持久化）以及下载、校验与定时同步
package ingest

import (
	"context"
	"log/slog"
	"time"

	"psgc-api/internal/logger"
	"psgc-api/internal/metrics"
	"psgc-api/internal/psgc"
	"psgc-api/internal/sheet"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultSheet：发布文件中的数据工作表名
const DefaultSheet = "PSGC"

// MessageSheetNotFound：缺少数据工作表时的失败消息
const MessageSheetNotFound = "PSGC sheet not found"

// Phase：单次导入的阶段
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseParsing    Phase = "parsing"
	PhaseRelating   Phase = "relating"
	PhasePersisting Phase = "persisting"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// SnapshotWriter：持久化层接口，store.Store 实现
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, plan *psgc.Plan, meta psgc.SnapshotMeta) (psgc.WriteResult, error)
}

// Meta：导入调用方提供的来源信息；SnapshotID 非 0 时写入已有版本
type Meta struct {
	Filename        string
	DownloadURL     string
	PublicationDate *time.Time
	SnapshotID      int64
}

// RejectedRow：编码格式不合法等原因被拒绝的数据行；Row 为表格中的行号（从 1 开始，含表头）
type RejectedRow struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result：一次导入的结果；失败时 Message 给出原因，计数为 0
type Result struct {
	RunID      string        `json:"run_id"`
	Success    bool          `json:"success"`
	Message    string        `json:"message,omitempty"`
	Phase      Phase         `json:"phase"`
	SnapshotID int64         `json:"psgc_version_id,omitempty"`
	Quarter    string        `json:"quarter,omitempty"`
	Year       string        `json:"year,omitempty"`
	Created    psgc.Counts   `json:"created"`
	RowsRead   int           `json:"rows_read"`
	Skipped    int           `json:"skipped"`
	Rejected   []RejectedRow `json:"rejected,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Importer：单线程顺序执行；并发导入的串行化由调用方（Syncer）负责
type Importer struct {
	w     SnapshotWriter
	sheet string
}

func NewImporter(w SnapshotWriter, sheetName string) *Importer {
	if sheetName == "" {
		sheetName = DefaultSheet
	}
	return &Importer{w: w, sheet: sheetName}
}

type run struct {
	res   Result
	log   *slog.Logger
	start time.Time
}

func (r *run) enter(p Phase) {
	r.res.Phase = p
	r.log.Info("import_phase", "phase", p)
}

func (r *run) fail(msg string, err error) Result {
	r.res.Phase = PhaseFailed
	r.res.Success = false
	r.res.Message = msg
	r.res.Created = psgc.Counts{}
	r.res.SnapshotID = 0
	r.res.Duration = time.Since(r.start)
	if err != nil {
		r.log.Error("import_failed", "message", msg, "err", err)
	} else {
		r.log.Error("import_failed", "message", msg)
	}
	metrics.ImportsTotal.WithLabelValues("failure").Inc()
	return r.res
}

// 文档注释：执行一次完整导入
// 背景：先读完全部行再统一推导关联（任何行都可能引用之后才出现的上级）；持久化是单个事务
// 约束：缺少工作表返回 {Success:false, Message:"PSGC sheet not found"}，不写入任何数据；
// 空白行静默跳过，编码不合法的行记录为拒绝行并继续
func (im *Importer) Import(ctx context.Context, src sheet.Source, meta Meta) Result {
	r := &run{start: time.Now()}
	r.res.RunID = uuid.NewString()
	r.res.Phase = PhaseIdle
	r.log = logger.L().With("run_id", r.res.RunID)
	r.res.Quarter, r.res.Year, _ = psgc.ParseFilename(meta.Filename)
	r.log.Info("import_start", "filename", meta.Filename, "snapshot_id", meta.SnapshotID)

	r.enter(PhaseParsing)
	buckets, err := im.parse(r, src)
	if err != nil {
		if errors.Is(err, sheet.ErrSheetNotFound) {
			return r.fail(MessageSheetNotFound, nil)
		}
		return r.fail("failed to read PSGC sheet: "+err.Error(), err)
	}
	metrics.ImportRowsTotal.WithLabelValues("skipped").Add(float64(r.res.Skipped))
	metrics.ImportRowsTotal.WithLabelValues("rejected").Add(float64(len(r.res.Rejected)))
	metrics.ImportRowsTotal.WithLabelValues("parsed").Add(float64(r.res.RowsRead - r.res.Skipped - len(r.res.Rejected)))
	c := buckets.Counts()
	r.log.Info("import_parsed",
		"rows", r.res.RowsRead,
		"skipped", r.res.Skipped,
		"rejected", len(r.res.Rejected),
		"regions", c.Regions,
		"provinces", c.Provinces,
		"cities_municipalities", c.CitiesMunicipalities,
		"barangays", c.Barangays,
	)

	r.enter(PhaseRelating)
	plan := psgc.Resolve(buckets)

	if err := ctx.Err(); err != nil {
		return r.fail("import cancelled", err)
	}

	r.enter(PhasePersisting)
	wr, err := im.w.WriteSnapshot(ctx, plan, psgc.SnapshotMeta{
		SnapshotID:      meta.SnapshotID,
		Quarter:         r.res.Quarter,
		Year:            r.res.Year,
		Filename:        meta.Filename,
		DownloadURL:     meta.DownloadURL,
		PublicationDate: meta.PublicationDate,
	})
	if err != nil {
		return r.fail("import failed: "+err.Error(), err)
	}

	r.res.Phase = PhaseDone
	r.res.Success = true
	r.res.SnapshotID = wr.SnapshotID
	r.res.Created = wr.Created
	r.res.Duration = time.Since(r.start)
	metrics.ImportsTotal.WithLabelValues("success").Inc()
	metrics.ImportCreatedTotal.WithLabelValues("regions").Add(float64(wr.Created.Regions))
	metrics.ImportCreatedTotal.WithLabelValues("provinces").Add(float64(wr.Created.Provinces))
	metrics.ImportCreatedTotal.WithLabelValues("cities_municipalities").Add(float64(wr.Created.CitiesMunicipalities))
	metrics.ImportCreatedTotal.WithLabelValues("barangays").Add(float64(wr.Created.Barangays))
	metrics.ImportDurationSeconds.Observe(r.res.Duration.Seconds())
	r.log.Info("import_phase", "phase", PhaseDone, "snapshot_id", wr.SnapshotID, "duration_ms", r.res.Duration.Milliseconds())
	return r.res
}

// parse：第一行为表头，其余逐行解析入桶
func (im *Importer) parse(r *run, src sheet.Source) (*psgc.Buckets, error) {
	rows, err := src.Rows(im.sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	b := psgc.NewBuckets()
	var header psgc.Header
	line := 0
	for rows.Next() {
		line++
		cells, err := rows.Columns()
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", line)
		}
		if line == 1 {
			header = psgc.NewHeader(cells)
			continue
		}
		r.res.RowsRead++
		u, ok, err := psgc.ParseRow(header, cells)
		if err != nil {
			r.res.Rejected = append(r.res.Rejected, RejectedRow{
				Row:     line,
				Code:    header.Cell(cells, psgc.ColumnCode),
				Message: err.Error(),
			})
			r.log.Warn("import_row_rejected", "row", line, "err", err)
			continue
		}
		if !ok || !b.Add(u) {
			r.res.Skipped++
			continue
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}
	return b, nil
}
