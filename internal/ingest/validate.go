package ingest

import (
	"fmt"
	"sort"
	"strings"

	"psgc-api/internal/psgc"
	"psgc-api/internal/sheet"

	"github.com/pkg/errors"
)

// ValidationSampleRows：层级取值只抽查前若干数据行
const ValidationSampleRows = 100

// Report：结构校验结果；Errors 为空即通过
type Report struct {
	Errors []string `json:"errors"`
}

func (r Report) Valid() bool { return len(r.Errors) == 0 }

func (r *Report) add(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// ValidateFile：打开文件后校验；文件损坏时作为校验错误返回
func ValidateFile(path, sheetName string) Report {
	src, err := sheet.Open(path)
	if err != nil {
		var r Report
		r.add("File is corrupted or invalid Excel format: %v", err)
		return r
	}
	defer src.Close()
	return Validate(src, sheetName)
}

// 文档注释：导入前的结构校验
// 背景：发布格式偶有调整，校验失败时不进入导入，避免写出残缺版本
// 约束：工作表存在、非空、必需列齐全（大小写不敏感）、前 100 行的层级均可识别
func Validate(src sheet.Source, sheetName string) Report {
	var r Report
	if sheetName == "" {
		sheetName = DefaultSheet
	}
	rows, err := src.Rows(sheetName)
	if err != nil {
		if errors.Is(err, sheet.ErrSheetNotFound) {
			r.add("PSGC sheet not found in Excel file. Required sheet: %s", sheetName)
		} else {
			r.add("File is corrupted or invalid Excel format: %v", err)
		}
		return r
	}
	defer rows.Close()

	if !rows.Next() {
		r.add("PSGC sheet is empty or has no data")
		return r
	}
	labels, err := rows.Columns()
	if err != nil {
		r.add("Cannot read header row: %v", err)
		return r
	}
	header := psgc.NewHeader(labels)
	for _, c := range header.Missing() {
		r.add("Required column '%s' is missing in PSGC sheet", c)
	}
	if !header.Has(psgc.ColumnGeographicLevel) {
		return r
	}

	invalid := map[string]bool{}
	for i := 0; i < ValidationSampleRows && rows.Next(); i++ {
		cells, err := rows.Columns()
		if err != nil {
			r.add("Cannot read row %d: %v", i+2, err)
			return r
		}
		lv := header.Cell(cells, psgc.ColumnGeographicLevel)
		if lv == "" {
			continue
		}
		if !psgc.NormalizeLevel(lv).Known() {
			invalid[lv] = true
		}
	}
	if err := rows.Err(); err != nil {
		r.add("Cannot read PSGC sheet: %v", err)
	}
	if len(invalid) > 0 {
		names := make([]string, 0, len(invalid))
		for k := range invalid {
			names = append(names, k)
		}
		sort.Strings(names)
		r.add("Invalid Geographic Levels found: %s. Valid levels: %s",
			strings.Join(names, ", "), strings.Join(validLevelNames(), ", "))
	}
	return r
}

func validLevelNames() []string {
	return []string{
		string(psgc.LevelRegion), string(psgc.LevelProvince), string(psgc.LevelCity),
		string(psgc.LevelMunicipality), string(psgc.LevelBarangay), string(psgc.LevelSubMunicipality),
	}
}
