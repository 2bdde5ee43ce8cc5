// 包 sheet：电子表格读取抽象，按行流式读取指定工作表；导入逻辑只依赖这里的接口
package sheet

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound：数据文件中没有所需的工作表
var ErrSheetNotFound = errors.New("sheet not found")

// Rows：逐行迭代器，用法与 excelize.Rows 一致（Next -> Columns）
type Rows interface {
	Next() bool
	Columns() ([]string, error)
	Err() error
	Close() error
}

// Source：可按名称打开工作表的数据源
type Source interface {
	Sheets() []string
	Rows(sheet string) (Rows, error)
	Close() error
}

// Find：大小写不敏感地查找工作表，返回文件中的实际名称
func Find(src Source, name string) (string, error) {
	for _, s := range src.Sheets() {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return "", errors.Wrapf(ErrSheetNotFound, "%q", name)
}

// Excel：基于 excelize 的 xlsx 数据源
type Excel struct {
	f *excelize.File
}

// Open：打开 xlsx 文件；非法或损坏的文件在此返回错误
func Open(path string) (*Excel, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", path)
	}
	return &Excel{f: f}, nil
}

func OpenReader(r io.Reader) (*Excel, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	return &Excel{f: f}, nil
}

func (e *Excel) Sheets() []string { return e.f.GetSheetList() }

// Rows：流式读取，避免整表载入内存（发布文件约 4 万行）
func (e *Excel) Rows(name string) (Rows, error) {
	actual, err := Find(e, name)
	if err != nil {
		return nil, err
	}
	rows, err := e.f.Rows(actual)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", actual)
	}
	return &excelRows{rows: rows}, nil
}

func (e *Excel) Close() error { return e.f.Close() }

type excelRows struct {
	rows *excelize.Rows
}

func (r *excelRows) Next() bool                 { return r.rows.Next() }
func (r *excelRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *excelRows) Err() error                 { return r.rows.Error() }
func (r *excelRows) Close() error               { return r.rows.Close() }

// Memory：内存数据源，测试与小批量场景使用；工作表顺序按添加顺序
type Memory struct {
	names []string
	data  map[string][][]string
}

func NewMemory() *Memory { return &Memory{data: make(map[string][][]string)} }

// Add：追加一个工作表（同名覆盖）
func (m *Memory) Add(name string, rows [][]string) *Memory {
	if _, ok := m.data[name]; !ok {
		m.names = append(m.names, name)
	}
	m.data[name] = rows
	return m
}

func (m *Memory) Sheets() []string { return append([]string(nil), m.names...) }

func (m *Memory) Rows(name string) (Rows, error) {
	actual, err := Find(m, name)
	if err != nil {
		return nil, err
	}
	return &memoryRows{data: m.data[actual], i: -1}, nil
}

func (m *Memory) Close() error { return nil }

type memoryRows struct {
	data [][]string
	i    int
}

func (r *memoryRows) Next() bool {
	r.i++
	return r.i < len(r.data)
}

func (r *memoryRows) Columns() ([]string, error) {
	if r.i < 0 || r.i >= len(r.data) {
		return nil, errors.New("no current row")
	}
	return r.data[r.i], nil
}

func (r *memoryRows) Err() error   { return nil }
func (r *memoryRows) Close() error { return nil }
