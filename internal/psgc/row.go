package psgc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// 数据文件列名（比较时大小写与首尾空白不敏感）
const (
	ColumnCode               = "10-digit PSGC"
	ColumnName               = "Name"
	ColumnCorrespondenceCode = "Correspondence Code"
	ColumnGeographicLevel    = "Geographic Level"
	ColumnCityClass          = "City Class"
	ColumnOldNames           = "Old names"
)

// RequiredColumns：结构校验要求必须存在的列
var RequiredColumns = []string{ColumnCode, ColumnName, ColumnCorrespondenceCode, ColumnGeographicLevel}

// ErrInvalidUnit：除编码外的字段不满足约束（例如名称超长）
var ErrInvalidUnit = errors.New("invalid psgc unit")

// Unit：一行数据解析后的类型化结果
type Unit struct {
	Code               string `validate:"psgccode"`
	Name               string `validate:"required,max=255"`
	OldName            string `validate:"max=255"`
	CorrespondenceCode string `validate:"max=10"`
	Level              Level  `validate:"required"`
	CityClass          string `validate:"max=32"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("psgccode", func(fl validator.FieldLevel) bool {
		return ValidateCode(fl.Field().String()) == nil
	})
	return v
}

// Header：表头标签到列下标的映射
type Header struct {
	index map[string]int
}

func foldLabel(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// NewHeader：大小写不敏感、与列顺序无关；重复标签以最后一次出现为准
func NewHeader(labels []string) Header {
	h := Header{index: make(map[string]int, len(labels))}
	for i, l := range labels {
		k := foldLabel(l)
		if k == "" {
			continue
		}
		h.index[k] = i
	}
	return h
}

func (h Header) col(label string) int {
	if i, ok := h.index[foldLabel(label)]; ok {
		return i
	}
	return -1
}

// Has：表头中是否存在该列
func (h Header) Has(label string) bool { return h.col(label) >= 0 }

// Missing：缺失的必需列，按 RequiredColumns 顺序返回
func (h Header) Missing() []string {
	var out []string
	for _, c := range RequiredColumns {
		if !h.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Cell：按列名取单元格，缺列或越界返回空串
func (h Header) Cell(cells []string, label string) string {
	i := h.col(label)
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// 文档注释：将表头与一行单元格组合为 Unit
// 背景：数据文件中存在汇总/空白行，缺少编码、名称或层级的行静默跳过（返回 ok=false, err=nil）
// 约束：编码格式不合法时返回 ErrMalformedCode，由调用方记录为拒绝行；不产生任何副作用
func ParseRow(h Header, cells []string) (Unit, bool, error) {
	code := h.Cell(cells, ColumnCode)
	name := h.Cell(cells, ColumnName)
	level := h.Cell(cells, ColumnGeographicLevel)
	if code == "" || name == "" || level == "" {
		return Unit{}, false, nil
	}
	old := h.Cell(cells, ColumnOldNames)
	if old == "" {
		old = h.Cell(cells, "Old Name")
	}
	u := Unit{
		Code:               padCode(code),
		Name:               norm.NFC.String(name),
		OldName:            norm.NFC.String(old),
		CorrespondenceCode: h.Cell(cells, ColumnCorrespondenceCode),
		Level:              NormalizeLevel(level),
		CityClass:          h.Cell(cells, ColumnCityClass),
	}
	if err := validate.Struct(u); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Code" {
					return Unit{}, false, ValidateCode(u.Code)
				}
			}
			return Unit{}, false, fmt.Errorf("%w: %s: %s", ErrInvalidUnit, u.Code, verrs[0].Field())
		}
		return Unit{}, false, err
	}
	return u, true, nil
}

// padCode：以数字格式存储的编码会丢失区域 01-09 的前导零，此处补回一位
func padCode(code string) string {
	if len(code) != CodeLength-1 {
		return code
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return code
		}
	}
	return "0" + code
}
