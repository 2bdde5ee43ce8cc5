// 包 psgc：PSGC 导入核心（行解析、层级归类、编码前缀推导、层级关联），不做任何 I/O
package psgc

import "strings"

// Level：规范化后的地理层级
// 约束：未识别的原始标签原样保留（Level(label)），是否合法由外部结构校验负责
type Level string

const (
	LevelRegion          Level = "Region"
	LevelProvince        Level = "Province"
	LevelCity            Level = "City"
	LevelMunicipality    Level = "Municipality"
	LevelBarangay        Level = "Barangay"
	LevelSubMunicipality Level = "SubMun"
)

var levelAliases = map[string]Level{
	"reg":              LevelRegion,
	"region":           LevelRegion,
	"prov":             LevelProvince,
	"province":         LevelProvince,
	"city":             LevelCity,
	"mun":              LevelMunicipality,
	"municipality":     LevelMunicipality,
	"bgy":              LevelBarangay,
	"barangay":         LevelBarangay,
	"submun":           LevelSubMunicipality,
	"sub-municipality": LevelSubMunicipality,
	"submunicipality":  LevelSubMunicipality,
}

// NormalizeLevel：大小写不敏感地将缩写/全称映射为规范层级
func NormalizeLevel(label string) Level {
	s := strings.TrimSpace(label)
	if lv, ok := levelAliases[strings.ToLower(s)]; ok {
		return lv
	}
	return Level(s)
}

// Known：是否为六种规范层级之一
func (l Level) Known() bool {
	switch l {
	case LevelRegion, LevelProvince, LevelCity, LevelMunicipality, LevelBarangay, LevelSubMunicipality:
		return true
	}
	return false
}

// CityTier：市/自治市/次级行政区均归入市级桶
func (l Level) CityTier() bool {
	return l == LevelCity || l == LevelMunicipality || l == LevelSubMunicipality
}
