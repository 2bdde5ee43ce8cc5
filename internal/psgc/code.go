package psgc

import (
	"errors"
	"fmt"
)

// CodeLength：PSGC 编码固定宽度
const CodeLength = 10

const (
	// MetroRegionPrefix：首都大区（NCR）的区域前缀，该区无真实省级层
	MetroRegionPrefix = "13"
	// VirtualProvinceCode：为首都大区合成的虚拟省编码，现实中不存在
	VirtualProvinceCode = "1380000000"
	// VirtualProvinceName：源数据未提供旧称时使用的聚合名称
	VirtualProvinceName = "Metro Manila"
)

// ErrMalformedCode：编码长度不为 10 或含非数字字符
var ErrMalformedCode = errors.New("malformed psgc code")

// ValidateCode：前缀推导只对通过校验的编码调用
func ValidateCode(code string) error {
	if len(code) != CodeLength {
		return fmt.Errorf("%w: %q has length %d", ErrMalformedCode, code, len(code))
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return fmt.Errorf("%w: %q has non-digit at position %d", ErrMalformedCode, code, i+1)
		}
	}
	return nil
}

// 文档注释：按固定宽度切片并补零推导祖先编码
// 背景：源数据没有显式外键，父子关系完全由编码前缀决定
// 约束：纯函数，仅依赖编码本身；调用方需先经 ValidateCode 校验
// 编码布局为 RR PPP MM BBB：区 2 位、省 3 位、市/镇 2 位、村 3 位
func RegionCodeOf(code string) string { return code[:2] + "00000000" }

func ProvinceCodeOf(code string) string { return code[:5] + "00000" }

func CityCodeOf(code string) string { return code[:7] + "000" }

// ElevatedProvinceCode：升格市在省级桶中以自身编码登记
func ElevatedProvinceCode(code string) string { return code }

// InMetro：编码是否属于首都大区
func InMetro(code string) bool { return code[:2] == MetroRegionPrefix }
