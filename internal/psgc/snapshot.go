package psgc

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Counts：各层级记录数
type Counts struct {
	Regions              int `json:"regions"`
	Provinces            int `json:"provinces"`
	CitiesMunicipalities int `json:"cities_municipalities"`
	Barangays            int `json:"barangays"`
}

func (c Counts) Total() int {
	return c.Regions + c.Provinces + c.CitiesMunicipalities + c.Barangays
}

// SnapshotMeta：一次导入对应的版本元信息
// 约束：SnapshotID 为 0 时新建版本；非 0 时写入已存在的版本（同版本重复导入）
type SnapshotMeta struct {
	SnapshotID      int64
	Quarter         string
	Year            string
	Filename        string
	DownloadURL     string
	PublicationDate *time.Time
}

// WriteResult：Created 只统计新建行，更新行不计入
type WriteResult struct {
	SnapshotID int64
	Created    Counts
}

var filenamePattern = regexp.MustCompile(`(?i)^PSGC-(\dQ)-(\d{4})-Publication-Datafile\.xlsx$`)

// FilenamePattern：下载链接与文件名共用的匹配规则（不锚定）
var FilenamePattern = regexp.MustCompile(`(?i)PSGC-(\d)Q-(\d{4})-Publication-Datafile\.xlsx`)

// ParseFilename：尽力从文件名提取季度与年份，不匹配时返回 ok=false
func ParseFilename(name string) (quarter, year string, ok bool) {
	if name == "" {
		return "", "", false
	}
	m := filenamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", "", false
	}
	return strings.ToUpper(m[1]), m[2], true
}
