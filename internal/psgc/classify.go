package psgc

import "strings"

// ElevationMarkers：City Class 取值为高度城市化（HUC）或独立构成市（ICC）时视为升格市
var ElevationMarkers = []string{"HUC", "ICC"}

// IsElevationMarker：大小写不敏感比较
func IsElevationMarker(class string) bool {
	c := strings.TrimSpace(class)
	for _, m := range ElevationMarkers {
		if strings.EqualFold(c, m) {
			return true
		}
	}
	return false
}

// ProvinceKind：省级桶条目类型
type ProvinceKind int

const (
	ProvinceOrdinary ProvinceKind = iota
	ProvinceVirtual
	ProvinceElevated
)

func (k ProvinceKind) String() string {
	switch k {
	case ProvinceVirtual:
		return "virtual"
	case ProvinceElevated:
		return "elevated"
	}
	return "ordinary"
}

// 文档注释：省级桶条目
// 背景：升格市在逻辑上是同一个实体，只在市级桶保留一份字段；省级条目仅持有回指编码 CityCode，
// 在生成计划时再投影出字段，避免两份副本出现字段漂移
type ProvinceEntry struct {
	Kind     ProvinceKind
	Unit     Unit
	CityCode string
}

// bucket：按编码索引、保留首次出现顺序的集合；重复编码原位覆盖（后者为准）
type bucket[T any] struct {
	keys  []string
	items map[string]T
}

func newBucket[T any]() bucket[T] {
	return bucket[T]{items: make(map[string]T)}
}

func (b *bucket[T]) put(code string, v T) {
	if _, ok := b.items[code]; !ok {
		b.keys = append(b.keys, code)
	}
	b.items[code] = v
}

func (b *bucket[T]) get(code string) (T, bool) {
	v, ok := b.items[code]
	return v, ok
}

func (b *bucket[T]) remove(code string) {
	if _, ok := b.items[code]; !ok {
		return
	}
	delete(b.items, code)
	for i, k := range b.keys {
		if k == code {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

func (b *bucket[T]) Len() int { return len(b.keys) }

// Buckets：解析阶段累积的四个层级桶
type Buckets struct {
	regions   bucket[Unit]
	provinces bucket[ProvinceEntry]
	cities    bucket[Unit]
	barangays bucket[Unit]

	virtualAdded bool
}

func NewBuckets() *Buckets {
	return &Buckets{
		regions:   newBucket[Unit](),
		provinces: newBucket[ProvinceEntry](),
		cities:    newBucket[Unit](),
		barangays: newBucket[Unit](),
	}
}

// 文档注释：按层级把一个单元放入对应的桶
// 背景：升格市会同时进入市级桶与省级桶（一行产生两个条目）；首都大区的区域行额外合成一个虚拟省，仅一次
// 返回：未识别的层级不入桶，返回 false
func (b *Buckets) Add(u Unit) bool {
	switch {
	case u.Level == LevelRegion:
		b.regions.put(u.Code, u)
		if InMetro(u.Code) && !b.virtualAdded {
			name := u.OldName
			if name == "" {
				name = VirtualProvinceName
			}
			b.provinces.put(VirtualProvinceCode, ProvinceEntry{
				Kind: ProvinceVirtual,
				Unit: Unit{Code: VirtualProvinceCode, Name: name, Level: LevelProvince},
			})
			b.virtualAdded = true
		}
	case u.Level == LevelProvince:
		b.provinces.put(u.Code, ProvinceEntry{Kind: ProvinceOrdinary, Unit: u})
	case u.Level.CityTier():
		b.cities.put(u.Code, u)
		if u.Level == LevelCity && IsElevationMarker(u.CityClass) {
			b.provinces.put(ElevatedProvinceCode(u.Code), ProvinceEntry{Kind: ProvinceElevated, CityCode: u.Code})
		} else if e, ok := b.provinces.get(u.Code); ok && e.Kind == ProvinceElevated {
			// 同编码的后续行不再带升格标记
			b.provinces.remove(u.Code)
		}
	case u.Level == LevelBarangay:
		b.barangays.put(u.Code, u)
	default:
		return false
	}
	return true
}

// Counts：各桶当前条目数（省级含虚拟省与升格市）
func (b *Buckets) Counts() Counts {
	return Counts{
		Regions:              b.regions.Len(),
		Provinces:            b.provinces.Len(),
		CitiesMunicipalities: b.cities.Len(),
		Barangays:            b.barangays.Len(),
	}
}

// elevated：该编码是否在省级桶中登记为升格市
func (b *Buckets) elevated(code string) bool {
	e, ok := b.provinces.get(code)
	return ok && e.Kind == ProvinceElevated
}

// provinceUnit：省级条目的字段投影；升格市读取市级桶中的唯一记录
func (b *Buckets) provinceUnit(e ProvinceEntry) (Unit, bool) {
	if e.Kind != ProvinceElevated {
		return e.Unit, true
	}
	return b.cities.get(e.CityCode)
}
