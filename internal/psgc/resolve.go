package psgc

// RegionPlan：区域没有上级
type RegionPlan struct {
	Unit Unit
}

// ProvincePlan：省级条目及其区域编码；升格市的 Unit 为市级记录的投影
type ProvincePlan struct {
	Unit       Unit
	Kind       ProvinceKind
	RegionCode string
}

// CityPlan：Elevated 表示该市同时在省级桶中登记
type CityPlan struct {
	Unit         Unit
	RegionCode   string
	ProvinceCode string
	Elevated     bool
}

type BarangayPlan struct {
	Unit         Unit
	RegionCode   string
	ProvinceCode string
	CityCode     string
}

// 文档注释：关联阶段的不可变结果
// 背景：完整加载所有行后再做跨层引用（任何行都可能引用前面或后面出现的祖先）
// 约束：祖先编码只在祖先确实存在于已加载桶中时填写，空串即“无祖先”，写库时对应 NULL 外键
type Plan struct {
	Regions   []RegionPlan
	Provinces []ProvincePlan
	Cities    []CityPlan
	Barangays []BarangayPlan
}

// Counts：计划中各层级条目数
func (p *Plan) Counts() Counts {
	return Counts{
		Regions:              len(p.Regions),
		Provinces:            len(p.Provinces),
		CitiesMunicipalities: len(p.Cities),
		Barangays:            len(p.Barangays),
	}
}

// Resolve：对每个条目只计算一次祖先编码，不做持久化；对同一 Buckets 重复调用结果相同
func Resolve(b *Buckets) *Plan {
	p := &Plan{
		Regions:   make([]RegionPlan, 0, b.regions.Len()),
		Provinces: make([]ProvincePlan, 0, b.provinces.Len()),
		Cities:    make([]CityPlan, 0, b.cities.Len()),
		Barangays: make([]BarangayPlan, 0, b.barangays.Len()),
	}
	for _, code := range b.regions.keys {
		p.Regions = append(p.Regions, RegionPlan{Unit: b.regions.items[code]})
	}
	for _, code := range b.provinces.keys {
		e := b.provinces.items[code]
		u, ok := b.provinceUnit(e)
		if !ok {
			continue
		}
		p.Provinces = append(p.Provinces, ProvincePlan{
			Unit:       u,
			Kind:       e.Kind,
			RegionCode: b.regionOf(code),
		})
	}
	for _, code := range b.cities.keys {
		p.Cities = append(p.Cities, CityPlan{
			Unit:         b.cities.items[code],
			RegionCode:   b.regionOf(code),
			ProvinceCode: b.cityProvinceOf(code),
			Elevated:     b.elevated(code),
		})
	}
	for _, code := range b.barangays.keys {
		prov, city := b.barangayParentsOf(code)
		p.Barangays = append(p.Barangays, BarangayPlan{
			Unit:         b.barangays.items[code],
			RegionCode:   b.regionOf(code),
			ProvinceCode: prov,
			CityCode:     city,
		})
	}
	return p
}

func (b *Buckets) regionOf(code string) string {
	rc := RegionCodeOf(code)
	if _, ok := b.regions.get(rc); ok {
		return rc
	}
	return ""
}

func (b *Buckets) virtualProvince() string {
	if e, ok := b.provinces.get(VirtualProvinceCode); ok && e.Kind == ProvinceVirtual {
		return VirtualProvinceCode
	}
	return ""
}

// 文档注释：市级条目的省级引用
// 背景：首都大区没有真实省份：升格市引用自身在省级桶中的条目，其余（自治市、次级行政区）引用虚拟省
// 约束：其他区域按省前缀查找；命中的是升格市且就是自身时跳过，市不会经由该路径成为自己的上级
func (b *Buckets) cityProvinceOf(code string) string {
	if InMetro(code) {
		if b.elevated(code) {
			return ElevatedProvinceCode(code)
		}
		return b.virtualProvince()
	}
	pc := ProvinceCodeOf(code)
	e, ok := b.provinces.get(pc)
	if !ok {
		return ""
	}
	if e.Kind == ProvinceElevated && e.CityCode == code {
		return ""
	}
	return pc
}

// 文档注释：村（barangay）的省级与市级引用
// 背景：直接上级为升格市时，关系落在省级条目上（省=升格市，市为空）；
// 否则市级取市前缀对应条目，省级取省前缀对应条目，首都大区缺省时回落到虚拟省
func (b *Buckets) barangayParentsOf(code string) (province, city string) {
	cc := CityCodeOf(code)
	if b.elevated(cc) {
		return ElevatedProvinceCode(cc), ""
	}
	if _, ok := b.cities.get(cc); ok {
		city = cc
	}
	pc := ProvinceCodeOf(code)
	if _, ok := b.provinces.get(pc); ok {
		province = pc
	} else if InMetro(code) {
		province = b.virtualProvince()
	}
	return province, city
}
