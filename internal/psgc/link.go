package psgc

// IDs：已落库层级的 编码 -> 代理主键
type IDs map[string]int64

// Ref：空编码或尚未落库的编码返回 nil（NULL 外键），不视为错误
func (ids IDs) Ref(code string) *int64 {
	if code == "" {
		return nil
	}
	id, ok := ids[code]
	if !ok {
		return nil
	}
	return &id
}

type LinkedProvince struct {
	ProvincePlan
	RegionID *int64
}

type LinkedCity struct {
	CityPlan
	RegionID   *int64
	ProvinceID *int64
}

type LinkedBarangay struct {
	BarangayPlan
	RegionID   *int64
	ProvinceID *int64
	CityID     *int64
}

// 文档注释：按依赖顺序把祖先编码换成代理主键
// 约束：调用方必须在上级层级全部写入后再调用（区域 -> 省级 -> 市级 -> 村）
func LinkProvince(p ProvincePlan, regions IDs) LinkedProvince {
	return LinkedProvince{ProvincePlan: p, RegionID: regions.Ref(p.RegionCode)}
}

func LinkCity(c CityPlan, regions, provinces IDs) LinkedCity {
	return LinkedCity{
		CityPlan:   c,
		RegionID:   regions.Ref(c.RegionCode),
		ProvinceID: provinces.Ref(c.ProvinceCode),
	}
}

func LinkBarangay(bg BarangayPlan, regions, provinces, cities IDs) LinkedBarangay {
	return LinkedBarangay{
		BarangayPlan: bg,
		RegionID:     regions.Ref(bg.RegionCode),
		ProvinceID:   provinces.Ref(bg.ProvinceCode),
		CityID:       cities.Ref(bg.CityCode),
	}
}
