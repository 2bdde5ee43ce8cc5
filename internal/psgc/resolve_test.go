package psgc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unit(code, name string, level Level, class string) Unit {
	return Unit{Code: code, Name: name, Level: level, CityClass: class}
}

func loadBuckets(units ...Unit) *Buckets {
	b := NewBuckets()
	for _, u := range units {
		b.Add(u)
	}
	return b
}

func findCity(t *testing.T, p *Plan, code string) CityPlan {
	t.Helper()
	for _, c := range p.Cities {
		if c.Unit.Code == code {
			return c
		}
	}
	t.Fatalf("city %s not in plan", code)
	return CityPlan{}
}

func findBarangay(t *testing.T, p *Plan, code string) BarangayPlan {
	t.Helper()
	for _, bg := range p.Barangays {
		if bg.Unit.Code == code {
			return bg
		}
	}
	t.Fatalf("barangay %s not in plan", code)
	return BarangayPlan{}
}

func TestResolveOrdinaryHierarchy(t *testing.T) {
	b := loadBuckets(
		unit("0128010001", "San Lorenzo", LevelBarangay, ""),
		unit("0100000000", "Region I", LevelRegion, ""),
		unit("0128000000", "Ilocos Norte", LevelProvince, ""),
		unit("0128010000", "Laoag City", LevelCity, "CC"),
	)
	p := Resolve(b)
	assert.Equal(t, Counts{Regions: 1, Provinces: 1, CitiesMunicipalities: 1, Barangays: 1}, p.Counts())

	require.Len(t, p.Provinces, 1)
	assert.Equal(t, "0100000000", p.Provinces[0].RegionCode)
	assert.Equal(t, ProvinceOrdinary, p.Provinces[0].Kind)

	c := findCity(t, p, "0128010000")
	assert.Equal(t, "0100000000", c.RegionCode)
	assert.Equal(t, "0128000000", c.ProvinceCode)
	assert.False(t, c.Elevated)

	bg := findBarangay(t, p, "0128010001")
	assert.Equal(t, "0100000000", bg.RegionCode)
	assert.Equal(t, "0128000000", bg.ProvinceCode)
	assert.Equal(t, "0128010000", bg.CityCode)
}

func TestResolveMissingAncestorsAreEmpty(t *testing.T) {
	b := loadBuckets(
		unit("0128010000", "Laoag City", LevelCity, ""),
		unit("0233010001", "Orphan", LevelBarangay, ""),
	)
	p := Resolve(b)
	c := findCity(t, p, "0128010000")
	assert.Empty(t, c.RegionCode)
	assert.Empty(t, c.ProvinceCode)

	bg := findBarangay(t, p, "0233010001")
	assert.Empty(t, bg.RegionCode)
	assert.Empty(t, bg.ProvinceCode)
	assert.Empty(t, bg.CityCode)
}

func TestMetroRegionSynthesizesVirtualProvinceOnce(t *testing.T) {
	b := loadBuckets(
		unit("1300000000", "National Capital Region (NCR)", LevelRegion, ""),
		unit("1300000000", "National Capital Region (NCR)", LevelRegion, ""),
	)
	p := Resolve(b)
	require.Len(t, p.Regions, 1)
	require.Len(t, p.Provinces, 1)
	v := p.Provinces[0]
	assert.Equal(t, ProvinceVirtual, v.Kind)
	assert.Equal(t, VirtualProvinceCode, v.Unit.Code)
	assert.Equal(t, VirtualProvinceName, v.Unit.Name)
	assert.Equal(t, "1300000000", v.RegionCode)
}

func TestVirtualProvinceUsesRegionOldName(t *testing.T) {
	r := unit("1300000000", "National Capital Region (NCR)", LevelRegion, "")
	r.OldName = "Metropolitan Manila"
	p := Resolve(loadBuckets(r))
	require.Len(t, p.Provinces, 1)
	assert.Equal(t, "Metropolitan Manila", p.Provinces[0].Unit.Name)
}

func TestMetroException(t *testing.T) {
	b := loadBuckets(
		unit("1300000000", "National Capital Region (NCR)", LevelRegion, ""),
		unit("1380600000", "City of Manila", LevelCity, "HUC"),
		unit("1380601000", "Tondo I/II", LevelSubMunicipality, ""),
		unit("1380601001", "Barangay 1", LevelBarangay, ""),
		unit("1380600001", "Barangay 1-A", LevelBarangay, ""),
		unit("1381701000", "Pateros", LevelMunicipality, ""),
		unit("1381701001", "Aguho", LevelBarangay, ""),
	)
	p := Resolve(b)

	// 升格市同时出现在省级与市级
	assert.Equal(t, Counts{Regions: 1, Provinces: 2, CitiesMunicipalities: 3, Barangays: 3}, p.Counts())
	var elevated *ProvincePlan
	for i := range p.Provinces {
		if p.Provinces[i].Kind == ProvinceElevated {
			elevated = &p.Provinces[i]
		}
	}
	require.NotNil(t, elevated)
	assert.Equal(t, "1380600000", elevated.Unit.Code)
	assert.Equal(t, "City of Manila", elevated.Unit.Name)
	assert.Equal(t, LevelCity, elevated.Unit.Level)
	assert.Equal(t, "1300000000", elevated.RegionCode)

	manila := findCity(t, p, "1380600000")
	assert.True(t, manila.Elevated)
	assert.Equal(t, "1380600000", manila.ProvinceCode)

	tondo := findCity(t, p, "1380601000")
	assert.Equal(t, VirtualProvinceCode, tondo.ProvinceCode)
	pateros := findCity(t, p, "1381701000")
	assert.Equal(t, VirtualProvinceCode, pateros.ProvinceCode)

	direct := findBarangay(t, p, "1380600001")
	assert.Equal(t, "1380600000", direct.ProvinceCode)
	assert.Empty(t, direct.CityCode)
	assert.Equal(t, "1300000000", direct.RegionCode)

	sub := findBarangay(t, p, "1380601001")
	assert.Equal(t, "1380600000", sub.ProvinceCode)
	assert.Equal(t, "1380601000", sub.CityCode)

	aguho := findBarangay(t, p, "1381701001")
	assert.Equal(t, VirtualProvinceCode, aguho.ProvinceCode)
	assert.Equal(t, "1381701000", aguho.CityCode)
}

func TestElevatedCityOutsideMetroNeverParentsItself(t *testing.T) {
	b := loadBuckets(
		unit("1400000000", "Cordillera Administrative Region (CAR)", LevelRegion, ""),
		unit("1401100000", "Benguet", LevelProvince, ""),
		unit("1430300000", "City of Baguio", LevelCity, "HUC"),
		unit("1430300001", "A. Bonifacio-Caguioa-Rimando", LevelBarangay, ""),
		unit("1401101000", "Atok", LevelMunicipality, ""),
		unit("1401101001", "Abiang", LevelBarangay, ""),
	)
	p := Resolve(b)

	baguio := findCity(t, p, "1430300000")
	assert.True(t, baguio.Elevated)
	assert.Empty(t, baguio.ProvinceCode)
	assert.Equal(t, "1400000000", baguio.RegionCode)

	atok := findCity(t, p, "1401101000")
	assert.Equal(t, "1401100000", atok.ProvinceCode)

	bg := findBarangay(t, p, "1430300001")
	assert.Equal(t, "1430300000", bg.ProvinceCode)
	assert.Empty(t, bg.CityCode)

	abiang := findBarangay(t, p, "1401101001")
	assert.Equal(t, "1401100000", abiang.ProvinceCode)
	assert.Equal(t, "1401101000", abiang.CityCode)
}

func TestLatestRowWinsAndKeepsPosition(t *testing.T) {
	b := loadBuckets(
		unit("0100000000", "Region 1", LevelRegion, ""),
		unit("0200000000", "Region II", LevelRegion, ""),
		unit("0100000000", "Region I", LevelRegion, ""),
	)
	p := Resolve(b)
	require.Len(t, p.Regions, 2)
	assert.Equal(t, "0100000000", p.Regions[0].Unit.Code)
	assert.Equal(t, "Region I", p.Regions[0].Unit.Name)
}

func TestLaterRowWithoutMarkerDropsElevation(t *testing.T) {
	b := loadBuckets(
		unit("0430300000", "Some City", LevelCity, "HUC"),
		unit("0430300000", "Some City", LevelCity, "CC"),
	)
	p := Resolve(b)
	assert.Empty(t, p.Provinces)
	assert.False(t, findCity(t, p, "0430300000").Elevated)
}

func TestUnknownLevelIsNotBucketed(t *testing.T) {
	b := NewBuckets()
	assert.False(t, b.Add(unit("0100000000", "X", Level("Territory"), "")))
	assert.Equal(t, Counts{}, b.Counts())
}

func TestResolveIsRepeatable(t *testing.T) {
	b := loadBuckets(
		unit("1300000000", "NCR", LevelRegion, ""),
		unit("1380600000", "City of Manila", LevelCity, "ICC"),
		unit("1380600001", "Barangay 1-A", LevelBarangay, ""),
	)
	assert.Equal(t, Resolve(b), Resolve(b))
}

func TestLinkers(t *testing.T) {
	regions := IDs{"0100000000": 1}
	provinces := IDs{"0128000000": 10}
	cities := IDs{"0128010000": 100}

	lp := LinkProvince(ProvincePlan{RegionCode: "0100000000"}, regions)
	require.NotNil(t, lp.RegionID)
	assert.EqualValues(t, 1, *lp.RegionID)

	lc := LinkCity(CityPlan{RegionCode: "0100000000", ProvinceCode: "0199000000"}, regions, provinces)
	require.NotNil(t, lc.RegionID)
	assert.Nil(t, lc.ProvinceID)

	lb := LinkBarangay(BarangayPlan{RegionCode: "", ProvinceCode: "0128000000", CityCode: "0128010000"}, regions, provinces, cities)
	assert.Nil(t, lb.RegionID)
	require.NotNil(t, lb.ProvinceID)
	require.NotNil(t, lb.CityID)
	assert.EqualValues(t, 10, *lb.ProvinceID)
	assert.EqualValues(t, 100, *lb.CityID)
}
