package api

import "psgc-api/internal/store"

// 文档注释：对外返回结构
// 背景：列表与详情统一包裹在 {"data": ...} 中，错误为 {"error": "..."}；详情附带直接下级
// 约束：字段名与数据库列名一致；新增字段需评估兼容性
type envelope struct {
	Data any `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

type regionDetail struct {
	store.Region
	Provinces []store.Province `json:"provinces"`
}

type provinceDetail struct {
	store.Province
	Region               *store.Region            `json:"region"`
	CitiesMunicipalities []store.CityMunicipality `json:"cities_municipalities"`
}

type cityDetail struct {
	store.CityMunicipality
	Barangays []store.Barangay `json:"barangays"`
}

type syncAccepted struct {
	Status string `json:"status"`
}
