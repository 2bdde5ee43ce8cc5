package store

import "time"

// Version：psgc_versions 一行，对应一次发布的数据快照
type Version struct {
	ID                        int64      `db:"id" json:"id"`
	Quarter                   *string    `db:"quarter" json:"quarter"`
	Year                      *string    `db:"year" json:"year"`
	PublicationDate           *time.Time `db:"publication_date" json:"publication_date"`
	DownloadURL               *string    `db:"download_url" json:"download_url"`
	Filename                  *string    `db:"filename" json:"filename"`
	IsCurrent                 bool       `db:"is_current" json:"is_current"`
	RegionsCount              int        `db:"regions_count" json:"regions_count"`
	ProvincesCount            int        `db:"provinces_count" json:"provinces_count"`
	CitiesMunicipalitiesCount int        `db:"cities_municipalities_count" json:"cities_municipalities_count"`
	BarangaysCount            int        `db:"barangays_count" json:"barangays_count"`
	CreatedAt                 time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time  `db:"updated_at" json:"updated_at"`
}

// unitColumns：四个层级共有的列
type unitColumns struct {
	ID                 int64     `db:"id" json:"id"`
	Code               string    `db:"code" json:"code"`
	Name               string    `db:"name" json:"name"`
	OldName            *string   `db:"old_name" json:"old_name"`
	CorrespondenceCode *string   `db:"correspondence_code" json:"correspondence_code"`
	GeographicLevel    string    `db:"geographic_level" json:"geographic_level"`
	VersionID          int64     `db:"psgc_version_id" json:"psgc_version_id"`
	CreatedAt          time.Time `db:"created_at" json:"-"`
	UpdatedAt          time.Time `db:"updated_at" json:"-"`
}

type Region struct {
	unitColumns
}

type Province struct {
	unitColumns
	RegionCode     *string `db:"region_code" json:"region_code"`
	RegionID       *int64  `db:"region_id" json:"region_id"`
	IsCapital      bool    `db:"is_capital" json:"is_capital"`
	IsVirtual      bool    `db:"is_virtual" json:"is_virtual"`
	IsElevatedCity bool    `db:"is_elevated_city" json:"is_elevated_city"`
}

type CityMunicipality struct {
	unitColumns
	CityClass    *string `db:"city_class" json:"city_class"`
	RegionCode   *string `db:"region_code" json:"region_code"`
	ProvinceCode *string `db:"province_code" json:"province_code"`
	RegionID     *int64  `db:"region_id" json:"region_id"`
	ProvinceID   *int64  `db:"province_id" json:"province_id"`
}

type Barangay struct {
	unitColumns
	RegionCode           *string `db:"region_code" json:"region_code"`
	ProvinceCode         *string `db:"province_code" json:"province_code"`
	CityMunicipalityCode *string `db:"city_municipality_code" json:"city_municipality_code"`
	RegionID             *int64  `db:"region_id" json:"region_id"`
	ProvinceID           *int64  `db:"province_id" json:"province_id"`
	CityMunicipalityID   *int64  `db:"city_municipality_id" json:"city_municipality_id"`
}
