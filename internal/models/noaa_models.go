package models

// NOAASolarCycleRecord is one entry of the SWPC solar-cycle JSON products
// (sunspots.json and observed-solar-cycle-indices.json). Missing values are
// published as -1 or omitted.
type NOAASolarCycleRecord struct {
	TimeTag     string   `json:"time-tag"`
	SSN         *float64 `json:"ssn"`
	SmoothedSSN *float64 `json:"smoothed_ssn"`
	F107        *float64 `json:"f10.7"`
	SolarCycle  *float64 `json:"solar_cycle"`
}

// NOAAXRayFlare is one entry of the GOES xray-flares product
type NOAAXRayFlare struct {
	TimeTag   string `json:"time_tag"`
	BeginTime string `json:"begin_time"`
	MaxTime   string `json:"max_time"`
	EndTime   string `json:"end_time"`
	MaxClass  string `json:"max_class"`
}

// NOAAKIndexRecord is the object form of the planetary K-index product
type NOAAKIndexRecord struct {
	TimeTag     string   `json:"time_tag"`
	Kp          *float64 `json:"Kp"`
	KpIndex     *float64 `json:"kp_index"`
	EstimatedKp *float64 `json:"estimated_kp"`
	ARunning    *float64 `json:"a_running"`
}

// SWPCAlert is one entry of the SWPC alerts product
type SWPCAlert struct {
	ProductID     string `json:"product_id"`
	IssueDatetime string `json:"issue_datetime"`
	Message       string `json:"message"`
}
