package models

import "encoding/xml"

// N0NBHXMLResponse represents the hamqsl solarxml payload
type N0NBHXMLResponse struct {
	XMLName   xml.Name `xml:"solar"`
	SolarData struct {
		Source        string `xml:"source"`
		Updated       string `xml:"updated"`
		SolarFlux     string `xml:"solarflux"`
		AIndex        string `xml:"aindex"`
		KIndex        string `xml:"kindex"`
		XRay          string `xml:"xray"`
		SunSpots      string `xml:"sunspots"`
		SolarWind     string `xml:"solarwind"`
		MagneticField string `xml:"magneticfield"`
	} `xml:"solardata"`
}
