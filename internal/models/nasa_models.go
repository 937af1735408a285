package models

// DONKINotification is one entry of the DONKI notifications feed
type DONKINotification struct {
	MessageType      string `json:"messageType"`
	MessageID        string `json:"messageID"`
	MessageURL       string `json:"messageURL"`
	MessageIssueTime string `json:"messageIssueTime"`
	MessageBody      string `json:"messageBody"`
}

// DONKIFlare is one entry of the DONKI FLR feed
type DONKIFlare struct {
	FlrID           string `json:"flrID"`
	BeginTime       string `json:"beginTime"`
	PeakTime        string `json:"peakTime"`
	EndTime         string `json:"endTime"`
	ClassType       string `json:"classType"`
	ActiveRegionNum *int   `json:"activeRegionNum"`
	Link            string `json:"link"`
}

// APODResponse is the astronomy picture of the day payload
type APODResponse struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	URL         string `json:"url"`
	Date        string `json:"date"`
	MediaType   string `json:"media_type"`
}

// DONKICME is one entry of the DONKI CME feed
type DONKICME struct {
	ActivityID     string `json:"activityID"`
	StartTime      string `json:"startTime"`
	SourceLocation string `json:"sourceLocation"`
	Note           string `json:"note"`
	Link           string `json:"link"`
}
