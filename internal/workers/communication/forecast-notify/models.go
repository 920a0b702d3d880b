// internal/workers/communication/forecast-notify/models.go
package forecastnotify

type Params struct {
	Zipcode   string `json:"zipcode"`
	DaysAhead int    `json:"daysAhead"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type Output struct {
	NotificationSummary string `json:"notificationSummary"`
}

// Delivery records one notification run.
type Delivery struct {
	NotificationID string
	Channels       []string
	Forecast       string
}

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
