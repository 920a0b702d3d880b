package weatherforecast

// Params are the tool parameters once the payload has passed schema validation.
type Params struct {
	Zipcode   string `json:"zipcode"`
	DaysAhead int    `json:"daysAhead"`
}

// Output is the variable set the job is completed with.
type Output struct {
	Forecast string `json:"forecast"`
}
