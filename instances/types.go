package instances

// Instance is one monitored Mattermost server.
type Instance struct {
	Name    string `json:"name"`
	API     string `json:"api"`
	URL     string `json:"url"`
	Channel string `json:"channel,omitempty"`
}

// rawInstance keeps absent fields distinguishable from empty ones while validating.
type rawInstance struct {
	Name    *string `json:"name"`
	API     *string `json:"api"`
	URL     *string `json:"url"`
	Channel *string `json:"channel"`
}
