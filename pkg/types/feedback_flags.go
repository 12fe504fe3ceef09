package types

// FeedbackFlags carries the structured yes/no signals attached to a rating.
type FeedbackFlags struct {
	ItemAsDescribed   *bool `json:"item_as_described,omitempty"`
	FastShipping      *bool `json:"fast_shipping,omitempty"`
	GoodCommunication *bool `json:"good_communication,omitempty"`
}
