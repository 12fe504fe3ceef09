package enums

import "fmt"

// IssueType classifies a buyer-reported problem with a shipped or delivered
// order item.
type IssueType string

const (
	IssueTypeNotReceived    IssueType = "not_received"
	IssueTypeWrongItem      IssueType = "wrong_item"
	IssueTypeDamaged        IssueType = "damaged"
	IssueTypeNotAsDescribed IssueType = "not_as_described"
	IssueTypeMissingParts   IssueType = "missing_parts"
	IssueTypeOther          IssueType = "other"
)

var validIssueTypes = []IssueType{
	IssueTypeNotReceived,
	IssueTypeWrongItem,
	IssueTypeDamaged,
	IssueTypeNotAsDescribed,
	IssueTypeMissingParts,
	IssueTypeOther,
}

// String implements fmt.Stringer.
func (i IssueType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known IssueType.
func (i IssueType) IsValid() bool {
	for _, candidate := range validIssueTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseIssueType converts raw input into an IssueType.
func ParseIssueType(value string) (IssueType, error) {
	for _, candidate := range validIssueTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid issue type %q", value)
}
