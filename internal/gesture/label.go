// Package gesture classifies face and pose landmarks into emote gestures.
package gesture

import "fmt"

// Label identifies one of the emote gestures the classifier can emit.
type Label string

const (
	// LabelNeutral is emitted when no gesture rule fires.
	LabelNeutral Label = "neutral"
	// LabelKingLaughing is a wide open mouth.
	LabelKingLaughing Label = "king_laughing"
	// LabelJawline is the head turned with a hand under the chin.
	LabelJawline Label = "jawline"
	// LabelGoblinCrying is a hand near an eye rubbing up and down.
	LabelGoblinCrying Label = "goblin_crying"
	// LabelSixSeven is both hands pumping in opposite directions.
	LabelSixSeven Label = "six_seven"
)

// Labels lists every label in rule order, with neutral last.
var Labels = []Label{
	LabelJawline,
	LabelGoblinCrying,
	LabelKingLaughing,
	LabelSixSeven,
	LabelNeutral,
}

// ParseLabel converts a string into a Label.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown gesture label %q", s)
}

// String returns the label name.
func (l Label) String() string {
	return string(l)
}
