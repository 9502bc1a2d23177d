package engine

import "math"

// SwipeThresholdFraction is the share of the interaction surface's extent
// a swipe must travel strictly past before it resolves a
// decision. At or below the threshold the card snaps back to rest.
const SwipeThresholdFraction = 0.30

// GestureDecision maps an end-of-gesture displacement to a decision.
// displacement is the signed travel sampled when the gesture ends;
// extent is the interaction surface's full extent along the swipe axis.
// Positive displacement accepts, negative declines. Returns ok=false when
// the swipe did not clear the threshold (including exact equality) or the
// extent is degenerate; the caller performs no resolution in that case.
//
// Taps are not gestures: a zero-displacement touch opens the detail view
// via MarkOpened and never reaches this mapping.
func GestureDecision(displacement, extent float64) (Decision, bool) {
	if extent <= 0 {
		return "", false
	}
	if math.Abs(displacement) <= SwipeThresholdFraction*extent {
		return "", false
	}
	if displacement > 0 {
		return DecisionAccepted, true
	}
	return DecisionDeclined, true
}
