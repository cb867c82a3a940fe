package app

import (
	"time"

	"github.com/okian/smaile/internal/domain/stabilizer"
)

// FrameKind classifies the outcome of one detection cycle.
type FrameKind uint8

// Frame kinds.
const (
	// FrameNoFace means no face was found and there is no history to show.
	FrameNoFace FrameKind = iota
	// FrameHold means no face was found but the last display stays up.
	FrameHold
	// FrameNoStrongExpression means no category cleared the confidence threshold.
	FrameNoStrongExpression
	// FrameFullUpdate replaces the shown categories.
	FrameFullUpdate
	// FrameValuesUpdate refreshes values of the shown categories.
	FrameValuesUpdate
	// FrameAllExpressions is the every-category view.
	FrameAllExpressions
)

func (k FrameKind) String() string {
	switch k {
	case FrameNoFace:
		return "no_face"
	case FrameHold:
		return "hold"
	case FrameNoStrongExpression:
		return "no_strong_expression"
	case FrameFullUpdate:
		return "full_update"
	case FrameValuesUpdate:
		return "values_update"
	case FrameAllExpressions:
		return "all_expressions"
	default:
		return "unknown"
	}
}

// Frame is what one call to ProcessCycle produced.
type Frame struct {
	Kind FrameKind
	// Items are the slots to draw. For a values update only the slots whose
	// category is still on screen are present.
	Items []stabilizer.Display
	// Shown is the full list on screen after this frame.
	Shown []stabilizer.Display
	// BufferLen is the number of entries retained after the cycle.
	BufferLen int
	// Cleared reports that the silence timeout emptied the buffer.
	Cleared bool
	At      time.Time
}

func frameKind(k stabilizer.Kind) FrameKind {
	switch k {
	case stabilizer.KindFullUpdate:
		return FrameFullUpdate
	case stabilizer.KindValuesUpdate:
		return FrameValuesUpdate
	case stabilizer.KindAllExpressions:
		return FrameAllExpressions
	default:
		return FrameNoStrongExpression
	}
}
