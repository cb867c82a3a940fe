package app

import (
	"fmt"
	"time"
)

// MaxDurationMS bounds window_ms and silence_timeout_ms.
const MaxDurationMS = 60_000

// Settings is a snapshot of the runtime tunables.
type Settings struct {
	WindowMS            int     `json:"window_ms"`
	SilenceTimeoutMS    int     `json:"silence_timeout_ms"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	ChangeThreshold     float64 `json:"change_threshold"`
	ShowAllExpressions  bool    `json:"show_all_expressions"`
	ShowStats           bool    `json:"show_stats"`
}

// SettingsPatch carries the tunables to change. Nil fields are left alone.
type SettingsPatch struct {
	WindowMS            *int     `json:"window_ms,omitempty"`
	SilenceTimeoutMS    *int     `json:"silence_timeout_ms,omitempty"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	ChangeThreshold     *float64 `json:"change_threshold,omitempty"`
	ShowAllExpressions  *bool    `json:"show_all_expressions,omitempty"`
	ShowStats           *bool    `json:"show_stats,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p SettingsPatch) Empty() bool {
	return p.WindowMS == nil && p.SilenceTimeoutMS == nil &&
		p.ConfidenceThreshold == nil && p.ChangeThreshold == nil &&
		p.ShowAllExpressions == nil && p.ShowStats == nil
}

// Validate checks value ranges.
func (p SettingsPatch) Validate() error {
	if p.WindowMS != nil && !durationMS(*p.WindowMS) {
		return fmt.Errorf("%w: window_ms must be within (0,%d]", ErrInvalidSettings, MaxDurationMS)
	}
	if p.SilenceTimeoutMS != nil && !durationMS(*p.SilenceTimeoutMS) {
		return fmt.Errorf("%w: silence_timeout_ms must be within (0,%d]", ErrInvalidSettings, MaxDurationMS)
	}
	if p.ConfidenceThreshold != nil && !unit(*p.ConfidenceThreshold) {
		return fmt.Errorf("%w: confidence_threshold must be within [0,1]", ErrInvalidSettings)
	}
	if p.ChangeThreshold != nil && !unit(*p.ChangeThreshold) {
		return fmt.Errorf("%w: change_threshold must be within [0,1]", ErrInvalidSettings)
	}
	return nil
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

func durationMS(ms int) bool { return ms > 0 && ms <= MaxDurationMS }

// Apply validates p and applies it to the session. It returns the names of
// the settings that changed.
func (s *Session) Apply(p SettingsPatch) ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	before := s.Settings()
	if p.WindowMS != nil {
		s.SetWindow(time.Duration(*p.WindowMS) * time.Millisecond)
	}
	if p.SilenceTimeoutMS != nil {
		s.SetSilenceTimeout(time.Duration(*p.SilenceTimeoutMS) * time.Millisecond)
	}
	if p.ConfidenceThreshold != nil {
		s.SetConfidenceThreshold(*p.ConfidenceThreshold)
	}
	if p.ChangeThreshold != nil {
		s.SetChangeThreshold(*p.ChangeThreshold)
	}
	if p.ShowAllExpressions != nil {
		s.SetShowAll(*p.ShowAllExpressions)
	}
	if p.ShowStats != nil {
		s.SetShowStats(*p.ShowStats)
	}
	return changed(before, s.Settings()), nil
}

func changed(a, b Settings) []string {
	var out []string
	if a.WindowMS != b.WindowMS {
		out = append(out, "window_ms")
	}
	if a.SilenceTimeoutMS != b.SilenceTimeoutMS {
		out = append(out, "silence_timeout_ms")
	}
	if a.ConfidenceThreshold != b.ConfidenceThreshold {
		out = append(out, "confidence_threshold")
	}
	if a.ChangeThreshold != b.ChangeThreshold {
		out = append(out, "change_threshold")
	}
	if a.ShowAllExpressions != b.ShowAllExpressions {
		out = append(out, "show_all_expressions")
	}
	if a.ShowStats != b.ShowStats {
		out = append(out, "show_stats")
	}
	return out
}
