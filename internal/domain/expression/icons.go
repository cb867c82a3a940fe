package expression

// fallbackIcon is shown for anything outside the table.
const fallbackIcon = "😐"

// NoFaceIcon and NoStrongExpressionIcon back the two sentinel displays.
const (
	NoFaceIcon             = "🤔"
	NoStrongExpressionIcon = "😶"
)

var iconTable = [Count][]string{
	Neutral:   {"😐", "😑", "😶"},
	Happy:     {"😊", "😀", "😃"},
	Sad:       {"😢", "😞", "☹️"},
	Angry:     {"😠", "😡", "💢"},
	Fearful:   {"😨", "😰", "😱"},
	Disgusted: {"🤢", "🤮", "😖"},
	Surprised: {"😲", "😯", "😮"},
}

// Icon returns the representative icon for c: the first entry of its table row.
func (c Category) Icon() string {
	if !c.Valid() || len(iconTable[c]) == 0 {
		return fallbackIcon
	}
	return iconTable[c][0]
}

// Icons returns every icon associated with c.
func (c Category) Icons() []string {
	if !c.Valid() {
		return []string{fallbackIcon}
	}
	out := make([]string, len(iconTable[c]))
	copy(out, iconTable[c])
	return out
}
