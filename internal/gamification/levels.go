package gamification

// XPPerMission is awarded for every completed mission regardless of quiz score.
const XPPerMission = 50

// QuizLength is the number of questions in a mission quiz.
const QuizLength = 4

// MaxLevel is the highest reachable level.
const MaxLevel = 8

// levelThresholds[i] is the total XP needed to reach level i+1.
var levelThresholds = [MaxLevel]int{0, 100, 250, 500, 1000, 2000, 4000, 8000}

// Threshold returns the XP required for level, clamped to the table.
func Threshold(level int) int {
	switch {
	case level <= 1:
		return 0
	case level >= MaxLevel:
		return levelThresholds[MaxLevel-1]
	default:
		return levelThresholds[level-1]
	}
}

// LevelForXP returns the highest level whose threshold xp reaches.
func LevelForXP(xp int) int {
	return advance(1, xp)
}

// advance raises level while the next threshold is reached.
func advance(level, xp int) int {
	if level < 1 {
		level = 1
	}
	for level < MaxLevel && xp >= levelThresholds[level] {
		level++
	}
	return level
}

// XPProgress drives the experience bar.
type XPProgress struct {
	Level          int     `json:"level"`
	XP             int     `json:"xp"`
	CurrentLevelXP int     `json:"current_level_xp"`
	NextLevelXP    int     `json:"next_level_xp"`
	IntoLevel      int     `json:"into_level"`
	ForNextLevel   int     `json:"for_next_level"`
	Percent        float64 `json:"percent"`
}

// Progress reports how far p is between its level's threshold and the next.
// At the level cap the bar is full.
func Progress(p Profile) XPProgress {
	level := p.Level
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}

	cur := levelThresholds[level-1]
	next := levelThresholds[MaxLevel-1]
	if level < MaxLevel {
		next = levelThresholds[level]
	}

	out := XPProgress{
		Level:          level,
		XP:             p.XP,
		CurrentLevelXP: cur,
		NextLevelXP:    next,
		IntoLevel:      p.XP - cur,
		ForNextLevel:   next - cur,
	}
	if out.IntoLevel < 0 {
		out.IntoLevel = 0
	}

	span := next - cur
	if span <= 0 {
		out.Percent = 100
		return out
	}
	out.Percent = float64(out.IntoLevel) / float64(span) * 100
	if out.Percent > 100 {
		out.Percent = 100
	}
	return out
}
