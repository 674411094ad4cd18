package studyai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Tarunjit45/ExamGenius/internal/plan"
)

const extractionInstruction = `List every subject in this syllabus together with the topics it covers.
Keep the syllabus wording for subject and topic names and keep their order.
Leave out exam dates, marking schemes and administrative notes.
Answer with JSON only, following the provided schema: an array of {"subject", "topics"}.`

func imageExtractionPrompt() string {
	return "The attached image is a photo or scan of a syllabus.\n\n" + extractionInstruction
}

func textExtractionPrompt(text string) string {
	return fmt.Sprintf("Below is the text of a syllabus.\n\n---\n%s\n---\n\n%s", strings.TrimSpace(text), extractionInstruction)
}

var paceGuidance = map[plan.Pace]string{
	plan.PaceChill:    "light days with few missions each, leaving slack in the schedule",
	plan.PaceNormal:   "a steady, moderate number of missions each day",
	plan.PaceSpeedrun: "dense days with many missions each, front-loading the work",
}

const planningSystemPrompt = `You design gamified study quests. Each syllabus topic becomes one mission on a specific day.`

func planningPrompt(topics []plan.SyllabusTopic, days int, pace plan.Pace) string {
	refs, _ := json.Marshal(plan.Flatten(topics))

	var b strings.Builder
	fmt.Fprintf(&b, "Missions to schedule (subject, topic): %s\n", refs)
	fmt.Fprintf(&b, "Days available: %d\n", days)
	fmt.Fprintf(&b, "Pace: %s, meaning %s.\n\n", pace, paceGuidance[pace])
	b.WriteString(`Rules:
1. Schedule every listed mission exactly once. Do not add, drop, merge or rename missions; copy subject and topic verbatim.
2. Number days from 1 and never use a day greater than the number of days available.
3. Spread missions across the days according to the pace.
4. Mix subjects within a day where possible and put harder topics earlier.
5. Answer with JSON only, following the provided schema: {"days": [{"day", "missions": [{"subject", "topic"}]}]}.`)
	return b.String()
}

func aidPrompt(kind AidKind, subject, topic string) string {
	switch kind {
	case AidNotes:
		return fmt.Sprintf(`Write study notes on %q for the subject %q.
Check facts against current sources. Cover the core ideas clearly enough for a student meeting them for the first time.
Format with Markdown headings and bullet points.`, topic, subject)
	case AidSummary:
		return fmt.Sprintf(`Summarise the key ideas of %q in %q in a single short paragraph.`, topic, subject)
	case AidMnemonics:
		return fmt.Sprintf(`Invent memorable mnemonics for the key facts of %q in %q.
Use a Markdown heading per concept and list the mnemonics under it.`, topic, subject)
	case AidStory:
		return fmt.Sprintf(`I am studying %q and today's topic is %q.
Retell the topic as a short adventure game story with characters, a plot and challenges, so that learning it feels like levelling up.
Keep every fact accurate. Format with Markdown.`, subject, topic)
	}
	return ""
}

func quizPrompt(subject, topic string) string {
	return fmt.Sprintf(`Write a 4-question multiple-choice quiz on %q in %q that checks understanding rather than recall of wording.
Every question has exactly 4 distinct options and exactly one of them is correct.
correctAnswer must repeat the correct option word for word.
Answer with JSON only, following the provided schema.`, topic, subject)
}
