// Package studyai turns syllabi into topics, topics into plan drafts, and
// missions into study aids and quizzes by prompting the AI router.
//
// Every structured answer is validated against a JSON Schema before it is
// decoded, and every failure is reported as a *GatewayError.
package studyai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Tarunjit45/ExamGenius/internal/ai"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
)

// Gateway operations, as reported in GatewayError.Op.
const (
	OpExtractTopics  = "extract_topics"
	OpSynthesizePlan = "synthesize_plan"
	OpGenerateAid    = "generate_aid"
	OpGenerateQuiz   = "generate_quiz"
)

// PlanningThinkingBudget caps the reasoning tokens spent on a study plan.
const PlanningThinkingBudget = 32768

// ErrNoTopicsFound is returned when the model found nothing to study in a syllabus.
var ErrNoTopicsFound = errors.New("no topics found in syllabus")

// GatewayError is any failure of an AI operation: transport, provider,
// timeout, or an answer that did not validate.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("ai gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// AidKind names a lazily generated study aid.
type AidKind string

const (
	AidNotes     AidKind = "notes"
	AidSummary   AidKind = "summary"
	AidMnemonics AidKind = "mnemonics"
	AidStory     AidKind = "story"
	AidQuiz      AidKind = "quiz"
)

// AidKinds lists every aid in the order the dashboard shows them.
var AidKinds = []AidKind{AidNotes, AidSummary, AidMnemonics, AidStory, AidQuiz}

// ParseAidKind validates a kind coming from a request.
func ParseAidKind(s string) (AidKind, error) {
	for _, k := range AidKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", &plan.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown study aid %q", s)}
}

var aidTasks = map[AidKind]ai.TaskType{
	AidNotes:     ai.TaskNotes,
	AidSummary:   ai.TaskSummary,
	AidMnemonics: ai.TaskMnemonics,
	AidStory:     ai.TaskStory,
}

// Gateway runs study operations against an AI completer.
type Gateway struct {
	completer ai.Completer
	pdf       PDFTextExtractor
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithPDFExtractor replaces the default PDF text extractor.
func WithPDFExtractor(x PDFTextExtractor) Option {
	return func(g *Gateway) {
		g.pdf = x
	}
}

// New creates a Gateway over completer, usually an *ai.Router.
func New(completer ai.Completer, opts ...Option) *Gateway {
	g := &Gateway{completer: completer, pdf: PDFReader{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type learnerKey struct{}

// WithLearner attributes the AI calls made with ctx to a learner, for token budgeting.
func WithLearner(ctx context.Context, learnerID string) context.Context {
	return context.WithValue(ctx, learnerKey{}, learnerID)
}

func learnerFrom(ctx context.Context) string {
	id, _ := ctx.Value(learnerKey{}).(string)
	return id
}

func (g *Gateway) complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	req.UserID = learnerFrom(ctx)
	resp, err := g.completer.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%w: empty response", ai.ErrInvalidOutput)
	}
	return resp.Content, nil
}

// ExtractTopics reads the subjects and topics of a syllabus document.
// Images are sent to the model as-is, PDFs and text files as text.
func (g *Gateway) ExtractTopics(ctx context.Context, doc Document) ([]plan.SyllabusTopic, error) {
	msg, err := g.extractionMessage(doc)
	if err != nil {
		return nil, &GatewayError{Op: OpExtractTopics, Err: err}
	}

	content, err := g.complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{msg},
		Task:     ai.TaskExtraction,
		Format:   ai.FormatJSON,
		Schema:   topicsSchema.raw,
	})
	if err != nil {
		return nil, &GatewayError{Op: OpExtractTopics, Err: err}
	}

	var topics []plan.SyllabusTopic
	if err := topicsSchema.decode(content, &topics); err != nil {
		return nil, &GatewayError{Op: OpExtractTopics, Err: err}
	}
	topics = cleanTopics(topics)
	if len(topics) == 0 {
		return nil, &GatewayError{Op: OpExtractTopics, Err: ErrNoTopicsFound}
	}

	slog.Info("syllabus topics extracted",
		"document", doc.Name,
		"subjects", len(topics),
		"topics", len(plan.Flatten(topics)),
	)
	return topics, nil
}

func (g *Gateway) extractionMessage(doc Document) (ai.Message, error) {
	kind, detected := sniff(doc)
	switch kind {
	case kindImage:
		return ai.Message{
			Role:        "user",
			Content:     imageExtractionPrompt(),
			Attachments: []ai.Attachment{{MIMEType: detected, Data: doc.Data}},
		}, nil
	case kindPDF:
		text, err := g.pdf.ExtractText(doc.Data)
		if err != nil {
			return ai.Message{}, err
		}
		if strings.TrimSpace(text) == "" {
			return ai.Message{}, ErrEmptyDocument
		}
		return ai.Message{Role: "user", Content: textExtractionPrompt(text)}, nil
	case kindText:
		text := string(doc.Data)
		if strings.TrimSpace(text) == "" {
			return ai.Message{}, ErrEmptyDocument
		}
		return ai.Message{Role: "user", Content: textExtractionPrompt(text)}, nil
	}
	return ai.Message{}, fmt.Errorf("%w: %s", ErrUnsupportedDocument, detected)
}

// cleanTopics trims names and drops blank topics and subjects left without topics.
func cleanTopics(in []plan.SyllabusTopic) []plan.SyllabusTopic {
	out := make([]plan.SyllabusTopic, 0, len(in))
	for _, st := range in {
		subject := strings.TrimSpace(st.Subject)
		if subject == "" {
			continue
		}
		var topics []string
		for _, t := range st.Topics {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
		if len(topics) == 0 {
			continue
		}
		out = append(out, plan.SyllabusTopic{Subject: subject, Topics: topics})
	}
	return out
}

// SynthesizePlan asks the planner to lay topics out over days at the given pace.
// The request is validated before the model is called; the returned draft is
// shape-checked only and still has to go through plan.Build.
func (g *Gateway) SynthesizePlan(ctx context.Context, topics []plan.SyllabusTopic, days int, pace plan.Pace) (plan.Draft, error) {
	if err := plan.ValidateRequest(topics, days, pace); err != nil {
		return plan.Draft{}, err
	}

	content, err := g.complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: planningSystemPrompt},
			{Role: "user", Content: planningPrompt(topics, days, pace)},
		},
		Task:           ai.TaskPlanning,
		Format:         ai.FormatJSON,
		Schema:         planSchema.raw,
		ThinkingBudget: PlanningThinkingBudget,
	})
	if err != nil {
		return plan.Draft{}, &GatewayError{Op: OpSynthesizePlan, Err: err}
	}

	var draft plan.Draft
	if err := planSchema.decode(content, &draft); err != nil {
		return plan.Draft{}, &GatewayError{Op: OpSynthesizePlan, Err: &plan.MalformedPlanError{Reason: err.Error()}}
	}
	return draft, nil
}

// GenerateAid writes one text study aid (notes, summary, mnemonics or story) as Markdown.
func (g *Gateway) GenerateAid(ctx context.Context, subject, topic string, kind AidKind) (string, error) {
	task, ok := aidTasks[kind]
	if !ok {
		return "", &plan.ValidationError{Field: "kind", Reason: fmt.Sprintf("%q is not a text study aid", kind)}
	}
	if err := validateMission(subject, topic); err != nil {
		return "", err
	}

	content, err := g.complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{{Role: "user", Content: aidPrompt(kind, subject, topic)}},
		Task:     task,
		Grounded: kind == AidNotes,
	})
	if err != nil {
		return "", &GatewayError{Op: OpGenerateAid, Err: err}
	}
	return strings.TrimSpace(content), nil
}

// GenerateQuiz writes a quiz of exactly four questions with four distinct options each.
// A quiz that breaks those rules is a *GatewayError wrapping a *plan.ValidationError.
func (g *Gateway) GenerateQuiz(ctx context.Context, subject, topic string) ([]QuizQuestion, error) {
	if err := validateMission(subject, topic); err != nil {
		return nil, err
	}

	content, err := g.complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{{Role: "user", Content: quizPrompt(subject, topic)}},
		Task:     ai.TaskQuiz,
		Format:   ai.FormatJSON,
		Schema:   quizSchema.raw,
	})
	if err != nil {
		return nil, &GatewayError{Op: OpGenerateQuiz, Err: err}
	}

	var questions []QuizQuestion
	if err := quizSchema.decode(content, &questions); err != nil {
		return nil, &GatewayError{Op: OpGenerateQuiz, Err: &plan.ValidationError{Field: "quiz", Reason: err.Error()}}
	}
	if err := validateQuiz(questions); err != nil {
		return nil, &GatewayError{Op: OpGenerateQuiz, Err: err}
	}
	return questions, nil
}

func validateMission(subject, topic string) error {
	if strings.TrimSpace(subject) == "" {
		return &plan.ValidationError{Field: "subject", Reason: "must not be blank"}
	}
	if strings.TrimSpace(topic) == "" {
		return &plan.ValidationError{Field: "topic", Reason: "must not be blank"}
	}
	return nil
}
