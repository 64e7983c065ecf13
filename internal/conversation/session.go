package conversation

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/intake-assistant/internal/ai"
	"github.com/spigell/intake-assistant/internal/candidate"
	"github.com/spigell/intake-assistant/internal/logger"
	"github.com/spigell/intake-assistant/internal/questions"
	"github.com/spigell/intake-assistant/internal/sentiment"
)

const (
	GreetingMessage = "Hello! I'm the Hiring Assistant for TalentScout. I'll gather your details and ask a few technical questions.\n\n" +
		"To start, what's your full name and which position(s) are you targeting?"
	ClosingMessage     = "Thank you for your time! Your information has been noted, and our team will review it shortly. Best of luck!"
	NoQuestionsMessage = "I couldn't generate technical questions for your tech stack right now. " + ClosingMessage
	GeneratingMessage  = "Generating technical questions based on your tech stack…"
)

// QuestionGenerator produces technical questions for a tech stack.
type QuestionGenerator interface {
	Generate(ctx context.Context, techStack string, n int) ([]string, error)
}

// Config tunes a session.
type Config struct {
	QuestionCount int
	ExitKeywords  []string
	ExitMatch     MatchMode
	// Extractors overrides the per-field extraction strategy.
	Extractors map[candidate.Field]candidate.Extractor
}

// Deps are the collaborators of a session.
type Deps struct {
	Generator  QuestionGenerator
	Classifier sentiment.Classifier
	Logger     *zap.Logger
}

// Turn is the outcome of one user utterance.
type Turn struct {
	Replies   []string
	Stage     Stage
	Sentiment sentiment.Result
}

// Session holds the state of one conversation. It is not safe for
// concurrent use; turns are processed one at a time.
type Session struct {
	stage         Stage
	fieldIndex    int
	record        candidate.Record
	questions     []string
	questionIndex int
	messages      []ai.Message
	sentiment     sentiment.Result

	questionCount int
	filler        *candidate.Filler
	exit          *ExitDetector
	generator     QuestionGenerator
	classifier    sentiment.Classifier
	logger        *zap.Logger
}

// NewSession starts a conversation. History begins with the system prompt and
// the greeting.
func NewSession(cfg Config, deps Deps) (*Session, error) {
	exit, err := NewExitDetector(cfg.ExitKeywords, cfg.ExitMatch)
	if err != nil {
		return nil, err
	}

	count := cfg.QuestionCount
	if count <= 0 {
		count = questions.DefaultCount
	}

	classifier := deps.Classifier
	if classifier == nil {
		classifier = sentiment.NewVader()
	}

	s := &Session{
		stage:         CollectingInfo,
		record:        candidate.NewRecord(),
		sentiment:     sentiment.Result{Label: sentiment.Neutral},
		questionCount: count,
		filler:        candidate.NewFiller(cfg.Extractors),
		exit:          exit,
		generator:     deps.Generator,
		classifier:    classifier,
		logger:        logger.With(deps.Logger),
	}

	s.messages = []ai.Message{
		{Role: ai.RoleSystem, Content: questions.SystemPrompt()},
		{Role: ai.RoleAssistant, Content: GreetingMessage},
	}

	return s, nil
}

func (s *Session) Greeting() string { return GreetingMessage }

func (s *Session) Stage() Stage { return s.stage }

// CurrentField is the field being collected. Meaningful only while collecting.
func (s *Session) CurrentField() candidate.Field { return candidate.Fields[s.fieldIndex] }

// Record returns a copy of the collected values.
func (s *Session) Record() candidate.Record {
	out := make(candidate.Record, len(s.record))
	for k, v := range s.record {
		out[k] = v
	}
	return out
}

func (s *Session) Questions() []string { return append([]string(nil), s.questions...) }

func (s *Session) QuestionIndex() int { return s.questionIndex }

// Messages returns a copy of the history, system message included.
func (s *Session) Messages() []ai.Message { return append([]ai.Message(nil), s.messages...) }

func (s *Session) Sentiment() sentiment.Result { return s.sentiment }

// Handle processes one user turn and returns the assistant replies.
func (s *Session) Handle(ctx context.Context, text string) Turn {
	s.sentiment = s.classifier.Classify(text)
	s.messages = append(s.messages, ai.Message{Role: ai.RoleUser, Content: text})

	turn := &Turn{Sentiment: s.sentiment}

	log := s.logger.With(logger.TurnFields(s.stage.String(), s.fieldName())...)
	log.Debug("user turn",
		zap.String("sentiment", string(s.sentiment.Label)),
		zap.Float64("compound", s.sentiment.Compound),
	)

	switch {
	case s.exit.Matches(text):
		log.Info("exit keyword detected")
		if s.stage != Finished {
			s.moveTo(Finished)
		}
		s.reply(turn, ClosingMessage)
	case s.stage == Finished:
		log.Debug("ignoring turn in finished stage")
	case s.stage == CollectingInfo:
		s.collect(ctx, text, turn)
	case s.stage == AskingQuestions:
		s.ask(turn)
	}

	turn.Stage = s.stage
	return *turn
}

func (s *Session) collect(ctx context.Context, text string, turn *Turn) {
	field := candidate.Fields[s.fieldIndex]

	if !s.filler.Fill(s.record, field, text) {
		s.logger.Debug("field not recognized, asking again", zap.String(logger.FieldCandidateField, field.String()))
		s.reply(turn, s.prefixed(field.Prompt()))
		return
	}

	s.logger.Debug("field collected", zap.String(logger.FieldCandidateField, field.String()))

	if next, ok := s.record.NextUnfilled(s.fieldIndex + 1); ok {
		s.fieldIndex = next
		s.reply(turn, s.prefixed(candidate.Fields[next].Prompt()))
		return
	}

	s.startQuestions(ctx, turn)
}

func (s *Session) startQuestions(ctx context.Context, turn *Turn) {
	s.reply(turn, s.prefixed(GeneratingMessage))

	if s.generator == nil {
		s.moveTo(Finished)
		s.reply(turn, NoQuestionsMessage)
		return
	}

	generated, err := s.generator.Generate(ctx, s.record[candidate.TechStack], s.questionCount)
	if err != nil {
		s.logger.Warn("question generation failed", zap.Error(err))
		s.reply(turn, ai.Display("", err))
		generated = nil
	}

	s.moveTo(AskingQuestions)
	s.questions = generated
	s.questionIndex = 0

	if len(generated) == 0 {
		s.logger.Warn("no questions generated")
		s.moveTo(Finished)
		s.reply(turn, NoQuestionsMessage)
		return
	}

	s.reply(turn, generated[0])
}

func (s *Session) ask(turn *Turn) {
	s.questionIndex++
	if s.questionIndex < len(s.questions) {
		s.reply(turn, s.questions[s.questionIndex])
		return
	}

	s.moveTo(Finished)
	s.reply(turn, ClosingMessage)
}

func (s *Session) moveTo(to Stage) {
	if !CanTransition(s.stage, to) {
		s.logger.Error("illegal stage transition", zap.Stringer("from", s.stage), zap.Stringer("to", to))
		return
	}
	s.logger.Info("stage changed", zap.Stringer("from", s.stage), zap.Stringer("to", to))
	s.stage = to
}

func (s *Session) reply(turn *Turn, msg string) {
	turn.Replies = append(turn.Replies, msg)
	s.messages = append(s.messages, ai.Message{Role: ai.RoleAssistant, Content: msg})
}

func (s *Session) prefixed(msg string) string {
	return sentiment.WithPrefix(s.sentiment.Label, msg)
}

func (s *Session) fieldName() string {
	if s.stage != CollectingInfo {
		return ""
	}
	return candidate.Fields[s.fieldIndex].String()
}
