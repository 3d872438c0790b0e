package constant

// AnalysisStatus is the lifecycle flag of an analysis, orthogonal to its phase.
type AnalysisStatus string

const (
	StatusInProgress     AnalysisStatus = "IN_PROGRESS"
	StatusReadyToAdvance AnalysisStatus = "READY_TO_ADVANCE"
	StatusSubmitted      AnalysisStatus = "SUBMITTED"
	StatusReopened       AnalysisStatus = "REOPENED"
	StatusCompleted      AnalysisStatus = "COMPLETED"
)

// AnalysisPhase is the workflow stage an analysis is currently in.
type AnalysisPhase string

const (
	PhaseAnalysis     AnalysisPhase = "ANALYSIS"
	PhaseStrategy     AnalysisPhase = "STRATEGY"
	PhaseTestPlanning AnalysisPhase = "TEST_PLANNING"
	PhaseCompleted    AnalysisPhase = "COMPLETED"
)

type MessageRole string

const (
	RoleUser      MessageRole = "USER"
	RoleAssistant MessageRole = "ASSISTANT"
)

type MessageType string

const (
	TypeQuestion       MessageType = "QUESTION"
	TypeAnswer         MessageType = "ANSWER"
	TypeClarification  MessageType = "CLARIFICATION"
	TypeAnalysisResult MessageType = "ANALYSIS_RESULT"
	TypeStrategyResult MessageType = "STRATEGY_RESULT"
	TypeTestplanResult MessageType = "TESTPLAN_RESULT"
)

// QuestionCategory tags a message with the requirement aspect it addresses.
type QuestionCategory string

const (
	CategoryFunctionalRequirements    QuestionCategory = "FUNCTIONAL_REQUIREMENTS"
	CategoryNonFunctionalRequirements QuestionCategory = "NON_FUNCTIONAL_REQUIREMENTS"
	CategoryBusinessRules             QuestionCategory = "BUSINESS_RULES"
	CategoryAcceptanceCriteria        QuestionCategory = "ACCEPTANCE_CRITERIA"
	CategoryStakeholders              QuestionCategory = "STAKEHOLDERS"
	CategoryConstraints               QuestionCategory = "CONSTRAINTS"
	CategoryDependencies              QuestionCategory = "DEPENDENCIES"
	CategoryRisks                     QuestionCategory = "RISKS"
	CategoryEdgeCases                 QuestionCategory = "EDGE_CASES"
	CategoryIntegration               QuestionCategory = "INTEGRATION"
)

// AllCategories lists every valid question category.
var AllCategories = []QuestionCategory{
	CategoryFunctionalRequirements,
	CategoryNonFunctionalRequirements,
	CategoryBusinessRules,
	CategoryAcceptanceCriteria,
	CategoryStakeholders,
	CategoryConstraints,
	CategoryDependencies,
	CategoryRisks,
	CategoryEdgeCases,
	CategoryIntegration,
}

// ParseCategory maps a raw storage value to a QuestionCategory. The switch is
// exhaustive so adding a category without updating it is a compile-visible gap.
func ParseCategory(raw string) (QuestionCategory, bool) {
	switch QuestionCategory(raw) {
	case CategoryFunctionalRequirements:
		return CategoryFunctionalRequirements, true
	case CategoryNonFunctionalRequirements:
		return CategoryNonFunctionalRequirements, true
	case CategoryBusinessRules:
		return CategoryBusinessRules, true
	case CategoryAcceptanceCriteria:
		return CategoryAcceptanceCriteria, true
	case CategoryStakeholders:
		return CategoryStakeholders, true
	case CategoryConstraints:
		return CategoryConstraints, true
	case CategoryDependencies:
		return CategoryDependencies, true
	case CategoryRisks:
		return CategoryRisks, true
	case CategoryEdgeCases:
		return CategoryEdgeCases, true
	case CategoryIntegration:
		return CategoryIntegration, true
	default:
		return "", false
	}
}

// Event types published on the analysis event bus.
const (
	EventAnalysisStarted   = "ANALYSIS_STARTED"
	EventMessageProcessed  = "MESSAGE_PROCESSED"
	EventPhaseAdvanced     = "PHASE_ADVANCED"
	EventAnalysisReopened  = "ANALYSIS_REOPENED"
	EventAnalysisCompleted = "ANALYSIS_COMPLETED"
)

// AnalysisEventsTopic is the in-process watermill topic for analysis events.
const AnalysisEventsTopic = "ANALYSIS_EVENTS"
