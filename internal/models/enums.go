package models

// AuditStatus is the lifecycle state of an audit.
type AuditStatus string

// Audit statuses.
const (
	AuditStatusDraft      AuditStatus = "DRAFT"
	AuditStatusInProgress AuditStatus = "IN_PROGRESS"
	AuditStatusCompleted  AuditStatus = "COMPLETED"
	AuditStatusCancelled  AuditStatus = "CANCELLED"
)

// auditTransitions lists the allowed target states for each state.
var auditTransitions = map[AuditStatus][]AuditStatus{
	AuditStatusDraft:      {AuditStatusInProgress, AuditStatusCancelled},
	AuditStatusInProgress: {AuditStatusCompleted, AuditStatusCancelled},
}

// Valid reports whether s is a known audit status.
func (s AuditStatus) Valid() bool {
	switch s {
	case AuditStatusDraft, AuditStatusInProgress, AuditStatusCompleted, AuditStatusCancelled:
		return true
	}

	return false
}

// CanTransitionTo reports whether the state machine allows s → next.
func (s AuditStatus) CanTransitionTo(next AuditStatus) bool {
	for _, allowed := range auditTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// CanAnswer reports whether items of an audit in this state accept answers.
func (s AuditStatus) CanAnswer() bool { return s == AuditStatusInProgress }

// CanComplete reports whether an audit in this state may be completed.
func (s AuditStatus) CanComplete() bool { return s.CanTransitionTo(AuditStatusCompleted) }

// CanCancel reports whether an audit in this state may be cancelled.
func (s AuditStatus) CanCancel() bool { return s.CanTransitionTo(AuditStatusCancelled) }

// IsTerminal reports whether no further transitions are possible.
func (s AuditStatus) IsTerminal() bool { return len(auditTransitions[s]) == 0 }

// QuestionTargetType is the granularity a question applies to.
type QuestionTargetType string

// Question target types.
const (
	TargetApartment QuestionTargetType = "APARTMENT"
	TargetSpace     QuestionTargetType = "SPACE"
	TargetElement   QuestionTargetType = "ELEMENT"
)

// Valid reports whether t is a known target type.
func (t QuestionTargetType) Valid() bool {
	return t == TargetApartment || t == TargetSpace || t == TargetElement
}

// AnswerType is the kind of value a question expects.
type AnswerType string

// Answer types.
const (
	AnswerBoolean        AnswerType = "BOOLEAN"
	AnswerSingleChoice   AnswerType = "SINGLE_CHOICE"
	AnswerMultipleChoice AnswerType = "MULTIPLE_CHOICE"
	AnswerText           AnswerType = "TEXT"
	AnswerNumber         AnswerType = "NUMBER"
	AnswerPhoto          AnswerType = "PHOTO"
)

// Valid reports whether t is a known answer type.
func (t AnswerType) Valid() bool {
	switch t {
	case AnswerBoolean, AnswerSingleChoice, AnswerMultipleChoice, AnswerText, AnswerNumber, AnswerPhoto:
		return true
	}

	return false
}

// QuestionCategory groups questions by concern.
type QuestionCategory string

// Question categories.
const (
	CategorySafety      QuestionCategory = "SAFETY"
	CategoryCleanliness QuestionCategory = "CLEANLINESS"
	CategoryMaintenance QuestionCategory = "MAINTENANCE"
	CategoryLegal       QuestionCategory = "LEGAL"
	CategoryInventory   QuestionCategory = "INVENTORY"
	CategoryCustom      QuestionCategory = "CUSTOM"
)

// Valid reports whether c is a known category.
func (c QuestionCategory) Valid() bool {
	switch c {
	case CategorySafety, CategoryCleanliness, CategoryMaintenance, CategoryLegal, CategoryInventory, CategoryCustom:
		return true
	}

	return false
}

// ImpactLevel rates how much a question matters.
type ImpactLevel string

// Impact levels.
const (
	ImpactLow      ImpactLevel = "LOW"
	ImpactMedium   ImpactLevel = "MEDIUM"
	ImpactHigh     ImpactLevel = "HIGH"
	ImpactCritical ImpactLevel = "CRITICAL"
)

// Valid reports whether l is a known impact level.
func (l ImpactLevel) Valid() bool {
	switch l {
	case ImpactLow, ImpactMedium, ImpactHigh, ImpactCritical:
		return true
	}

	return false
}

// IncidenceSeverity rates a non-conformity.
type IncidenceSeverity string

// Incidence severities.
const (
	SeverityLow      IncidenceSeverity = "LOW"
	SeverityMedium   IncidenceSeverity = "MEDIUM"
	SeverityHigh     IncidenceSeverity = "HIGH"
	SeverityCritical IncidenceSeverity = "CRITICAL"
)

// Valid reports whether s is a known severity.
func (s IncidenceSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}

	return false
}

// NonConformityType classifies an incidence.
type NonConformityType string

// Non-conformity types.
const (
	NonConformityObservation NonConformityType = "OBSERVATION"
	NonConformityMinor       NonConformityType = "MINOR"
	NonConformityMajor       NonConformityType = "MAJOR"
	NonConformityCritical    NonConformityType = "CRITICAL"
)

// Valid reports whether t is a known non-conformity type.
func (t NonConformityType) Valid() bool {
	switch t {
	case NonConformityObservation, NonConformityMinor, NonConformityMajor, NonConformityCritical:
		return true
	}

	return false
}

// ResponsibleType names who must act on an incidence.
type ResponsibleType string

// Responsible parties.
const (
	ResponsibleCleaning    ResponsibleType = "CLEANING"
	ResponsibleMaintenance ResponsibleType = "MAINTENANCE"
	ResponsibleManagement  ResponsibleType = "MANAGEMENT"
	ResponsibleOwner       ResponsibleType = "OWNER"
	ResponsibleOther       ResponsibleType = "OTHER"
)

// Valid reports whether t is a known responsible party.
func (t ResponsibleType) Valid() bool {
	switch t {
	case ResponsibleCleaning, ResponsibleMaintenance, ResponsibleManagement, ResponsibleOwner, ResponsibleOther:
		return true
	}

	return false
}

// IncidenceStatus tracks the ops workflow of an incidence.
type IncidenceStatus string

// Incidence statuses.
const (
	IncidenceOpen     IncidenceStatus = "OPEN"
	IncidenceResolved IncidenceStatus = "RESOLVED"
	IncidenceClosed   IncidenceStatus = "CLOSED"
)
