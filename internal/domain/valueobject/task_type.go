package valueobject

// TaskType tags the kind of work a prompt appears to be asking for. The set
// is fixed; task inference (domain/service/taskinfer.go) never invents new
// tags, it only scores membership in these nine (spec §3 "Task type").
type TaskType string

const (
	TaskCodeGeneration  TaskType = "code_generation"
	TaskCodeReview      TaskType = "code_review"
	TaskSummarization   TaskType = "summarization"
	TaskAnalysis        TaskType = "analysis"
	TaskCreativeWriting TaskType = "creative_writing"
	TaskDataExtraction  TaskType = "data_extraction"
	TaskTranslation     TaskType = "translation"
	TaskQuestionAnswer  TaskType = "question_answering"
	TaskGeneral         TaskType = "general"
)

// AllTaskTypes lists the nine fixed tags, in declaration order.
var AllTaskTypes = []TaskType{
	TaskCodeGeneration, TaskCodeReview, TaskSummarization, TaskAnalysis,
	TaskCreativeWriting, TaskDataExtraction, TaskTranslation, TaskQuestionAnswer, TaskGeneral,
}

// TaskInference is the result of scoring a prompt against the task type
// catalogue: the winning tag and a confidence in [0, 0.95].
type TaskInference struct {
	Task       TaskType
	Confidence float64
}
