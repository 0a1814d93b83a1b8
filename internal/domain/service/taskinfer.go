package service

import (
	"regexp"
	"strings"

	"github.com/relayplane/gateway/internal/domain/valueobject"
)

// taskPattern is one weighted regex contributing to a task type's score.
type taskPattern struct {
	re     *regexp.Regexp
	weight float64
}

// taskCatalogueEntry groups a task type with its ordered pattern list and
// the pre-summed total weight used as the confidence denominator.
type taskCatalogueEntry struct {
	task        valueobject.TaskType
	patterns    []taskPattern
	totalWeight float64
}

func mustPatterns(pairs ...interface{}) []taskPattern {
	if len(pairs)%2 != 0 {
		panic("mustPatterns: odd argument count")
	}
	out := make([]taskPattern, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, taskPattern{
			re:     regexp.MustCompile("(?i)" + pairs[i].(string)),
			weight: pairs[i+1].(float64),
		})
	}
	return out
}

// taskInferenceCatalogue is the fixed, ordered (by declaration order, used
// for tie-breaking) weighted-regex scoring table (spec 4.B): 77 patterns
// across the eight scored task types; "general" has no patterns and is
// only the fallback.
var taskInferenceCatalogue = buildTaskCatalogue()

func buildTaskCatalogue() []taskCatalogueEntry {
	entries := []taskCatalogueEntry{
		{
			task: valueobject.TaskCodeGeneration,
			patterns: mustPatterns(
				`\bwrite\s+(a\s+)?(function|method|class|script|program)\b`, 2.0,
				`\bimplement\s+(a|an|the)\b`, 2.0,
				`\bcreate\s+(a\s+)?(function|class|component|module|api|endpoint)\b`, 2.0,
				`\bgenerate\s+(code|a\s+function|a\s+script)\b`, 2.0,
				`\bfix\s+(this\s+)?bug\b`, 1.0,
				`\brefactor\b`, 1.0,
				`\badd\s+(a\s+)?(method|feature|endpoint|test)\b`, 1.0,
				`\bcode\s+(snippet|sample)\b`, 1.0,
				`\bboilerplate\b`, 1.0,
				`\bunit\s+tests?\b`, 1.0,
				`\bwrite\s+(a\s+)?(test|tests)\b`, 1.0,
			),
		},
		{
			task: valueobject.TaskCodeReview,
			patterns: mustPatterns(
				`\breview\s+(this\s+)?(code|pr|pull\s+request|diff)\b`, 2.0,
				`\bcode\s+review\b`, 2.0,
				`\bfind\s+(bugs|issues|vulnerabilities)\b`, 2.0,
				`\bspot\s+(any\s+)?(bugs|issues)\b`, 1.0,
				`\bwhat('s| is)\s+wrong\s+with\s+this\s+code\b`, 2.0,
				`\bcritique\s+(this\s+)?(code|implementation)\b`, 1.0,
				`\bsecurity\s+(review|audit)\b`, 1.0,
				`\bis\s+this\s+code\s+(correct|safe|secure)\b`, 1.0,
				`\bpull\s+request\b`, 1.0,
				`\blgtm\b`, 1.0,
			),
		},
		{
			task: valueobject.TaskSummarization,
			patterns: mustPatterns(
				`\bsummariz(e|ing|ed)\b`, 2.0,
				`\btl;?dr\b`, 2.0,
				`\bgive\s+me\s+a\s+summary\b`, 2.0,
				`\bin\s+a\s+few\s+sentences\b`, 1.0,
				`\bcondense\b`, 1.0,
				`\bkey\s+(points|takeaways)\b`, 1.0,
				`\bmain\s+ideas?\b`, 1.0,
				`\bshorten\s+this\b`, 1.0,
				`\bbrief\s+overview\b`, 1.0,
				`\bexecutive\s+summary\b`, 1.0,
			),
		},
		{
			task: valueobject.TaskAnalysis,
			patterns: mustPatterns(
				`\banaly[sz]e\b`, 2.0,
				`\bcompare\b`, 2.0,
				`\bevaluate\b`, 2.0,
				`\bassess\b`, 1.0,
				`\baudit\b`, 1.0,
				`\bpros\s+and\s+cons\b`, 1.0,
				`\btrade-?offs?\b`, 1.0,
				`\bwhat\s+(are\s+)?the\s+implications\b`, 1.0,
				`\broot\s+cause\b`, 1.0,
				`\bdeep\s+dive\b`, 1.0,
			),
		},
		{
			task: valueobject.TaskCreativeWriting,
			patterns: mustPatterns(
				`\bwrite\s+a\s+(story|poem|essay|article|report)\b`, 2.0,
				`\bshort\s+story\b`, 2.0,
				`\bcompose\s+a\s+(poem|song|lyrics)\b`, 2.0,
				`\bonce\s+upon\s+a\s+time\b`, 1.0,
				`\bcharacter\s+(arc|development)\b`, 1.0,
				`\bplot\s+twist\b`, 1.0,
				`\bcreative\s+writing\b`, 1.0,
				`\bimagine\s+(a|an)\b`, 1.0,
				`\bnarrative\b`, 1.0,
				`\bfictional\b`, 1.0,
			),
		},
		{
			task: valueobject.TaskDataExtraction,
			patterns: mustPatterns(
				`\bextract\s+(the\s+)?(data|fields|entities|information)\b`, 2.0,
				`\bparse\s+(this\s+)?(json|csv|xml|html)\b`, 2.0,
				`\bpull\s+out\s+(the\s+)?(names|dates|values)\b`, 2.0,
				`\bstructure\s+this\s+into\b`, 1.0,
				`\bconvert\s+to\s+(json|csv|table)\b`, 1.0,
				`\btabulate\b`, 1.0,
				`\bscrape\b`, 1.0,
				`\bfield\s+mapping\b`, 1.0,
				`\bschema\s+extraction\b`, 1.0,
				`\bnamed\s+entit(y|ies)\b`, 1.0,
			),
		},
		{
			task: valueobject.TaskTranslation,
			patterns: mustPatterns(
				`\btranslate\b`, 2.0,
				`\binto\s+(spanish|french|german|japanese|chinese|italian|portuguese|korean)\b`, 2.0,
				`\bfrom\s+english\s+to\b`, 2.0,
				`\bin\s+(spanish|french|german|japanese|chinese)\b`, 1.0,
				`\blocali[sz]e\b`, 1.0,
				`\btranslation\b`, 1.0,
				`\bwhat\s+does\s+this\s+mean\s+in\b`, 1.0,
				`\bforeign\s+language\b`, 1.0,
			),
		},
		{
			task: valueobject.TaskQuestionAnswer,
			patterns: mustPatterns(
				`^\s*(what|who|when|where|why|how|which)\b`, 2.0,
				`\?\s*$`, 1.0,
				`\bcan\s+you\s+tell\s+me\b`, 1.0,
				`\bdo\s+you\s+know\b`, 1.0,
				`\bexplain\s+(why|how|what)\b`, 1.0,
				`\bis\s+it\s+true\s+that\b`, 1.0,
				`\bwhat\s+is\s+the\s+difference\b`, 1.0,
				`\bhow\s+(do|does|can)\s+i\b`, 1.0,
			),
		},
	}

	for i := range entries {
		var total float64
		for _, p := range entries[i].patterns {
			total += p.weight
		}
		entries[i].totalWeight = total
	}
	return entries
}

// InferTask scores text against the fixed task catalogue and returns the
// winning tag with its confidence (spec 4.B). Ties are broken by
// declaration order in the catalogue; a maximum score of 1 or less falls
// back to "general".
func InferTask(text string) valueobject.TaskInference {
	lower := strings.ToLower(text)

	var bestTask valueobject.TaskType
	var bestScore float64
	var bestTotal float64
	found := false

	for _, entry := range taskInferenceCatalogue {
		var score float64
		for _, p := range entry.patterns {
			if p.re.MatchString(lower) {
				score += p.weight
			}
		}
		if !found || score > bestScore {
			bestTask = entry.task
			bestScore = score
			bestTotal = entry.totalWeight
			found = true
		}
	}

	if bestScore <= 1 {
		return valueobject.TaskInference{Task: valueobject.TaskGeneral, Confidence: 0}
	}

	confidence := bestScore / bestTotal
	if confidence > 0.95 {
		confidence = 0.95
	}
	return valueobject.TaskInference{Task: bestTask, Confidence: confidence}
}
